package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classforge/assessment-core/internal/auth"
	"github.com/classforge/assessment-core/internal/grading"
	"github.com/classforge/assessment-core/internal/store"
)

// GET /attempts/{attemptID}/result
func GetResultHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, _, err := loadAttempt(r, st)
		if err != nil {
			writeError(w, err)
			return
		}
		if !mayViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		res, err := st.GetResult(r.Context(), a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

type applyGradesReq struct {
	Grades map[string]grading.ManualGrade `json:"grades"` // question_id -> grade
}

// POST /attempts/{attemptID}/grades — a human grader settles ungradable
// items; totals and the pending flag recompute.
func ApplyGradesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
		var req applyGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		res, err := st.GetResult(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		grader := auth.SubjectFromContext(r.Context())
		if err := grading.ApplyManualGrades(res, req.Grades, grader); err != nil {
			writeError(w, err)
			return
		}
		if err := st.PutResult(r.Context(), res); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}
