package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classforge/assessment-core/internal/assess"
	"github.com/classforge/assessment-core/internal/auth"
	"github.com/classforge/assessment-core/internal/delivery"
	"github.com/classforge/assessment-core/internal/grading"
	"github.com/classforge/assessment-core/internal/rbac"
	"github.com/classforge/assessment-core/internal/store"
)

type attemptView struct {
	Attempt *delivery.Attempt `json:"attempt"`
	Plan    delivery.Plan     `json:"plan"`
}

// POST /tests/{testID}/attempts — start an attempt for the caller against the
// latest published revision. A newer draft revision never shadows it.
func CreateAttemptHandler(st store.Store, eng *delivery.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learner := auth.SubjectFromContext(r.Context())
		if learner == "" {
			http.Error(w, "unknown subject", http.StatusUnauthorized)
			return
		}
		testID := chi.URLParam(r, "testID")
		snap, err := st.GetLatestPublished(r.Context(), testID)
		if errors.Is(err, assess.ErrNotFound) {
			if _, draftErr := st.GetTest(r.Context(), testID); draftErr == nil {
				http.Error(w, "test is not published", http.StatusConflict)
				return
			}
		}
		if err != nil {
			writeError(w, err)
			return
		}
		a, err := eng.Start(r.Context(), snap, learner)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := st.PutAttempt(r.Context(), a); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(attemptView{Attempt: a, Plan: eng.PlanFor(snap, a)})
	}
}

// GET /attempts/{attemptID} — attempt plus its recomputed plan, for resuming
// after a reload. The plan is identical on every call for a given attempt.
func GetAttemptHandler(st store.Store, eng *delivery.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, snap, err := loadAttempt(r, st)
		if err != nil {
			writeError(w, err)
			return
		}
		if !mayViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(attemptView{Attempt: a, Plan: eng.PlanFor(snap, a)})
	}
}

// POST /attempts/{attemptID}/responses — autosave partial responses.
func SaveResponsesHandler(st store.Store, eng *delivery.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp map[string]any
		if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, _, err := loadAttempt(r, st)
		if err != nil {
			writeError(w, err)
			return
		}
		if a.LearnerID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := eng.SaveResponses(a, resp); err != nil {
			writeError(w, err)
			return
		}
		if err := st.UpdateAttempt(r.Context(), a); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// POST /attempts/{attemptID}/submit — finalize and grade. A late submission
// is accepted, graded normally, and flagged.
func SubmitAttemptHandler(st store.Store, eng *delivery.Engine, grader *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, snap, err := loadAttempt(r, st)
		if err != nil {
			writeError(w, err)
			return
		}
		if a.LearnerID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := eng.Submit(a); err != nil && !errors.Is(err, delivery.ErrDeadlineAlreadyPassed) {
			writeError(w, err)
			return
		}
		if err := st.UpdateAttempt(r.Context(), a); err != nil {
			writeError(w, err)
			return
		}
		res := grader.GradeAttempt(r.Context(), snap, a)
		if err := st.PutResult(r.Context(), res); err != nil {
			writeError(w, err)
			return
		}
		if snap.Settings.ShowResultsImmediately {
			_ = json.NewEncoder(w).Encode(res)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /attempts — listing for dashboards; students see their own.
func ListAttemptsHandler(st store.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		opts := store.AttemptListOpts{
			TestID:    r.URL.Query().Get("test_id"),
			LearnerID: r.URL.Query().Get("learner_id"),
		}
		if !checker.Has(rbac.RoleFromContext(r.Context()), "attempt:view-all") {
			opts.LearnerID = auth.SubjectFromContext(r.Context())
		}
		if v := r.URL.Query().Get("submitted"); v != "" {
			b := v == "true" || v == "1"
			opts.Submitted = &b
		}
		if _, err := fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &opts.Limit); err != nil {
			opts.Limit = 0
		}
		list, err := st.ListAttempts(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(list)
	}
}

func loadAttempt(r *http.Request, st store.Store) (*delivery.Attempt, *assess.Test, error) {
	a, err := st.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		return nil, nil, err
	}
	// Always grade and plan against the pinned revision, never the latest.
	snap, err := st.GetTestRevision(r.Context(), a.TestID, a.TestRevision)
	if err != nil {
		return nil, nil, err
	}
	return a, snap, nil
}

func mayViewAttempt(r *http.Request, a *delivery.Attempt) bool {
	if a.LearnerID == auth.SubjectFromContext(r.Context()) {
		return true
	}
	return rbac.NewChecker(nil).Has(rbac.RoleFromContext(r.Context()), "attempt:view-all")
}
