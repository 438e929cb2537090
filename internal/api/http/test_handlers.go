package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classforge/assessment-core/internal/assess"
	"github.com/classforge/assessment-core/internal/rbac"
	"github.com/classforge/assessment-core/internal/store"
)

// POST /tests — author uploads a draft test document.
func CreateTestHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t assess.Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Revision == 0 {
			t.Revision = 1
		}
		t.Status = assess.StatusDraft
		t.CreatedAt = time.Now()
		if err := st.PutTest(r.Context(), &t); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           t.ID,
			"revision":     t.Revision,
			"total_points": assess.TotalPoints(&t),
			"issues":       assess.Validate(&t),
		})
	}
}

// GET /tests/{testID} — key-holders see the latest revision with answer keys;
// everyone else gets the latest published revision, keys stripped. Drafts are
// never served to learners.
func GetTestHandler(st store.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		if checker.Has(rbac.RoleFromContext(r.Context()), "test:view-keys") {
			t, err := st.GetTest(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			_ = json.NewEncoder(w).Encode(t)
			return
		}
		t, err := st.GetLatestPublished(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		t.StripAnswerKeys()
		_ = json.NewEncoder(w).Encode(t)
	}
}

// POST /tests/{testID}/validate — dry-run validation for the editor.
func ValidateTestHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		issues := assess.Validate(t)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid":  len(issues) == 0,
			"issues": issues,
		})
	}
}

// POST /tests/{testID}/publish — validation gate, then freeze the snapshot.
func PublishTestHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		snap, err := t.Publish(time.Now())
		if err != nil {
			var verr *assess.ValidationError
			if errors.As(err, &verr) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(map[string]any{"issues": verr.Issues})
				return
			}
			writeError(w, err)
			return
		}
		if err := st.PutTest(r.Context(), snap); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// POST /tests/{testID}/archive
func ArchiveTestHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := t.Archive(); err != nil {
			writeError(w, err)
			return
		}
		if err := st.PutTest(r.Context(), t); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(t)
	}
}

// POST /tests/{testID}/revisions — derive the next editable draft from a
// published test. The published revision keeps serving existing attempts.
func NewRevisionHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		draft := t.NewRevision()
		if err := st.PutTest(r.Context(), draft); err != nil {
			writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(draft)
	}
}
