package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classforge/assessment-core/internal/assess"
	"github.com/classforge/assessment-core/internal/auth"
	"github.com/classforge/assessment-core/internal/delivery"
	"github.com/classforge/assessment-core/internal/rbac"
	"github.com/classforge/assessment-core/internal/store"
)

func publishedFixture(t *testing.T) (store.Store, *assess.Test) {
	t.Helper()
	st := store.NewMemoryStore()
	tt := assess.NewTest("t1", "Quiz", time.Now())
	q, err := assess.NewQuestion("q1", "Pick one", 2, assess.MCQPayload{
		Options:        []string{"A", "B"},
		CorrectAnswers: []string{"A"},
	})
	if err != nil {
		t.Fatalf("NewQuestion: %v", err)
	}
	tt.Sections = []*assess.Section{{ID: "s1", Title: "One", Questions: []*assess.Question{q}}}
	snap, err := tt.Publish(time.Now())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := st.PutTest(context.Background(), snap); err != nil {
		t.Fatalf("put: %v", err)
	}
	return st, snap
}

func TestCreateAttemptUsesLatestPublishedRevision(t *testing.T) {
	st, snap := publishedFixture(t)
	ctx := context.Background()

	// Deriving a draft must not disturb attempt creation against the live
	// published revision.
	draft := snap.NewRevision()
	if err := st.PutTest(ctx, draft); err != nil {
		t.Fatalf("put draft: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/tests/{testID}/attempts", CreateAttemptHandler(st, delivery.NewEngine(st, nil)))

	req := httptest.NewRequest("POST", "/tests/t1/attempts", nil)
	reqCtx := auth.WithSubject(req.Context(), "alice")
	reqCtx = rbac.WithRole(reqCtx, "student")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(reqCtx))

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view attemptView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Attempt.TestRevision != snap.Revision {
		t.Fatalf("attempt pinned revision %d, want published revision %d", view.Attempt.TestRevision, snap.Revision)
	}
}

func TestCreateAttemptRejectsDraftOnlyTest(t *testing.T) {
	st := store.NewMemoryStore()
	tt := assess.NewTest("t1", "Draft only", time.Now())
	if err := st.PutTest(context.Background(), tt); err != nil {
		t.Fatalf("put: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/tests/{testID}/attempts", CreateAttemptHandler(st, delivery.NewEngine(st, nil)))

	req := httptest.NewRequest("POST", "/tests/t1/attempts", nil)
	reqCtx := auth.WithSubject(req.Context(), "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(reqCtx))
	if rec.Code != 409 {
		t.Fatalf("draft-only test: status = %d, want 409", rec.Code)
	}

	req = httptest.NewRequest("POST", "/tests/ghost/attempts", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(reqCtx))
	if rec.Code != 404 {
		t.Fatalf("missing test: status = %d, want 404", rec.Code)
	}
}

func TestGetTestServesPublishedToStudents(t *testing.T) {
	st, snap := publishedFixture(t)
	ctx := context.Background()
	draft := snap.NewRevision()
	draft.Title = "draft edits"
	if err := st.PutTest(ctx, draft); err != nil {
		t.Fatalf("put draft: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/tests/{testID}", GetTestHandler(st))

	fetch := func(role string) *assess.Test {
		t.Helper()
		req := httptest.NewRequest("GET", "/tests/t1", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req.WithContext(rbac.WithRole(req.Context(), role)))
		if rec.Code != 200 {
			t.Fatalf("role %s: status = %d, body %s", role, rec.Code, rec.Body.String())
		}
		var got assess.Test
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return &got
	}

	student := fetch("student")
	if student.Revision != snap.Revision || student.Title == "draft edits" {
		t.Fatalf("student got rev %d %q, want published rev %d", student.Revision, student.Title, snap.Revision)
	}
	if p := student.Sections[0].Questions[0].Payload().(assess.MCQPayload); p.CorrectAnswers != nil {
		t.Fatal("answer keys served to student")
	}

	teacher := fetch("teacher")
	if teacher.Revision != draft.Revision || teacher.Title != "draft edits" {
		t.Fatalf("teacher got rev %d %q, want latest draft rev %d", teacher.Revision, teacher.Title, draft.Revision)
	}
	if p := teacher.Sections[0].Questions[0].Payload().(assess.MCQPayload); p.CorrectAnswers == nil {
		t.Fatal("answer keys stripped for key-holder")
	}
}
