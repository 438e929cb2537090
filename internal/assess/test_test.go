package assess

import (
	"errors"
	"testing"
	"time"
)

func TestPublishGatedByValidation(t *testing.T) {
	tt := NewTest("t1", "Broken", time.Now())
	tt.Sections = append(tt.Sections, &Section{ID: "s1", Title: "Empty"})

	_, err := tt.Publish(time.Now())
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) == 0 {
		t.Fatalf("expected issue list, got %v", err)
	}
	if tt.Status != StatusDraft {
		t.Fatalf("failed publish must not change status, got %q", tt.Status)
	}
}

func TestLifecycleOneDirectional(t *testing.T) {
	tt := validTest(t)
	snap, err := tt.Publish(time.Now())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if snap.Status != StatusPublished || tt.Status != StatusPublished {
		t.Fatal("publish must mark both the draft and the snapshot published")
	}

	// Published tests reject mutation.
	if err := tt.AddSection(&Section{ID: "s2"}); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
	if err := tt.SetSettings(tt.Settings); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
	if _, err := tt.Publish(time.Now()); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("republish must fail, got %v", err)
	}

	if err := tt.Archive(); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := tt.Archive(); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("re-archive must fail, got %v", err)
	}
}

func TestSnapshotInsulatedFromLaterEdits(t *testing.T) {
	tt := validTest(t)
	snap, err := tt.Publish(time.Now())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	draft := tt.NewRevision()
	if draft.Revision != tt.Revision+1 || draft.Status != StatusDraft {
		t.Fatalf("new revision must be an editable draft, got rev=%d status=%q", draft.Revision, draft.Status)
	}
	q := draft.Sections[0].Questions[0]
	if err := q.SetPoints(99); err != nil {
		t.Fatalf("edit draft: %v", err)
	}
	draft.Sections[0].Questions[0].Title = "changed"

	if got := snap.Sections[0].Questions[0].Points; got == 99 {
		t.Fatal("editing the new revision leaked into the snapshot")
	}
	if snap.Sections[0].Questions[0].Title == "changed" {
		t.Fatal("editing the new revision leaked into the snapshot")
	}
}

func TestStripAnswerKeys(t *testing.T) {
	tt := validTest(t)
	sec := tt.Sections[0]
	sec.Questions = append(sec.Questions,
		mustQuestion(t, "fb", 2, FillBlanksPayload{Template: "___", BlankAnswers: [][]string{{"x"}}}),
		mustQuestion(t, "tf", 1, TrueFalsePayload{CorrectAnswer: true}),
		mustQuestion(t, "rk", 1, RankingPayload{Items: []string{"a", "b"}, CorrectOrder: []string{"b", "a"}}),
	)
	tt.StripAnswerKeys()

	if p := sec.Questions[0].Payload().(MCQPayload); p.CorrectAnswers != nil {
		t.Fatal("mcq correct answers not stripped")
	}
	if len(sec.Questions[0].Payload().(MCQPayload).Options) != 3 {
		t.Fatal("options must survive stripping")
	}
	if p := sec.Questions[1].Payload().(FillBlanksPayload); p.BlankAnswers != nil {
		t.Fatal("blank answers not stripped")
	}
	if p := sec.Questions[1].Payload().(FillBlanksPayload); p.Template == "" {
		t.Fatal("template must survive stripping")
	}
	if p := sec.Questions[2].Payload().(TrueFalsePayload); p.CorrectAnswer {
		t.Fatal("true/false key not stripped")
	}
	if p := sec.Questions[3].Payload().(RankingPayload); p.CorrectOrder != nil {
		t.Fatal("ranking key not stripped")
	}
	if len(sec.Questions[3].Payload().(RankingPayload).Items) != 2 {
		t.Fatal("ranking items must survive stripping")
	}
}
