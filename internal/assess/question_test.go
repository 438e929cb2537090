package assess

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNewQuestionEnforcesShape(t *testing.T) {
	q, err := NewQuestion("q1", "Capital of France?", 5, MCQPayload{
		Options:        []string{"Paris", "London"},
		CorrectAnswers: []string{"Paris"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Kind() != KindMCQ {
		t.Fatalf("expected kind %q, got %q", KindMCQ, q.Kind())
	}

	// A payload of another kind must be rejected: the question's kind is
	// fixed at construction.
	if err := q.SetPayload(TrueFalsePayload{CorrectAnswer: true}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	// Same-kind payload swaps are fine.
	if err := q.SetPayload(MCQPayload{Options: []string{"A", "B"}, CorrectAnswers: []string{"B"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewQuestionRejectsNegativePoints(t *testing.T) {
	if _, err := NewQuestion("q1", "t", -1, TrueFalsePayload{}); !errors.Is(err, ErrNegativePoints) {
		t.Fatalf("expected ErrNegativePoints, got %v", err)
	}
	q, _ := NewQuestion("q1", "t", 1, TrueFalsePayload{})
	if err := q.SetPoints(-5); !errors.Is(err, ErrNegativePoints) {
		t.Fatalf("expected ErrNegativePoints, got %v", err)
	}
}

func TestQuestionJSONRoundTrip(t *testing.T) {
	payloads := []Payload{
		MCQPayload{Options: []string{"a", "b"}, CorrectAnswers: []string{"a"}},
		MultiSelectPayload{Options: []string{"a", "b", "c"}, CorrectAnswers: []string{"a", "c"}},
		ShortAnswerPayload{ReferenceText: "ref"},
		LongAnswerPayload{},
		FillBlanksPayload{Template: "___ and ___", BlankAnswers: [][]string{{"x"}, {"y", "z"}}},
		MatchingPayload{LeftItems: []string{"l"}, RightItems: []string{"r"}, Pairs: []MatchPair{{Left: "l", Right: "r"}}},
		TrueFalsePayload{CorrectAnswer: true},
		RankingPayload{Items: []string{"1", "2"}, CorrectOrder: []string{"2", "1"}},
		ScalePayload{Min: 1, Max: 5},
		DatePayload{CorrectValue: "2024-03-01", ToleranceDays: 1},
		NumberPayload{CorrectValue: 3.14, Tolerance: 0.01},
	}
	for _, p := range payloads {
		t.Run(string(p.Kind()), func(t *testing.T) {
			q, err := NewQuestion("q-"+string(p.Kind()), "title", 3, p)
			if err != nil {
				t.Fatalf("NewQuestion: %v", err)
			}
			q.Tags = []string{"unit"}
			buf, err := json.Marshal(q)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var back Question
			if err := json.Unmarshal(buf, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back.Kind() != p.Kind() {
				t.Fatalf("kind mismatch: %q vs %q", back.Kind(), p.Kind())
			}
			if !reflect.DeepEqual(back.Payload(), p) {
				t.Fatalf("payload mismatch: %#v vs %#v", back.Payload(), p)
			}
		})
	}
}

func TestQuestionUnmarshalUnknownKind(t *testing.T) {
	var q Question
	err := json.Unmarshal([]byte(`{"id":"x","kind":"essay_scan","title":"t","points":1,"payload":{}}`), &q)
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestQuestionCloneIsDeep(t *testing.T) {
	q, _ := NewQuestion("q1", "t", 2, RankingPayload{Items: []string{"a", "b"}, CorrectOrder: []string{"a", "b"}})
	cp := q.Clone()
	p := cp.Payload().(RankingPayload)
	p.CorrectOrder[0] = "b"
	if q.Payload().(RankingPayload).CorrectOrder[0] != "a" {
		t.Fatal("clone shares correct_order backing array with original")
	}
}
