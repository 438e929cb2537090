package assess

import (
	"testing"
	"time"
)

func validTest(t *testing.T) *Test {
	t.Helper()
	tt := NewTest("t1", "Unit 1 Quiz", time.Now())
	sec := &Section{ID: "s1", Title: "Basics"}
	q1, err := NewQuestion("q1", "Pick one", 2, MCQPayload{
		Options:        []string{"A", "B", "C"},
		CorrectAnswers: []string{"B"},
	})
	if err != nil {
		t.Fatalf("NewQuestion: %v", err)
	}
	sec.Questions = append(sec.Questions, q1)
	tt.Sections = append(tt.Sections, sec)
	return tt
}

func mustQuestion(t *testing.T, id string, points int, p Payload) *Question {
	t.Helper()
	q, err := NewQuestion(id, "title "+id, points, p)
	if err != nil {
		t.Fatalf("NewQuestion(%s): %v", id, err)
	}
	return q
}

func TestValidateAcceptsWellFormedTest(t *testing.T) {
	if issues := Validate(validTest(t)); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestValidateVariantRules(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    IssueKind
	}{
		{
			name:    "mcq one option",
			payload: MCQPayload{Options: []string{"A"}, CorrectAnswers: []string{"A"}},
			want:    IssueTooFewOptions,
		},
		{
			name:    "mcq two correct answers",
			payload: MCQPayload{Options: []string{"A", "B"}, CorrectAnswers: []string{"A", "B"}},
			want:    IssueBadAnswerKey,
		},
		{
			name:    "mcq correct answer not an option",
			payload: MCQPayload{Options: []string{"A", "B"}, CorrectAnswers: []string{"Z"}},
			want:    IssueBadAnswerKey,
		},
		{
			name:    "mcq duplicate options",
			payload: MCQPayload{Options: []string{"A", "A"}, CorrectAnswers: []string{"A"}},
			want:    IssueDuplicateOption,
		},
		{
			name:    "multi select empty key",
			payload: MultiSelectPayload{Options: []string{"A", "B"}},
			want:    IssueBadAnswerKey,
		},
		{
			name:    "fill blanks marker count mismatch",
			payload: FillBlanksPayload{Template: "___ plus ___", BlankAnswers: [][]string{{"one"}}},
			want:    IssueBlankMismatch,
		},
		{
			name:    "fill blanks empty synonym set",
			payload: FillBlanksPayload{Template: "___", BlankAnswers: [][]string{{}}},
			want:    IssueEmptyBlankKey,
		},
		{
			name: "matching unknown item",
			payload: MatchingPayload{
				LeftItems:  []string{"l1"},
				RightItems: []string{"r1"},
				Pairs:      []MatchPair{{Left: "nope", Right: "r1"}},
			},
			want: IssueUnknownItem,
		},
		{
			name: "matching left item reused",
			payload: MatchingPayload{
				LeftItems:  []string{"l1"},
				RightItems: []string{"r1", "r2"},
				Pairs:      []MatchPair{{Left: "l1", Right: "r1"}, {Left: "l1", Right: "r2"}},
			},
			want: IssueDuplicatePairing,
		},
		{
			name:    "ranking not a permutation",
			payload: RankingPayload{Items: []string{"a", "b"}, CorrectOrder: []string{"a", "a"}},
			want:    IssueNotPermutation,
		},
		{
			name:    "scale min not below max",
			payload: ScalePayload{Min: 5, Max: 5},
			want:    IssueBadScaleBounds,
		},
		{
			name:    "date bad value",
			payload: DatePayload{CorrectValue: "not-a-date"},
			want:    IssueBadValue,
		},
		{
			name:    "number negative tolerance",
			payload: NumberPayload{CorrectValue: 1, Tolerance: -0.5},
			want:    IssueBadValue,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := validTest(t)
			tt.Sections[0].Questions = append(tt.Sections[0].Questions, mustQuestion(t, "bad", 1, tc.payload))
			issues := Validate(tt)
			found := false
			for _, is := range issues {
				if is.Kind == tc.want {
					found = true
					if is.Location != "sections[0].questions[1]" {
						t.Fatalf("issue not located at offending question: %q", is.Location)
					}
				}
			}
			if !found {
				t.Fatalf("expected issue kind %q, got %v", tc.want, issues)
			}
		})
	}
}

func TestValidateTestLevelRules(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	endBefore := start.Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(*Test)
		want   IssueKind
	}{
		{"no sections", func(tt *Test) { tt.Sections = nil }, IssueNoSections},
		{"empty section", func(tt *Test) { tt.Sections[0].Questions = nil }, IssueEmptySection},
		{"zero duration", func(tt *Test) { tt.Settings.DurationMinutes = 0 }, IssueBadDuration},
		{"zero attempt limit", func(tt *Test) { tt.Settings.LimitAttempts = 0 }, IssueBadAttemptLimit},
		{"passing score above 100", func(tt *Test) { tt.Settings.PassingScore = 120 }, IssueBadPassingScore},
		{"start after end", func(tt *Test) {
			tt.Settings.ScheduledStart = &start
			tt.Settings.ScheduledEnd = &endBefore
		}, IssueBadSchedule},
		{"duplicate question ids", func(tt *Test) {
			tt.Sections[0].Questions = append(tt.Sections[0].Questions,
				mustQuestion(t, "q1", 1, TrueFalsePayload{}))
		}, IssueDuplicateID},
		{"empty title", func(tt *Test) { tt.Sections[0].Questions[0].Title = "  " }, IssueEmptyTitle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := validTest(t)
			tc.mutate(tt)
			issues := Validate(tt)
			for _, is := range issues {
				if is.Kind == tc.want {
					return
				}
			}
			t.Fatalf("expected issue kind %q, got %v", tc.want, issues)
		})
	}
}
