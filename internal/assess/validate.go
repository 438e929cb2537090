package assess

import (
	"fmt"
	"strings"
	"time"
)

// Validate runs every structural rule against the test and returns the
// findings in document order. An empty slice means the test is publishable.
// Validation never mutates the test.
func Validate(t *Test) []Issue {
	var issues []Issue
	add := func(loc string, kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{Location: loc, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if len(t.Sections) == 0 {
		add("test", IssueNoSections, "test has no sections")
	}
	if t.Settings.DurationMinutes <= 0 {
		add("test.settings", IssueBadDuration, "duration_minutes must be > 0, got %d", t.Settings.DurationMinutes)
	}
	if t.Settings.LimitAttempts < 1 {
		add("test.settings", IssueBadAttemptLimit, "limit_attempts must be >= 1, got %d", t.Settings.LimitAttempts)
	}
	if t.Settings.PassingScore < 0 || t.Settings.PassingScore > 100 {
		add("test.settings", IssueBadPassingScore, "passing_score must be within 0-100, got %d", t.Settings.PassingScore)
	}
	if s, e := t.Settings.ScheduledStart, t.Settings.ScheduledEnd; s != nil && e != nil && !s.Before(*e) {
		add("test.settings", IssueBadSchedule, "scheduled_start must precede scheduled_end")
	}

	seenIDs := map[string]string{}
	for si, sec := range t.Sections {
		secLoc := fmt.Sprintf("sections[%d]", si)
		if len(sec.Questions) == 0 {
			add(secLoc, IssueEmptySection, "section %q has no questions", sec.ID)
		}
		for qi, q := range sec.Questions {
			loc := fmt.Sprintf("%s.questions[%d]", secLoc, qi)
			if prev, dup := seenIDs[q.ID]; dup {
				add(loc, IssueDuplicateID, "question id %q already used at %s", q.ID, prev)
			} else {
				seenIDs[q.ID] = loc
			}
			issues = append(issues, validateQuestion(loc, q)...)
		}
	}
	return issues
}

func validateQuestion(loc string, q *Question) []Issue {
	var issues []Issue
	add := func(kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{Location: loc, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(q.Title) == "" {
		add(IssueEmptyTitle, "title must not be empty")
	}
	if q.Points < 0 {
		add(IssueNegativePoints, "points must be >= 0, got %d", q.Points)
	}

	switch p := q.Payload().(type) {
	case MCQPayload:
		issues = append(issues, validateChoices(loc, p.Options, p.CorrectAnswers, true)...)
	case MultiSelectPayload:
		issues = append(issues, validateChoices(loc, p.Options, p.CorrectAnswers, false)...)
	case FillBlanksPayload:
		blanks := strings.Count(p.Template, BlankMarker)
		if blanks == 0 {
			add(IssueBlankMismatch, "template has no %q markers", BlankMarker)
		}
		if blanks != len(p.BlankAnswers) {
			add(IssueBlankMismatch, "template has %d blanks but %d answer sets", blanks, len(p.BlankAnswers))
		}
		for i, accepted := range p.BlankAnswers {
			if len(accepted) == 0 {
				add(IssueEmptyBlankKey, "blank %d has no accepted answers", i)
			}
		}
	case MatchingPayload:
		left := toSet(p.LeftItems)
		right := toSet(p.RightItems)
		usedLeft := map[string]bool{}
		usedRight := map[string]bool{}
		for _, pair := range p.Pairs {
			if !left[pair.Left] {
				add(IssueUnknownItem, "pair references unknown left item %q", pair.Left)
			}
			if !right[pair.Right] {
				add(IssueUnknownItem, "pair references unknown right item %q", pair.Right)
			}
			if usedLeft[pair.Left] {
				add(IssueDuplicatePairing, "left item %q used in more than one pair", pair.Left)
			}
			if usedRight[pair.Right] {
				add(IssueDuplicatePairing, "right item %q used in more than one pair", pair.Right)
			}
			usedLeft[pair.Left] = true
			usedRight[pair.Right] = true
		}
	case RankingPayload:
		if !sameMultiset(p.Items, p.CorrectOrder) {
			add(IssueNotPermutation, "correct_order is not a permutation of items")
		}
		if dup := firstDuplicate(p.Items); dup != "" {
			add(IssueDuplicateOption, "duplicate item %q", dup)
		}
	case ScalePayload:
		if p.Min >= p.Max {
			add(IssueBadScaleBounds, "scale min %d must be < max %d", p.Min, p.Max)
		}
		if p.Target != nil && (*p.Target < p.Min || *p.Target > p.Max) {
			add(IssueBadValue, "target %d outside scale bounds", *p.Target)
		}
	case DatePayload:
		if _, err := time.Parse("2006-01-02", p.CorrectValue); err != nil {
			add(IssueBadValue, "correct_value %q is not a valid date", p.CorrectValue)
		}
		if p.ToleranceDays < 0 {
			add(IssueBadValue, "tolerance_days must be >= 0")
		}
	case NumberPayload:
		if p.Tolerance < 0 {
			add(IssueBadValue, "tolerance must be >= 0")
		}
	}
	return issues
}

func validateChoices(loc string, options, correct []string, single bool) []Issue {
	var issues []Issue
	add := func(kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{Location: loc, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if len(options) < 2 {
		add(IssueTooFewOptions, "need at least 2 options, got %d", len(options))
	}
	for i, o := range options {
		if strings.TrimSpace(o) == "" {
			add(IssueEmptyOption, "option %d is empty", i)
		}
	}
	if dup := firstDuplicate(options); dup != "" {
		add(IssueDuplicateOption, "duplicate option %q", dup)
	}
	if len(correct) == 0 {
		add(IssueBadAnswerKey, "correct_answers must not be empty")
	}
	if single && len(correct) != 1 {
		add(IssueBadAnswerKey, "exactly one correct answer required, got %d", len(correct))
	}
	opts := toSet(options)
	for _, c := range correct {
		if !opts[c] {
			add(IssueBadAnswerKey, "correct answer %q is not an option", c)
		}
	}
	return issues
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func firstDuplicate(items []string) string {
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it] {
			return it
		}
		seen[it] = true
	}
	return ""
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
	}
	for _, v := range counts {
		if v != 0 {
			return false
		}
	}
	return true
}
