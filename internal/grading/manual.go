package grading

import (
	"errors"
	"fmt"
)

var ErrUnknownQuestion = errors.New("unknown question in manual grades")

// ManualGrade is a human grader's score for one ungradable question.
type ManualGrade struct {
	Points int `json:"points"`
}

// ApplyManualGrades settles Ungradable entries with grader-supplied points
// and re-aggregates. Points clamp to [0, max]. Entries already auto-graded
// are left untouched; grading a question twice overwrites the earlier manual
// grade, keeping the operation idempotent per input.
func ApplyManualGrades(res *Result, grades map[string]ManualGrade, gradedBy string) error {
	index := make(map[string]int, len(res.PerQuestion))
	for i, qr := range res.PerQuestion {
		index[qr.QuestionID] = i
	}
	for qid := range grades {
		if _, ok := index[qid]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
		}
	}
	for qid, g := range grades {
		i := index[qid]
		qr := &res.PerQuestion[i]
		if qr.Correctness != Ungradable && qr.GradedBy == "" {
			continue
		}
		pts := g.Points
		if pts < 0 {
			pts = 0
		}
		if pts > qr.Max {
			pts = qr.Max
		}
		qr.Awarded = pts
		qr.GradedBy = gradedBy
		switch {
		case pts == qr.Max && qr.Max > 0:
			qr.Correctness = Correct
		case pts > 0:
			qr.Correctness = Partial
		default:
			qr.Correctness = Incorrect
		}
	}
	aggregate(res)
	return nil
}
