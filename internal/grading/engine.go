package grading

import (
	"context"

	"github.com/classforge/assessment-core/internal/assess"
	"github.com/classforge/assessment-core/internal/delivery"
)

// Correctness is the per-question outcome. Ungradable means automatic scoring
// cannot decide (open-ended answers, scale without a target) and a human
// grader has to supply points.
type Correctness string

const (
	Correct    Correctness = "correct"
	Partial    Correctness = "partial"
	Incorrect  Correctness = "incorrect"
	Ungradable Correctness = "ungradable"
)

// QuestionResult is the outcome of grading a single response.
type QuestionResult struct {
	QuestionID  string      `json:"question_id"`
	Awarded     int         `json:"awarded"`
	Max         int         `json:"max"`
	Correctness Correctness `json:"correctness"`
	GradedBy    string      `json:"graded_by,omitempty"` // set on manual grades
}

// Result aggregates an attempt's grading. TotalPossible counts only questions
// with a settled score, so Percentage stays provisional while
// HasPendingManualGrading is true; Passed is only meaningful once it clears.
type Result struct {
	AttemptID               string           `json:"attempt_id"`
	PerQuestion             []QuestionResult `json:"per_question"`
	TotalAwarded            int              `json:"total_awarded"`
	TotalPossible           int              `json:"total_possible"`
	Percentage              float64          `json:"percentage"`
	Passed                  bool             `json:"passed"`
	HasPendingManualGrading bool             `json:"has_pending_manual_grading"`
	Late                    bool             `json:"late"`
	PassingScore            int              `json:"passing_score"`
}

// Strategy grades one question variant. Malformed or missing responses are
// never an error: they score Incorrect (Ungradable for open-ended kinds) so a
// single bad response cannot block the whole result.
type Strategy interface {
	Grade(ctx context.Context, q *assess.Question, response any) QuestionResult
}

// Engine routes by question kind to the matching strategy. Grading is pure:
// same attempt and snapshot in, same result out, every time.
type Engine struct {
	strategies map[assess.Kind]Strategy
}

type Option func(*config)

type config struct {
	PartialMultiSelect bool
	PartialRanking     bool
}

// WithPartialMultiSelect awards floor(points * hits / |key|) when the
// selection has no false positives. Off by default: exact match only.
func WithPartialMultiSelect(b bool) Option { return func(c *config) { c.PartialMultiSelect = b } }

// WithPartialRanking awards floor(points * exact-position hits / n).
// Off by default: exact sequence only.
func WithPartialRanking(b bool) Option { return func(c *config) { c.PartialRanking = b } }

func NewEngine(opts ...Option) *Engine {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &Engine{
		strategies: map[assess.Kind]Strategy{
			assess.KindMCQ:         mcqStrategy{},
			assess.KindMultiSelect: multiSelectStrategy{allowPartial: cfg.PartialMultiSelect},
			assess.KindShortAnswer: manualStrategy{},
			assess.KindLongAnswer:  manualStrategy{},
			assess.KindFillBlanks:  fillBlanksStrategy{},
			assess.KindMatching:    matchingStrategy{},
			assess.KindTrueFalse:   trueFalseStrategy{},
			assess.KindRanking:     rankingStrategy{allowPartial: cfg.PartialRanking},
			assess.KindScale:       scaleStrategy{},
			assess.KindDate:        dateStrategy{},
			assess.KindNumber:      numberStrategy{},
		},
	}
}

// GradeQuestion scores one response. Unknown kinds fall back to Ungradable.
func (e *Engine) GradeQuestion(ctx context.Context, q *assess.Question, response any) QuestionResult {
	s, ok := e.strategies[q.Kind()]
	if !ok {
		return QuestionResult{QuestionID: q.ID, Max: q.Points, Correctness: Ungradable}
	}
	res := s.Grade(ctx, q, response)
	res.QuestionID = q.ID
	res.Max = q.Points
	return res
}

// GradeAttempt grades every question in the snapshot against the attempt's
// responses and aggregates. Idempotent and deterministic.
func (e *Engine) GradeAttempt(ctx context.Context, snap *assess.Test, a *delivery.Attempt) *Result {
	res := &Result{
		AttemptID:    a.ID,
		Late:         a.Late,
		PassingScore: snap.Settings.PassingScore,
	}
	for _, sec := range snap.Sections {
		for _, q := range sec.Questions {
			qr := e.GradeQuestion(ctx, q, a.Responses[q.ID])
			res.PerQuestion = append(res.PerQuestion, qr)
		}
	}
	aggregate(res)
	return res
}

// aggregate recomputes the test-level figures from PerQuestion. Ungradable
// entries count zero awarded and are excluded from TotalPossible until a
// manual grade settles them.
func aggregate(res *Result) {
	res.TotalAwarded = 0
	res.TotalPossible = 0
	res.HasPendingManualGrading = false
	for _, qr := range res.PerQuestion {
		if qr.Correctness == Ungradable {
			res.HasPendingManualGrading = true
			continue
		}
		res.TotalAwarded += qr.Awarded
		res.TotalPossible += qr.Max
	}
	if res.TotalPossible > 0 {
		res.Percentage = 100 * float64(res.TotalAwarded) / float64(res.TotalPossible)
	} else {
		res.Percentage = 0
	}
	res.Passed = !res.HasPendingManualGrading && res.Percentage >= float64(res.PassingScore)
}
