package delivery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/classforge/assessment-core/internal/assess"
)

var (
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrOutsideSchedule      = errors.New("outside scheduled window")
	// ErrDeadlineAlreadyPassed is informational: the submission is still
	// accepted and flagged late. Late-handling policy belongs to the caller.
	ErrDeadlineAlreadyPassed = errors.New("deadline already passed")
	ErrAlreadySubmitted      = errors.New("attempt already submitted")
)

// Ledger is the one shared mutable resource in the core: the per
// (learner, test) attempt counter. NextAttemptNumber must atomically
// check-and-increment so two concurrent starts cannot both slip past the
// limit; it returns ErrAttemptLimitExceeded once the limit is reached.
type Ledger interface {
	NextAttemptNumber(ctx context.Context, testID, learnerID string, limit int) (int, error)
}

// Attempt is one learner's try at a published test. It pins the test
// revision it was created from, so later edits never change what is graded.
type Attempt struct {
	ID            string         `json:"id"`
	TestID        string         `json:"test_id"`
	TestRevision  int            `json:"test_revision"`
	LearnerID     string         `json:"learner_id"`
	AttemptNumber int            `json:"attempt_number"`
	Seed          uint64         `json:"seed"`
	StartedAt     time.Time      `json:"started_at"`
	Deadline      time.Time      `json:"deadline"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	Late          bool           `json:"late"`
	Responses     map[string]any `json:"responses"` // questionID -> response payload
}

// Plan is the learner-facing ordering for an attempt: question order per
// section and, for choice questions, option order. Derived purely from the
// snapshot and the attempt seed, so it can be rebuilt at any time.
type Plan struct {
	Sections []SectionPlan `json:"sections"`
}

type SectionPlan struct {
	SectionID   string              `json:"section_id"`
	QuestionIDs []string            `json:"question_ids"`
	OptionOrder map[string][]string `json:"option_order,omitempty"`
}

// Engine creates attempts from published snapshots and applies the test's
// delivery settings. now is injectable for tests.
type Engine struct {
	ledger Ledger
	now    func() time.Time
}

func NewEngine(ledger Ledger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{ledger: ledger, now: now}
}

// Start creates an attempt for learnerID against the given snapshot. It
// enforces the scheduling window and the attempt limit; on success the
// attempt's deadline is fixed once and never moves.
func (e *Engine) Start(ctx context.Context, snap *assess.Test, learnerID string) (*Attempt, error) {
	if snap.Status != assess.StatusPublished {
		return nil, fmt.Errorf("test %s is not published", snap.ID)
	}
	now := e.now()
	set := snap.Settings
	if set.ScheduledStart != nil && now.Before(*set.ScheduledStart) {
		return nil, ErrOutsideSchedule
	}
	if set.ScheduledEnd != nil && now.After(*set.ScheduledEnd) {
		return nil, ErrOutsideSchedule
	}

	n, err := e.ledger.NextAttemptNumber(ctx, snap.ID, learnerID, set.LimitAttempts)
	if err != nil {
		return nil, err
	}

	deadline := now.Add(time.Duration(assess.EffectiveDurationMinutes(snap)) * time.Minute)
	if set.ScheduledEnd != nil && deadline.After(*set.ScheduledEnd) {
		deadline = *set.ScheduledEnd
	}

	return &Attempt{
		ID:            uuid.NewString(),
		TestID:        snap.ID,
		TestRevision:  snap.Revision,
		LearnerID:     learnerID,
		AttemptNumber: n,
		Seed:          Seed(snap.ID, learnerID, strconv.Itoa(n)),
		StartedAt:     now,
		Deadline:      deadline,
		Responses:     map[string]any{},
	}, nil
}

// PlanFor computes the attempt's ordering from the snapshot and seed. Calling
// it twice yields byte-identical output; that is what makes an in-progress
// attempt resumable after a reload.
func (e *Engine) PlanFor(snap *assess.Test, a *Attempt) Plan {
	plan := Plan{Sections: make([]SectionPlan, 0, len(snap.Sections))}
	for si, sec := range snap.Sections {
		sp := SectionPlan{SectionID: sec.ID}
		order := make([]int, len(sec.Questions))
		for i := range order {
			order[i] = i
		}
		if snap.Settings.ShuffleQuestions {
			order = permutation(len(sec.Questions), questionSeed(a.Seed, "section:"+sec.ID+":"+strconv.Itoa(si)))
		}
		for _, qi := range order {
			q := sec.Questions[qi]
			sp.QuestionIDs = append(sp.QuestionIDs, q.ID)
			if !snap.Settings.ShuffleOptions {
				continue
			}
			if opts := choiceOptions(q); opts != nil {
				if sp.OptionOrder == nil {
					sp.OptionOrder = map[string][]string{}
				}
				sp.OptionOrder[q.ID] = shuffleStrings(opts, questionSeed(a.Seed, q.ID))
			}
		}
		plan.Sections = append(plan.Sections, sp)
	}
	return plan
}

// SaveResponses merges partial responses into an in-progress attempt.
// Saving after submission is rejected; saving after the deadline is allowed
// (the late flag is settled at submit time).
func (e *Engine) SaveResponses(a *Attempt, responses map[string]any) error {
	if a.SubmittedAt != nil {
		return ErrAlreadySubmitted
	}
	if a.Responses == nil {
		a.Responses = map[string]any{}
	}
	for k, v := range responses {
		a.Responses[k] = v
	}
	return nil
}

// Submit finalizes the attempt. A submission past the deadline is accepted
// and flagged late; the returned ErrDeadlineAlreadyPassed is informational
// and accompanies a fully submitted attempt.
func (e *Engine) Submit(a *Attempt) error {
	if a.SubmittedAt != nil {
		return ErrAlreadySubmitted
	}
	now := e.now()
	a.SubmittedAt = &now
	if now.After(a.Deadline) {
		a.Late = true
		return ErrDeadlineAlreadyPassed
	}
	return nil
}

func choiceOptions(q *assess.Question) []string {
	switch p := q.Payload().(type) {
	case assess.MCQPayload:
		return p.Options
	case assess.MultiSelectPayload:
		return p.Options
	default:
		return nil
	}
}
