package assess

import (
	"errors"
	"fmt"
	"strings"
)

// All failures here are caller-recoverable: the author fixes the test, the
// learner retries within limits. None abort the process.
var (
	ErrShapeMismatch    = errors.New("payload kind does not match question kind")
	ErrImmutableField   = errors.New("field is immutable")
	ErrNegativePoints   = errors.New("points must be >= 0")
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
)

// IssueKind classifies a single validation finding.
type IssueKind string

const (
	IssueEmptyTitle       IssueKind = "empty_title"
	IssueNegativePoints   IssueKind = "negative_points"
	IssueTooFewOptions    IssueKind = "too_few_options"
	IssueEmptyOption      IssueKind = "empty_option"
	IssueDuplicateOption  IssueKind = "duplicate_option"
	IssueBadAnswerKey     IssueKind = "bad_answer_key"
	IssueBlankMismatch    IssueKind = "blank_mismatch"
	IssueEmptyBlankKey    IssueKind = "empty_blank_key"
	IssueUnknownItem      IssueKind = "unknown_item"
	IssueDuplicatePairing IssueKind = "duplicate_pairing"
	IssueNotPermutation   IssueKind = "not_permutation"
	IssueBadScaleBounds   IssueKind = "bad_scale_bounds"
	IssueBadValue         IssueKind = "bad_value"
	IssueNoSections       IssueKind = "no_sections"
	IssueEmptySection     IssueKind = "empty_section"
	IssueDuplicateID      IssueKind = "duplicate_id"
	IssueBadSchedule      IssueKind = "bad_schedule"
	IssueBadDuration      IssueKind = "bad_duration"
	IssueBadAttemptLimit  IssueKind = "bad_attempt_limit"
	IssueBadPassingScore  IssueKind = "bad_passing_score"
)

// Issue pins one validation failure to its location, e.g.
// "sections[1].questions[3]".
type Issue struct {
	Location string    `json:"location"`
	Kind     IssueKind `json:"kind"`
	Message  string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Location, i.Message, i.Kind)
}

// ValidationError carries the ordered issue list produced by Validate.
// errors.Is(err, ErrValidationFailed) matches it.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }
