package assess

import (
	"time"
)

// Status is the authoring lifecycle. Transitions are one-directional:
// Draft -> Published -> Archived. A published test never mutates; edits go
// into a new draft revision so in-progress attempts keep their snapshot.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Settings are the delivery-time knobs an author configures on a test.
type Settings struct {
	DurationMinutes        int        `json:"duration_minutes"`
	PassingScore           int        `json:"passing_score"` // percent of total points
	ShuffleQuestions       bool       `json:"shuffle_questions"`
	ShuffleOptions         bool       `json:"shuffle_options"`
	ShowResultsImmediately bool       `json:"show_results_immediately"`
	AllowReview            bool       `json:"allow_review"`
	RequireLogin           bool       `json:"require_login"`
	LimitAttempts          int        `json:"limit_attempts"`
	ScheduledStart         *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd           *time.Time `json:"scheduled_end,omitempty"`
	TimePerQuestionSec     int        `json:"time_per_question_sec,omitempty"`
	PreventCopyPaste       bool       `json:"prevent_copy_paste"`
	FullScreenMode         bool       `json:"full_screen_mode"`
	RandomizeOrder         bool       `json:"randomize_order"`
}

// DefaultSettings are applied by NewTest; authors adjust from there.
func DefaultSettings() Settings {
	return Settings{
		DurationMinutes: 60,
		PassingScore:    50,
		LimitAttempts:   1,
	}
}

type Section struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Questions   []*Question `json:"questions"` // authoring order; delivery may shuffle a copy
}

func (s *Section) Clone() *Section {
	cp := &Section{ID: s.ID, Title: s.Title, Description: s.Description}
	cp.Questions = make([]*Question, len(s.Questions))
	for i, q := range s.Questions {
		cp.Questions[i] = q.Clone()
	}
	return cp
}

// Test is the authored assessment document. TotalPoints is deliberately not a
// field: it is always recomputed via TotalPoints(t) so it can never drift.
type Test struct {
	ID           string     `json:"id"`
	Revision     int        `json:"revision"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	Sections     []*Section `json:"sections"`
	Settings     Settings   `json:"settings"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

func NewTest(id, title string, now time.Time) *Test {
	return &Test{
		ID:        id,
		Revision:  1,
		Title:     title,
		Settings:  DefaultSettings(),
		Status:    StatusDraft,
		CreatedAt: now,
	}
}

func (t *Test) mutable() error {
	if t.Status != StatusDraft {
		return ErrImmutableField
	}
	return nil
}

func (t *Test) AddSection(s *Section) error {
	if err := t.mutable(); err != nil {
		return err
	}
	t.Sections = append(t.Sections, s)
	return nil
}

func (t *Test) RemoveSection(sectionID string) error {
	if err := t.mutable(); err != nil {
		return err
	}
	for i, s := range t.Sections {
		if s.ID == sectionID {
			t.Sections = append(t.Sections[:i], t.Sections[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (t *Test) AddQuestion(sectionID string, q *Question) error {
	if err := t.mutable(); err != nil {
		return err
	}
	for _, s := range t.Sections {
		if s.ID == sectionID {
			s.Questions = append(s.Questions, q)
			return nil
		}
	}
	return ErrNotFound
}

func (t *Test) RemoveQuestion(questionID string) error {
	if err := t.mutable(); err != nil {
		return err
	}
	for _, s := range t.Sections {
		for i, q := range s.Questions {
			if q.ID == questionID {
				s.Questions = append(s.Questions[:i], s.Questions[i+1:]...)
				return nil
			}
		}
	}
	return ErrNotFound
}

// Question finds a question by ID across all sections.
func (t *Test) Question(questionID string) (*Question, bool) {
	for _, s := range t.Sections {
		for _, q := range s.Questions {
			if q.ID == questionID {
				return q, true
			}
		}
	}
	return nil, false
}

func (t *Test) SetSettings(s Settings) error {
	if err := t.mutable(); err != nil {
		return err
	}
	t.Settings = s
	return nil
}

// Clone deep-copies the whole document. Publish uses it to freeze snapshots.
func (t *Test) Clone() *Test {
	cp := *t
	cp.Sections = make([]*Section, len(t.Sections))
	for i, s := range t.Sections {
		cp.Sections[i] = s.Clone()
	}
	if t.Settings.ScheduledStart != nil {
		v := *t.Settings.ScheduledStart
		cp.Settings.ScheduledStart = &v
	}
	if t.Settings.ScheduledEnd != nil {
		v := *t.Settings.ScheduledEnd
		cp.Settings.ScheduledEnd = &v
	}
	if t.PublishedAt != nil {
		v := *t.PublishedAt
		cp.PublishedAt = &v
	}
	return &cp
}

// Publish validates the draft and returns the frozen snapshot that delivery
// and grading will use. The returned copy is Published at the draft's
// revision; the receiver itself transitions to Published and rejects further
// mutation. On validation failure nothing changes and the error carries the
// full issue list.
func (t *Test) Publish(now time.Time) (*Test, error) {
	if t.Status != StatusDraft {
		return nil, ErrImmutableField
	}
	if issues := Validate(t); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	t.Status = StatusPublished
	t.PublishedAt = &now
	return t.Clone(), nil
}

// NewRevision derives the next editable draft from a published or archived
// test. The original keeps serving existing attempts.
func (t *Test) NewRevision() *Test {
	cp := t.Clone()
	cp.Revision = t.Revision + 1
	cp.Status = StatusDraft
	cp.PublishedAt = nil
	return cp
}

func (t *Test) Archive() error {
	if t.Status != StatusPublished {
		return ErrImmutableField
	}
	t.Status = StatusArchived
	return nil
}

// StripAnswerKeys blanks every answer key in place. Learner-facing copies go
// through this before serving, same as hiding keys on exam fetch.
func (t *Test) StripAnswerKeys() {
	for _, s := range t.Sections {
		for _, q := range s.Questions {
			switch p := q.payload.(type) {
			case MCQPayload:
				p.CorrectAnswers = nil
				q.payload = p
			case MultiSelectPayload:
				p.CorrectAnswers = nil
				q.payload = p
			case ShortAnswerPayload:
				p.ReferenceText = ""
				q.payload = p
			case LongAnswerPayload:
				p.ReferenceText = ""
				q.payload = p
			case FillBlanksPayload:
				p.BlankAnswers = nil
				q.payload = p
			case MatchingPayload:
				p.Pairs = nil
				q.payload = p
			case TrueFalsePayload:
				q.payload = TrueFalsePayload{}
			case RankingPayload:
				p.CorrectOrder = nil
				q.payload = p
			case ScalePayload:
				p.Target = nil
				p.Tolerance = 0
				q.payload = p
			case DatePayload:
				q.payload = DatePayload{}
			case NumberPayload:
				q.payload = NumberPayload{}
			}
			q.Explanation = ""
		}
	}
}
