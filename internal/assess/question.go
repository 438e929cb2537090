package assess

// Kind discriminates the question variants. Each kind has exactly one payload
// type; a Question can never carry fields belonging to another kind.
type Kind string

const (
	KindMCQ         Kind = "mcq"
	KindMultiSelect Kind = "multi_select"
	KindShortAnswer Kind = "short_answer"
	KindLongAnswer  Kind = "long_answer"
	KindFillBlanks  Kind = "fill_blanks"
	KindMatching    Kind = "matching"
	KindTrueFalse   Kind = "true_false"
	KindRanking     Kind = "ranking"
	KindScale       Kind = "scale"
	KindDate        Kind = "date"
	KindNumber      Kind = "number"
)

// BlankMarker is the token counted as one blank in a fill-blanks template.
const BlankMarker = "___"

// Payload is the variant-specific part of a Question: options and answer key
// for choice questions, the template for fill-blanks, and so on. One
// implementation exists per Kind.
type Payload interface {
	Kind() Kind
}

type MCQPayload struct {
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"` // exactly one entry
}

func (MCQPayload) Kind() Kind { return KindMCQ }

type MultiSelectPayload struct {
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
}

func (MultiSelectPayload) Kind() Kind { return KindMultiSelect }

// ShortAnswerPayload has no machine-gradable key; ReferenceText is shown to a
// human grader.
type ShortAnswerPayload struct {
	ReferenceText string `json:"reference_text,omitempty"`
}

func (ShortAnswerPayload) Kind() Kind { return KindShortAnswer }

type LongAnswerPayload struct {
	ReferenceText string `json:"reference_text,omitempty"`
}

func (LongAnswerPayload) Kind() Kind { return KindLongAnswer }

// FillBlanksPayload aligns BlankAnswers positionally to the BlankMarker
// occurrences in Template. Each blank accepts any of its listed synonyms.
type FillBlanksPayload struct {
	Template     string     `json:"template"`
	BlankAnswers [][]string `json:"blank_answers"`
}

func (FillBlanksPayload) Kind() Kind { return KindFillBlanks }

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// MatchingPayload holds a partial injective matching: any left or right item
// appears in at most one pair.
type MatchingPayload struct {
	LeftItems  []string    `json:"left_items"`
	RightItems []string    `json:"right_items"`
	Pairs      []MatchPair `json:"pairs"`
}

func (MatchingPayload) Kind() Kind { return KindMatching }

type TrueFalsePayload struct {
	CorrectAnswer bool `json:"correct_answer"`
}

func (TrueFalsePayload) Kind() Kind { return KindTrueFalse }

type RankingPayload struct {
	Items        []string `json:"items"`
	CorrectOrder []string `json:"correct_order"` // permutation of Items
}

func (RankingPayload) Kind() Kind { return KindRanking }

// ScalePayload is ungradable unless Target is set.
type ScalePayload struct {
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	MinLabel  string `json:"min_label,omitempty"`
	MaxLabel  string `json:"max_label,omitempty"`
	Target    *int   `json:"target,omitempty"`
	Tolerance int    `json:"tolerance,omitempty"`
}

func (ScalePayload) Kind() Kind { return KindScale }

// DatePayload matches at day granularity; CorrectValue is "2006-01-02".
type DatePayload struct {
	CorrectValue  string `json:"correct_value"`
	ToleranceDays int    `json:"tolerance_days,omitempty"`
}

func (DatePayload) Kind() Kind { return KindDate }

type NumberPayload struct {
	CorrectValue float64 `json:"correct_value"`
	Tolerance    float64 `json:"tolerance,omitempty"`
}

func (NumberPayload) Kind() Kind { return KindNumber }

// Question is the tagged-variant entity. The payload is private so the only
// way to attach one is through NewQuestion or SetPayload, both of which
// enforce that the payload's kind matches the question's kind.
type Question struct {
	ID          string
	Title       string
	Description string
	Required    bool
	Points      int
	Explanation string
	Tags        []string

	kind    Kind
	payload Payload
}

// NewQuestion builds a question whose kind is fixed by the payload. The kind
// cannot be changed afterwards; build a new question to change type.
func NewQuestion(id, title string, points int, p Payload) (*Question, error) {
	if p == nil {
		return nil, ErrShapeMismatch
	}
	if points < 0 {
		return nil, ErrNegativePoints
	}
	return &Question{
		ID:      id,
		Title:   title,
		Points:  points,
		kind:    p.Kind(),
		payload: p,
	}, nil
}

func (q *Question) Kind() Kind       { return q.kind }
func (q *Question) Payload() Payload { return q.payload }

// SetPayload replaces the variant payload. A payload of a different kind is a
// shape mismatch; changing kind requires a new question.
func (q *Question) SetPayload(p Payload) error {
	if p == nil || p.Kind() != q.kind {
		return ErrShapeMismatch
	}
	q.payload = p
	return nil
}

// SetPoints rejects negative values. Totals are never stored, so no
// invalidation is needed here; AggregationEngine recomputes on demand.
func (q *Question) SetPoints(points int) error {
	if points < 0 {
		return ErrNegativePoints
	}
	q.Points = points
	return nil
}

// Clone deep-copies the question, payload included.
func (q *Question) Clone() *Question {
	cp := *q
	cp.Tags = append([]string(nil), q.Tags...)
	cp.payload = clonePayload(q.payload)
	return &cp
}

func clonePayload(p Payload) Payload {
	switch v := p.(type) {
	case MCQPayload:
		v.Options = append([]string(nil), v.Options...)
		v.CorrectAnswers = append([]string(nil), v.CorrectAnswers...)
		return v
	case MultiSelectPayload:
		v.Options = append([]string(nil), v.Options...)
		v.CorrectAnswers = append([]string(nil), v.CorrectAnswers...)
		return v
	case FillBlanksPayload:
		blanks := make([][]string, len(v.BlankAnswers))
		for i, b := range v.BlankAnswers {
			blanks[i] = append([]string(nil), b...)
		}
		v.BlankAnswers = blanks
		return v
	case MatchingPayload:
		v.LeftItems = append([]string(nil), v.LeftItems...)
		v.RightItems = append([]string(nil), v.RightItems...)
		v.Pairs = append([]MatchPair(nil), v.Pairs...)
		return v
	case RankingPayload:
		v.Items = append([]string(nil), v.Items...)
		v.CorrectOrder = append([]string(nil), v.CorrectOrder...)
		return v
	case ScalePayload:
		if v.Target != nil {
			t := *v.Target
			v.Target = &t
		}
		return v
	default:
		// Value types without slices copy fine as-is.
		return p
	}
}
