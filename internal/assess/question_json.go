package assess

import (
	"encoding/json"
	"fmt"
)

// Questions persist as JSON documents with a "kind" discriminator; the store
// keeps whole tests in a doc_json column, so round-tripping must preserve the
// variant payload exactly.

type questionJSON struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required"`
	Points      int             `json:"points"`
	Explanation string          `json:"explanation,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

func (q *Question) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(q.payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionJSON{
		ID:          q.ID,
		Kind:        q.kind,
		Title:       q.Title,
		Description: q.Description,
		Required:    q.Required,
		Points:      q.Points,
		Explanation: q.Explanation,
		Tags:        q.Tags,
		Payload:     raw,
	})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	payload, err := decodePayload(in.Kind, in.Payload)
	if err != nil {
		return err
	}
	q.ID = in.ID
	q.Title = in.Title
	q.Description = in.Description
	q.Required = in.Required
	q.Points = in.Points
	q.Explanation = in.Explanation
	q.Tags = in.Tags
	q.kind = in.Kind
	q.payload = payload
	return nil
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch kind {
	case KindMCQ:
		var p MCQPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindMultiSelect:
		var p MultiSelectPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindShortAnswer:
		var p ShortAnswerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindLongAnswer:
		var p LongAnswerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindFillBlanks:
		var p FillBlanksPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindMatching:
		var p MatchingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindTrueFalse:
		var p TrueFalsePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindRanking:
		var p RankingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindScale:
		var p ScalePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindDate:
		var p DatePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindNumber:
		var p NumberPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown question kind %q", kind)
	}
}
