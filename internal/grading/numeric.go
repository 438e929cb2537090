package grading

import (
	"context"
	"math"
	"time"

	"github.com/classforge/assessment-core/internal/assess"
)

// Tolerance-based variants: number (absolute epsilon), date (day window),
// scale (integer window around an optional target). All-or-nothing: within
// tolerance is full points, outside is zero.

type numberStrategy struct{}

func (numberStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.NumberPayload)
	if !ok {
		res.Correctness = Ungradable
		return res
	}
	v, ok := toFloat(response)
	if !ok {
		return res
	}
	if math.Abs(v-p.CorrectValue) <= p.Tolerance {
		res.Awarded = q.Points
		res.Correctness = Correct
	}
	return res
}

type dateStrategy struct{}

func (dateStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.DatePayload)
	if !ok {
		res.Correctness = Ungradable
		return res
	}
	want, err := time.ParseInLocation("2006-01-02", p.CorrectValue, time.UTC)
	if err != nil {
		res.Correctness = Ungradable
		return res
	}
	s, ok := toString(response)
	if !ok {
		return res
	}
	got, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return res
	}
	days := int(math.Abs(got.Sub(want).Hours()) / 24)
	if days <= p.ToleranceDays {
		res.Awarded = q.Points
		res.Correctness = Correct
	}
	return res
}

type scaleStrategy struct{}

func (scaleStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	p, ok := q.Payload().(assess.ScalePayload)
	if !ok || p.Target == nil {
		// No configured target: the scale is a survey item, not gradable.
		return QuestionResult{Correctness: Ungradable}
	}
	res := QuestionResult{Correctness: Incorrect}
	v, ok := toFloat(response)
	if !ok {
		return res
	}
	iv := int(math.Round(v))
	if v != math.Trunc(v) || iv < p.Min || iv > p.Max {
		return res
	}
	if abs(iv-*p.Target) <= p.Tolerance {
		res.Awarded = q.Points
		res.Correctness = Correct
	}
	return res
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
