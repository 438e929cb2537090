package grading

import (
	"context"

	"github.com/classforge/assessment-core/internal/assess"
)

type mcqStrategy struct{}

func (mcqStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.MCQPayload)
	if !ok || len(p.CorrectAnswers) != 1 {
		res.Correctness = Ungradable
		return res
	}
	sel, ok := toString(response)
	if !ok {
		return res
	}
	if sel == p.CorrectAnswers[0] {
		res.Awarded = q.Points
		res.Correctness = Correct
	}
	return res
}

type multiSelectStrategy struct{ allowPartial bool }

func (s multiSelectStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.MultiSelectPayload)
	if !ok || len(p.CorrectAnswers) == 0 {
		res.Correctness = Ungradable
		return res
	}
	sel, ok := toStringSlice(response)
	if !ok {
		return res
	}
	correct := toSet(p.CorrectAnswers)
	chosen := toSet(sel)
	if setEqual(correct, chosen) {
		res.Awarded = q.Points
		res.Correctness = Correct
		return res
	}
	if !s.allowPartial {
		return res
	}
	// Partial credit: count hits, but any false positive voids the credit.
	hits := 0
	for c := range chosen {
		if !correct[c] {
			return res
		}
		hits++
	}
	if hits > 0 {
		res.Awarded = q.Points * hits / len(correct)
		res.Correctness = Partial
	}
	return res
}

type manualStrategy struct{}

func (manualStrategy) Grade(_ context.Context, q *assess.Question, _ any) QuestionResult {
	// Open-ended answers always go to a human grader.
	return QuestionResult{Correctness: Ungradable}
}

type fillBlanksStrategy struct{}

func (fillBlanksStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.FillBlanksPayload)
	if !ok || len(p.BlankAnswers) == 0 {
		res.Correctness = Ungradable
		return res
	}
	answers, ok := toStringSlice(response)
	if !ok {
		return res
	}
	matched := 0
	for i, accepted := range p.BlankAnswers {
		if i >= len(answers) {
			break
		}
		got := normalize(answers[i])
		for _, a := range accepted {
			if normalize(a) == got {
				matched++
				break
			}
		}
	}
	total := len(p.BlankAnswers)
	res.Awarded = q.Points * matched / total
	switch {
	case matched == total:
		res.Correctness = Correct
	case matched > 0:
		res.Correctness = Partial
	}
	return res
}

type matchingStrategy struct{}

func (matchingStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.MatchingPayload)
	if !ok || len(p.Pairs) == 0 {
		res.Correctness = Ungradable
		return res
	}
	submitted, ok := toStringMap(response)
	if !ok {
		return res
	}
	correct := 0
	for _, pair := range p.Pairs {
		if submitted[pair.Left] == pair.Right {
			correct++
		}
	}
	total := len(p.Pairs)
	res.Awarded = q.Points * correct / total
	switch {
	case correct == total:
		res.Correctness = Correct
	case correct > 0:
		res.Correctness = Partial
	}
	return res
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.TrueFalsePayload)
	if !ok {
		res.Correctness = Ungradable
		return res
	}
	b, ok := toBool(response)
	if !ok {
		return res
	}
	if b == p.CorrectAnswer {
		res.Awarded = q.Points
		res.Correctness = Correct
	}
	return res
}

type rankingStrategy struct{ allowPartial bool }

func (s rankingStrategy) Grade(_ context.Context, q *assess.Question, response any) QuestionResult {
	res := QuestionResult{Correctness: Incorrect}
	p, ok := q.Payload().(assess.RankingPayload)
	if !ok || len(p.CorrectOrder) == 0 {
		res.Correctness = Ungradable
		return res
	}
	order, ok := toStringSlice(response)
	if !ok || len(order) != len(p.CorrectOrder) {
		return res
	}
	hits := 0
	for i, item := range order {
		if item == p.CorrectOrder[i] {
			hits++
		}
	}
	if hits == len(p.CorrectOrder) {
		res.Awarded = q.Points
		res.Correctness = Correct
		return res
	}
	if s.allowPartial && hits > 0 {
		res.Awarded = q.Points * hits / len(p.CorrectOrder)
		res.Correctness = Partial
	}
	return res
}
