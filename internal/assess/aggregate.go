package assess

// Totals are never cached on the document; these are invoked after every
// structural mutation so a stored figure can never go stale.

// TotalPoints sums question points across every section.
func TotalPoints(t *Test) int {
	total := 0
	for _, s := range t.Sections {
		total += SectionPoints(s)
	}
	return total
}

// SectionPoints sums question points within one section.
func SectionPoints(s *Section) int {
	total := 0
	for _, q := range s.Questions {
		total += q.Points
	}
	return total
}

// QuestionCount reports how many questions the test carries, for effective
// duration derived from time_per_question_sec.
func QuestionCount(t *Test) int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Questions)
	}
	return n
}

// EffectiveDurationMinutes resolves the timing settings to a single figure:
// the per-question budget wins when it is stricter than the overall duration.
func EffectiveDurationMinutes(t *Test) int {
	d := t.Settings.DurationMinutes
	if t.Settings.TimePerQuestionSec > 0 {
		perQ := (t.Settings.TimePerQuestionSec*QuestionCount(t) + 59) / 60
		if perQ > 0 && perQ < d {
			return perQ
		}
	}
	return d
}
