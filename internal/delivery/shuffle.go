package delivery

import "hash/fnv"

// Deterministic shuffling. Attempts must re-render identically after a page
// reload, so ordering is derived from an explicit seed rather than ambient
// randomness. The generator is splitmix64: tiny state, full 64-bit period,
// and stable output for a given seed on every platform.

type splitmix struct{ state uint64 }

func (s *splitmix) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Seed folds the identifying strings (test id, learner id, attempt number)
// into a single 64-bit seed via FNV-1a.
func Seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// questionSeed derives an independent stream per question so reshuffling one
// question's options never perturbs another's.
func questionSeed(seed uint64, questionID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(questionID))
	s := splitmix{state: seed ^ h.Sum64()}
	return s.next()
}

// permutation returns a Fisher-Yates shuffle of [0,n) driven by seed.
// Same seed, same order, always.
func permutation(n int, seed uint64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := splitmix{state: seed}
	for i := n - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

func shuffleStrings(items []string, seed uint64) []string {
	out := make([]string, len(items))
	for i, j := range permutation(len(items), seed) {
		out[i] = items[j]
	}
	return out
}
