package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/classforge/assessment-core/internal/assess"
	"github.com/classforge/assessment-core/internal/delivery"
	"github.com/classforge/assessment-core/internal/grading"
)

// AttemptListOpts filters attempt listings for dashboards.
type AttemptListOpts struct {
	TestID    string
	LearnerID string
	Submitted *bool
	Limit     int
	Offset    int
}

// Store persists test documents (keyed id+revision), attempts (keyed
// learner+test+number) and results (keyed by attempt). It also owns the
// attempt-count ledger used by the delivery engine.
type Store interface {
	delivery.Ledger

	PutTest(ctx context.Context, t *assess.Test) error
	GetTest(ctx context.Context, id string) (*assess.Test, error) // latest revision, any status
	GetTestRevision(ctx context.Context, id string, revision int) (*assess.Test, error)
	// GetLatestPublished resolves the newest published revision, skipping any
	// draft revisions stored after it. Learner-facing reads go through this so
	// deriving a new draft never takes the live test offline.
	GetLatestPublished(ctx context.Context, id string) (*assess.Test, error)

	PutAttempt(ctx context.Context, a *delivery.Attempt) error
	UpdateAttempt(ctx context.Context, a *delivery.Attempt) error
	GetAttempt(ctx context.Context, id string) (*delivery.Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]*delivery.Attempt, error)

	PutResult(ctx context.Context, r *grading.Result) error
	GetResult(ctx context.Context, attemptID string) (*grading.Result, error)
}

type memoryStore struct {
	mu       sync.Mutex
	tests    map[string]map[int]*assess.Test // id -> revision -> doc
	latest   map[string]int
	attempts map[string]*delivery.Attempt
	counts   map[string]int // testID|learnerID -> attempts created
	results  map[string]*grading.Result
}

// NewMemoryStore backs the engines with plain maps; used by tests and the
// offline single-process mode.
func NewMemoryStore() Store {
	return &memoryStore{
		tests:    map[string]map[int]*assess.Test{},
		latest:   map[string]int{},
		attempts: map[string]*delivery.Attempt{},
		counts:   map[string]int{},
		results:  map[string]*grading.Result{},
	}
}

func (m *memoryStore) PutTest(_ context.Context, t *assess.Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	revs, ok := m.tests[t.ID]
	if !ok {
		revs = map[int]*assess.Test{}
		m.tests[t.ID] = revs
	}
	revs[t.Revision] = t.Clone()
	if t.Revision > m.latest[t.ID] {
		m.latest[t.ID] = t.Revision
	}
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (*assess.Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rev, ok := m.latest[id]
	if !ok {
		return nil, assess.ErrNotFound
	}
	return m.tests[id][rev].Clone(), nil
}

func (m *memoryStore) GetTestRevision(_ context.Context, id string, revision int) (*assess.Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id][revision]
	if !ok {
		return nil, assess.ErrNotFound
	}
	return t.Clone(), nil
}

func (m *memoryStore) GetLatestPublished(_ context.Context, id string) (*assess.Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := 0
	for rev, t := range m.tests[id] {
		if t.Status == assess.StatusPublished && rev > best {
			best = rev
		}
	}
	if best == 0 {
		return nil, assess.ErrNotFound
	}
	return m.tests[id][best].Clone(), nil
}

// NextAttemptNumber is the check-and-increment gate behind limitAttempts.
// The count bumps under the same lock as the check, so two concurrent starts
// can never both pass a limit with one slot left.
func (m *memoryStore) NextAttemptNumber(_ context.Context, testID, learnerID string, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := testID + "|" + learnerID
	if limit >= 1 && m.counts[key] >= limit {
		return 0, delivery.ErrAttemptLimitExceeded
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryStore) PutAttempt(_ context.Context, a *delivery.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.attempts[a.ID]; exists {
		return fmt.Errorf("attempt %s already exists", a.ID)
	}
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryStore) UpdateAttempt(_ context.Context, a *delivery.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; !ok {
		return assess.ErrNotFound
	}
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (*delivery.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, assess.ErrNotFound
	}
	return cloneAttempt(a), nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]*delivery.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*delivery.Attempt
	for _, a := range m.attempts {
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		if opts.LearnerID != "" && a.LearnerID != opts.LearnerID {
			continue
		}
		if opts.Submitted != nil && (a.SubmittedAt != nil) != *opts.Submitted {
			continue
		}
		out = append(out, cloneAttempt(a))
	}
	// Same contract as the SQL store: newest first, then paging.
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) PutResult(_ context.Context, r *grading.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.PerQuestion = append([]grading.QuestionResult(nil), r.PerQuestion...)
	m.results[r.AttemptID] = &cp
	return nil
}

func (m *memoryStore) GetResult(_ context.Context, attemptID string) (*grading.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[attemptID]
	if !ok {
		return nil, assess.ErrNotFound
	}
	cp := *r
	cp.PerQuestion = append([]grading.QuestionResult(nil), r.PerQuestion...)
	return &cp, nil
}

func cloneAttempt(a *delivery.Attempt) *delivery.Attempt {
	cp := *a
	cp.Responses = make(map[string]any, len(a.Responses))
	for k, v := range a.Responses {
		cp.Responses[k] = v
	}
	if a.SubmittedAt != nil {
		v := *a.SubmittedAt
		cp.SubmittedAt = &v
	}
	return &cp
}
