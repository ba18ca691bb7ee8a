package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"oncofeliz/internal/cases/models"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
)

// InMemory keeps cases in a map. Uniqueness of guardian and child CI among
// non-rejected cases is checked under the same lock as the write.
type InMemory struct {
	mu     sync.RWMutex
	nextID id.CaseID
	cases  map[id.CaseID]*models.Case
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]*models.Case)}
}

func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ciTaken(c, 0) {
		return sentinel.ErrAlreadyUsed
	}
	s.nextID++
	c.ID = s.nextID
	s.cases[c.ID] = clone(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemory) List(_ context.Context, f Filter) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Case, 0)
	for _, c := range s.cases {
		if f.matches(c) {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *InMemory) CountByStatus(_ context.Context, createdBy id.UserID) (map[models.CaseStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.CaseStatus]int)
	f := Filter{CreatedBy: createdBy}
	for _, c := range s.cases {
		if f.matches(c) {
			counts[c.Status]++
		}
	}
	return counts, nil
}

func (s *InMemory) UpdateRegistration(_ context.Context, c *models.Case, from []models.CaseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(from, cur.Status) {
		return sentinel.ErrInvalidState
	}
	if s.ciTaken(c, c.ID) {
		return sentinel.ErrAlreadyUsed
	}
	next := clone(cur)
	next.ChildName = c.ChildName
	next.BirthDate = c.BirthDate
	next.ChildCI = c.ChildCI
	next.Diagnosis = c.Diagnosis
	next.Guardian = c.Guardian
	next.UpdatedAt = c.UpdatedAt
	s.cases[c.ID] = next
	return nil
}

func (s *InMemory) Transition(_ context.Context, t Transition) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cases[t.CaseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !slices.Contains(t.sources(), cur.Status) {
		return nil, sentinel.ErrInvalidState
	}
	next := clone(cur)
	next.Status = t.To
	if t.To == models.StatusRejected {
		next.RejectionReason = t.RejectionReason
	}
	next.UpdatedAt = t.At
	s.cases[t.CaseID] = next
	return clone(next), nil
}

func (s *InMemory) LockStatus(_ context.Context, caseID id.CaseID, allowed []models.CaseStatus) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(allowed, cur.Status) {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *InMemory) Delete(_ context.Context, caseID id.CaseID, from []models.CaseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(from, cur.Status) {
		return sentinel.ErrInvalidState
	}
	delete(s.cases, caseID)
	return nil
}

// ciTaken reports whether another live case already uses c's CIs.
func (s *InMemory) ciTaken(c *models.Case, self id.CaseID) bool {
	for _, other := range s.cases {
		if other.ID == self || other.Status == models.StatusRejected {
			continue
		}
		if other.Guardian.CI == c.Guardian.CI {
			return true
		}
		if c.ChildCI != "" && other.ChildCI == c.ChildCI {
			return true
		}
	}
	return false
}

func clone(c *models.Case) *models.Case {
	cp := *c
	return &cp
}
