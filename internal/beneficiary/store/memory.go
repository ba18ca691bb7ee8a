package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"oncofeliz/internal/beneficiary/models"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
)

// InMemory keeps beneficiaries in maps. Code and case uniqueness are checked
// under the write lock.
type InMemory struct {
	mu     sync.RWMutex
	nextID id.BeneficiaryID
	byID   map[id.BeneficiaryID]*models.Beneficiary
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.BeneficiaryID]*models.Beneficiary)}
}

func (s *InMemory) Create(_ context.Context, b *models.Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.byID {
		if cur.CaseID == b.CaseID || cur.Code == b.Code {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.nextID++
	b.ID = s.nextID
	cp := *b
	s.byID[b.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemory) FindByCode(_ context.Context, code string) (*models.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.byID {
		if b.Code == code {
			cp := *b
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByCaseID(_ context.Context, caseID id.CaseID) (*models.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.byID {
		if b.CaseID == caseID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, f Filter) ([]*models.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Beneficiary, 0)
	for _, b := range s.byID {
		if f.matches(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.Status]int)
	for _, b := range s.byID {
		out[b.Status]++
	}
	return out, nil
}

func (s *InMemory) SetStatus(_ context.Context, beneficiaryID id.BeneficiaryID, status models.Status, at time.Time) (*models.Beneficiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	cp := *b
	return &cp, nil
}
