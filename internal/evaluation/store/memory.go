// Package store persists evaluations and score proposals.
package store

import (
	"context"
	"sync"

	"oncofeliz/internal/evaluation/models"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
)

// InMemory keeps at most one evaluation of each kind per case.
type InMemory struct {
	mu            sync.RWMutex
	social        map[id.CaseID]models.SocialEvaluation
	psychological map[id.CaseID]models.PsychologicalEvaluation
}

func NewInMemory() *InMemory {
	return &InMemory{
		social:        make(map[id.CaseID]models.SocialEvaluation),
		psychological: make(map[id.CaseID]models.PsychologicalEvaluation),
	}
}

func (s *InMemory) UpsertSocial(_ context.Context, ev *models.SocialEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.social[ev.CaseID] = *ev
	return nil
}

func (s *InMemory) UpsertPsychological(_ context.Context, ev *models.PsychologicalEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.psychological[ev.CaseID] = *ev
	return nil
}

func (s *InMemory) FindSocial(_ context.Context, caseID id.CaseID) (*models.SocialEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.social[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ev, nil
}

func (s *InMemory) FindPsychological(_ context.Context, caseID id.CaseID) (*models.PsychologicalEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.psychological[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ev, nil
}

func (s *InMemory) DeleteForCase(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.social, caseID)
	delete(s.psychological, caseID)
	return nil
}
