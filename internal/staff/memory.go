package staff

import (
	"context"
	"sort"
	"sync"

	"oncofeliz/internal/authz"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
)

// InMemory is a Store backed by a map, used by tests and the memory profile.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.UserID]*Member
}

func NewInMemory(members ...*Member) *InMemory {
	s := &InMemory{members: make(map[id.UserID]*Member)}
	for _, m := range members {
		s.Put(m)
	}
	return s
}

// Put inserts or replaces a member.
func (s *InMemory) Put(m *Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.members[m.ID] = &cp
}

func (s *InMemory) FindByID(_ context.Context, memberID id.UserID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemory) ListByRole(_ context.Context, role authz.Role) ([]*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Member
	for _, m := range s.members {
		if m.Role == role && m.Active {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
