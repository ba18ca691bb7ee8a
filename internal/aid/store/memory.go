package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"oncofeliz/internal/aid/models"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
)

// InMemory keeps aid requests in a map. Status checks and writes happen under
// one lock.
type InMemory struct {
	mu     sync.RWMutex
	nextID id.AidRequestID
	byID   map[id.AidRequestID]*models.AidRequest
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.AidRequestID]*models.AidRequest)}
}

func (s *InMemory) Create(_ context.Context, r *models.AidRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.byID {
		if cur.Code == r.Code {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.nextID++
	r.ID = s.nextID
	s.byID[r.ID] = clone(r)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.AidRequestID) (*models.AidRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

// List orders by priority, then newest first.
func (s *InMemory) List(_ context.Context, f Filter) ([]*models.AidRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AidRequest, 0)
	for _, r := range s.byID {
		if f.matches(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].Priority.Rank(), out[j].Priority.Rank(); a != b {
			return a > b
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemory) Totals(_ context.Context, requestedBy id.UserID) (*Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := &Totals{Counts: make(map[models.Status]int)}
	for _, r := range s.byID {
		if !requestedBy.IsZero() && r.RequestedBy != requestedBy {
			continue
		}
		t.Counts[r.Status]++
		if r.Status != models.StatusDelivered {
			continue
		}
		if r.EstimatedCost != nil {
			t.EstimatedDelivered += *r.EstimatedCost
		}
		if r.RealCost != nil {
			t.RealDelivered += *r.RealCost
		}
	}
	return t, nil
}

func (s *InMemory) Transition(_ context.Context, t Transition) (*models.AidRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[t.RequestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !slices.Contains(t.From, cur.Status) {
		return nil, sentinel.ErrInvalidState
	}
	next := clone(cur)
	t.apply(next)
	s.byID[t.RequestID] = next
	return clone(next), nil
}

// Update rewrites the editable fields while the status is one of from.
func (s *InMemory) Update(_ context.Context, r *models.AidRequest, from []models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(from, cur.Status) {
		return sentinel.ErrInvalidState
	}
	next := clone(cur)
	next.Apply(r.Draft(), r.UpdatedAt)
	s.byID[r.ID] = next
	return nil
}

func (s *InMemory) Delete(_ context.Context, requestID id.AidRequestID, from []models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(from, cur.Status) {
		return sentinel.ErrInvalidState
	}
	delete(s.byID, requestID)
	return nil
}

func clone(r *models.AidRequest) *models.AidRequest {
	cp := *r
	if r.EstimatedCost != nil {
		v := *r.EstimatedCost
		cp.EstimatedCost = &v
	}
	if r.RealCost != nil {
		v := *r.RealCost
		cp.RealCost = &v
	}
	if r.ReviewedAt != nil {
		v := *r.ReviewedAt
		cp.ReviewedAt = &v
	}
	if r.DeliveredAt != nil {
		v := *r.DeliveredAt
		cp.DeliveredAt = &v
	}
	return &cp
}
