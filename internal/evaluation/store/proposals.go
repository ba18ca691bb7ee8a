package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"oncofeliz/internal/evaluation/models"
	"oncofeliz/pkg/platform/sentinel"
)

const proposalKeyPrefix = "score-proposal:"

// RedisProposals keeps proposals as JSON values that expire on their own.
type RedisProposals struct {
	client redis.Cmdable
}

func NewRedisProposals(client redis.Cmdable) *RedisProposals {
	return &RedisProposals{client: client}
}

func (s *RedisProposals) Save(ctx context.Context, p *models.ScoreProposal, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode proposal: %w", err)
	}
	if err := s.client.Set(ctx, proposalKeyPrefix+p.ID.String(), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store proposal: %w", err)
	}
	return nil
}

func (s *RedisProposals) Find(ctx context.Context, proposalID uuid.UUID) (*models.ScoreProposal, error) {
	raw, err := s.client.Get(ctx, proposalKeyPrefix+proposalID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	var p models.ScoreProposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}
	return &p, nil
}

// MemoryProposals is the fallback when Redis is not configured. Expired
// entries are dropped lazily on access.
type MemoryProposals struct {
	mu        sync.Mutex
	proposals map[uuid.UUID]memoryProposal
	now       func() time.Time
}

type memoryProposal struct {
	proposal  models.ScoreProposal
	expiresAt time.Time
}

func NewMemoryProposals() *MemoryProposals {
	return &MemoryProposals{proposals: make(map[uuid.UUID]memoryProposal), now: time.Now}
}

func (s *MemoryProposals) Save(_ context.Context, p *models.ScoreProposal, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ID] = memoryProposal{proposal: *p, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryProposals) Find(_ context.Context, proposalID uuid.UUID) (*models.ScoreProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.proposals[proposalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.proposals, proposalID)
		return nil, sentinel.ErrNotFound
	}
	p := entry.proposal
	return &p, nil
}
