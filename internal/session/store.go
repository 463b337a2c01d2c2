// internal/session/store.go

// Package session persists wizard session snapshots so a browser refresh or
// process restart resumes where the user left off. Redis is the primary
// backend; an in-memory store covers local development.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sitewizard/internal/common/config"
	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/models"
)

const keyPrefix = "wizard:session:"

// Snapshot is everything needed to resume a wizard session.
type Snapshot struct {
	ID           string                      `json:"id"`
	Answers      *models.WizardAnswers       `json:"answers,omitempty"`
	Conversation *models.ConversationState   `json:"conversation,omitempty"`
	Selected     []models.EnhancedChipOption `json:"selected,omitempty"`
	Figma        *models.FigmaAnalysis       `json:"figma,omitempty"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

// ErrNotFound reports a missing or expired session.
var ErrNotFound = wizerrors.New(wizerrors.CategoryValidation, "session not found")

// Store persists session snapshots with a TTL.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisStore keeps snapshots in Redis under a shared key prefix.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, log logger.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisStore{client: rdb, ttl: ttl, log: log}
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.ID == "" {
		return wizerrors.New(wizerrors.CategoryValidation, "session snapshot needs an id")
	}
	snap.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(snap)
	if err != nil {
		return wizerrors.Wrap(wizerrors.CategoryInternal, "encoding session snapshot", err)
	}
	if err := s.client.Set(ctx, keyPrefix+snap.ID, payload, s.ttl).Err(); err != nil {
		return wizerrors.Wrap(wizerrors.CategoryNetwork, "saving session snapshot", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryNetwork, "loading session snapshot", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryInternal, "decoding session snapshot", err)
	}
	return &snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return wizerrors.Wrap(wizerrors.CategoryNetwork, "deleting session snapshot", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is the fallback when Redis is disabled. TTL expiry is lazy:
// expired snapshots are dropped on Load.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.ID == "" {
		return wizerrors.New(wizerrors.CategoryValidation, "session snapshot needs an id")
	}
	snap.UpdatedAt = s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.ID] = memoryEntry{snap: *snap, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.data, id)
		return nil, ErrNotFound
	}
	snap := entry.snap
	return &snap, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
