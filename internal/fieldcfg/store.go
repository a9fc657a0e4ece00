package fieldcfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by a Store when nothing has been persisted yet.
var ErrNotFound = errors.New("field configuration not found")

// DefaultKey is the blob name used when none is configured.
const DefaultKey = "crmshehab:order-field-configs"

// Store persists the field-configuration list as a single named blob.
type Store interface {
	Load(ctx context.Context) ([]FieldConfig, error)
	Save(ctx context.Context, cfgs []FieldConfig) error
}

// RedisStore keeps the configuration blob in Redis as JSON.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]FieldConfig, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load field configs: %w", err)
	}
	var cfgs []FieldConfig
	if err := json.Unmarshal(raw, &cfgs); err != nil {
		return nil, fmt.Errorf("decode field configs: %w", err)
	}
	return cfgs, nil
}

func (s *RedisStore) Save(ctx context.Context, cfgs []FieldConfig) error {
	raw, err := json.Marshal(cfgs)
	if err != nil {
		return fmt.Errorf("encode field configs: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save field configs: %w", err)
	}
	return nil
}

// MemoryStore keeps the blob in memory. Used in tests and when no Redis
// address is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	cfgs []FieldConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]FieldConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfgs == nil {
		return nil, ErrNotFound
	}
	out := make([]FieldConfig, len(s.cfgs))
	copy(out, s.cfgs)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, cfgs []FieldConfig) error {
	cp := make([]FieldConfig, len(cfgs))
	copy(cp, cfgs)
	s.mu.Lock()
	s.cfgs = cp
	s.mu.Unlock()
	return nil
}
