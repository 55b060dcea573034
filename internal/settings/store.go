package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/nameforge/nameforge/pkg/model"
)

// settingsKey is where the configuration layer keeps the validation settings.
const settingsKey = "nameforge:settings"

// Store is the persistence adapter for validation settings. Persistence is
// owned by the surrounding configuration layer; this interface is the narrow
// slice of it the validation subsystem talks to.
type Store interface {
	// Load returns the persisted settings; ok=false when none exist yet.
	Load(ctx context.Context) (settings model.ValidationSettings, ok bool, err error)

	// Save persists the settings, replacing any previous version.
	Save(ctx context.Context, settings model.ValidationSettings) error
}

// RedisStore persists settings in Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context) (model.ValidationSettings, bool, error) {
	raw, err := s.rdb.Get(ctx, settingsKey).Result()
	if err == redis.Nil {
		return model.ValidationSettings{}, false, nil
	}
	if err != nil {
		return model.ValidationSettings{}, false, fmt.Errorf("load settings: %w", err)
	}
	var out model.ValidationSettings
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return model.ValidationSettings{}, false, fmt.Errorf("decode settings: %w", err)
	}
	return out, true, nil
}

func (s *RedisStore) Save(ctx context.Context, settings model.ValidationSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.rdb.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests and single-node setups.
type MemoryStore struct {
	mu       sync.RWMutex
	settings model.ValidationSettings
	present  bool
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (model.ValidationSettings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.present, nil
}

func (s *MemoryStore) Save(_ context.Context, settings model.ValidationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.present = true
	return nil
}
