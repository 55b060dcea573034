package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nameforge/nameforge/pkg/model"
)

type memoryItem struct {
	value      model.ValidationResult
	expiration time.Time
}

// MemoryStore is a thread-safe in-process Store. Expired entries simply miss
// on lookup; no background sweep is required for correctness, but one can be
// run via StartCleaner to bound memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryItem
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryItem)}
}

func (s *MemoryStore) Get(_ context.Context, resourceType, resourceName string) (model.ValidationResult, bool) {
	key := Key(resourceType, resourceName)

	s.mu.RLock()
	item, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return model.ValidationResult{}, false
	}
	if time.Now().After(item.expiration) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return model.ValidationResult{}, false
	}
	return item.value, true
}

func (s *MemoryStore) Set(_ context.Context, resourceType, resourceName string, result model.ValidationResult, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[Key(resourceType, resourceName)] = memoryItem{
		value:      result,
		expiration: time.Now().Add(ttl),
	}
}

func (s *MemoryStore) InvalidateAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if strings.HasPrefix(k, KeyPrefix) {
			delete(s.data, k)
		}
	}
	return nil
}

// StartCleaner periodically removes expired entries until stop is closed.
func (s *MemoryStore) StartCleaner(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-stop:
			return
		}
	}
}

func (s *MemoryStore) cleanupExpired() {
	now := time.Now()
	s.mu.Lock()
	for k, v := range s.data {
		if now.After(v.expiration) {
			delete(s.data, k)
		}
	}
	s.mu.Unlock()
}
