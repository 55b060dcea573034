package cache

import (
	"context"
	"strings"
	"time"

	"github.com/nameforge/nameforge/pkg/model"
)

// KeyPrefix namespaces every validation-cache entry so bulk invalidation can
// wipe this subsystem's keys without touching anything else in the store.
const KeyPrefix = "nameforge:validation:"

// Key derives the cache key for a (resource type, resource name) pair.
// The type comes first so entries for different types can never collide.
func Key(resourceType, resourceName string) string {
	return KeyPrefix + strings.ToLower(resourceType) + "|" + strings.ToLower(resourceName)
}

// Store is the validation-result cache. Implementations must be safe for
// concurrent use from multiple validator invocations.
type Store interface {
	// Get returns the cached result for the pair, or ok=false on miss or
	// expiry. Store failures degrade to a miss, never to an error.
	Get(ctx context.Context, resourceType, resourceName string) (model.ValidationResult, bool)

	// Set caches a result with the given TTL.
	Set(ctx context.Context, resourceType, resourceName string, result model.ValidationResult, ttl time.Duration)

	// InvalidateAll removes every entry under KeyPrefix. Called on settings
	// updates so stale results are never served under a new scope.
	InvalidateAll(ctx context.Context) error
}
