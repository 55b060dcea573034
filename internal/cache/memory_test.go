package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameforge/nameforge/pkg/model"
)

func performedResult(ids ...string) model.ValidationResult {
	return model.ValidationResult{
		ValidationPerformed:    true,
		ExistsInAzure:          len(ids) > 0,
		ConflictingResourceIDs: ids,
		Timestamp:              time.Now().UTC(),
	}
}

func TestKey_NamespacesByType(t *testing.T) {
	a := Key("Microsoft.Storage/storageAccounts", "shared01")
	b := Key("Microsoft.Compute/virtualMachines", "shared01")
	assert.NotEqual(t, a, b, "same name under different types must not collide")
	assert.Contains(t, a, KeyPrefix)
}

func TestKey_IsCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		Key("Microsoft.Storage/storageAccounts", "StorageAcct01"),
		Key("microsoft.storage/storageaccounts", "storageacct01"))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok := store.Get(ctx, "Microsoft.Storage/storageAccounts", "acct01")
	assert.False(t, ok)

	want := performedResult("/subscriptions/s1/acct01")
	store.Set(ctx, "Microsoft.Storage/storageAccounts", "acct01", want, time.Minute)

	got, ok := store.Get(ctx, "Microsoft.Storage/storageAccounts", "acct01")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemoryStore_ExpiryMissesOnLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "Microsoft.Storage/storageAccounts", "acct01", performedResult(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := store.Get(ctx, "Microsoft.Storage/storageAccounts", "acct01")
	assert.False(t, ok)
}

func TestMemoryStore_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "Microsoft.Storage/storageAccounts", "acct01", performedResult(), time.Minute)
	store.Set(ctx, "Microsoft.Compute/virtualMachines", "vm01", performedResult(), time.Minute)

	require.NoError(t, store.InvalidateAll(ctx))

	_, ok := store.Get(ctx, "Microsoft.Storage/storageAccounts", "acct01")
	assert.False(t, ok)
	_, ok = store.Get(ctx, "Microsoft.Compute/virtualMachines", "vm01")
	assert.False(t, ok)
}
