package validation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/azure"
	"github.com/nameforge/nameforge/internal/cache"
	"github.com/nameforge/nameforge/pkg/model"
)

const (
	storageType = "Microsoft.Storage/storageAccounts"
	vmType      = "Microsoft.Compute/virtualMachines"
)

type mockSettings struct {
	calls    int
	settings model.ValidationSettings
	err      error
}

func (m *mockSettings) Current(ctx context.Context) (model.ValidationSettings, error) {
	m.calls++
	return m.settings, m.err
}

type mockAuth struct {
	calls  int
	client *azure.AuthenticatedClient
	err    error
}

func (m *mockAuth) Ensure(ctx context.Context, settings model.ValidationSettings) (*azure.AuthenticatedClient, error) {
	m.calls++
	return m.client, m.err
}

type mockQuerier struct {
	calls int
	ids   map[string][]string
	err   error
}

func (m *mockQuerier) FindResourceIDs(ctx context.Context, name, resourceType string, settings model.ValidationSettings, client *azure.AuthenticatedClient) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.ids[name], nil
}

func enabledSettings() model.ValidationSettings {
	return model.ValidationSettings{
		Enabled:          true,
		AuthMode:         model.AuthModeManagedIdentity,
		Cache:            model.CacheConfig{Enabled: true, DurationMinutes: 60},
		ConflictStrategy: model.ConflictNotifyOnly,
	}
}

type fixture struct {
	settings *mockSettings
	auth     *mockAuth
	query    *mockQuerier
	store    cache.Store
	svc      *Service
}

func newFixture(t *testing.T, globalEnabled bool, settings model.ValidationSettings) *fixture {
	t.Helper()
	f := &fixture{
		settings: &mockSettings{settings: settings},
		auth:     &mockAuth{client: &azure.AuthenticatedClient{}},
		query:    &mockQuerier{ids: map[string][]string{}},
		store:    cache.NewMemoryStore(),
	}
	f.svc = NewService(zap.NewNop(), globalEnabled, f.settings, f.auth, f.query, f.store)
	return f
}

func TestValidateName_GlobalKillSwitchSkipsEverything(t *testing.T) {
	f := newFixture(t, false, enabledSettings())

	result := f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.False(t, result.ValidationPerformed)
	assert.False(t, result.ExistsInAzure)
	assert.Empty(t, result.Warning)
	assert.Zero(t, f.settings.calls, "settings must not be loaded when globally disabled")
	assert.Zero(t, f.auth.calls)
	assert.Zero(t, f.query.calls)
}

func TestValidateName_TenantDisabledSkips(t *testing.T) {
	settings := enabledSettings()
	settings.Enabled = false
	f := newFixture(t, true, settings)

	result := f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.False(t, result.ValidationPerformed)
	assert.Zero(t, f.auth.calls)
	assert.Zero(t, f.query.calls)
}

func TestValidateName_ExcludedTypeSkips(t *testing.T) {
	settings := enabledSettings()
	settings.ExcludedResourceTypes = []string{vmType}
	f := newFixture(t, true, settings)

	result := f.svc.ValidateName(context.Background(), "vm01", "microsoft.compute/VIRTUALMACHINES")

	assert.False(t, result.ValidationPerformed)
	assert.Zero(t, f.query.calls, "excluded types must not reach the graph")
}

func TestValidateName_ConflictFound(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	f.query.ids["acct01"] = []string{"/subscriptions/s1/acct01"}

	result := f.svc.ValidateName(context.Background(), "acct01", storageType)

	require.True(t, result.ValidationPerformed)
	assert.True(t, result.ExistsInAzure)
	assert.Equal(t, []string{"/subscriptions/s1/acct01"}, result.ConflictingResourceIDs)
	assert.Empty(t, result.Warning)
	assert.WithinDuration(t, time.Now().UTC(), result.Timestamp, time.Minute)
}

func TestValidateName_NoConflict(t *testing.T) {
	f := newFixture(t, true, enabledSettings())

	result := f.svc.ValidateName(context.Background(), "fresh-name", storageType)

	require.True(t, result.ValidationPerformed)
	assert.False(t, result.ExistsInAzure)
	assert.Empty(t, result.ConflictingResourceIDs)
}

func TestValidateName_SecondCallServedFromCache(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	f.query.ids["acct01"] = []string{"/subscriptions/s1/acct01"}

	first := f.svc.ValidateName(context.Background(), "acct01", storageType)
	second := f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.Equal(t, 1, f.query.calls, "cache hit must not query again")
	assert.Equal(t, first.ExistsInAzure, second.ExistsInAzure)
	assert.Equal(t, first.ConflictingResourceIDs, second.ConflictingResourceIDs)
}

func TestValidateName_CacheDisabledQueriesEveryTime(t *testing.T) {
	settings := enabledSettings()
	settings.Cache.Enabled = false
	f := newFixture(t, true, settings)

	f.svc.ValidateName(context.Background(), "acct01", storageType)
	f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.Equal(t, 2, f.query.calls)
}

func TestValidateName_InvalidationForcesFreshQuery(t *testing.T) {
	f := newFixture(t, true, enabledSettings())

	f.svc.ValidateName(context.Background(), "acct01", storageType)
	require.NoError(t, f.store.InvalidateAll(context.Background()))
	f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.Equal(t, 2, f.query.calls, "invalidation must force a fresh lookup")
}

func TestValidateName_SettingsFailureDegrades(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	f.settings.err = errors.New("store unreachable")

	result := f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.False(t, result.ValidationPerformed)
	assert.Contains(t, result.Warning, "store unreachable")
	assert.Zero(t, f.auth.calls)
}

func TestValidateName_AuthFailureDegrades(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	f.auth.client = nil
	f.auth.err = &azure.AuthError{Mode: string(model.AuthModeManagedIdentity), Err: errors.New("token acquisition failed")}

	result := f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.False(t, result.ValidationPerformed)
	assert.Contains(t, result.Warning, "name validation unavailable")
	assert.Contains(t, result.Warning, "token acquisition failed")
	assert.Zero(t, f.query.calls)
}

func TestValidateName_QueryTimeoutDegradesWithWarning(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	f.query.err = fmt.Errorf("%w after 5s", azure.ErrQueryTimeout)

	result := f.svc.ValidateName(context.Background(), "acct01", storageType)

	assert.False(t, result.ValidationPerformed)
	assert.Contains(t, result.Warning, "timed out")

	// The failure must not poison the cache.
	_, ok := f.store.Get(context.Background(), storageType, "acct01")
	assert.False(t, ok)
}

func TestValidateBatch_GlobalKillSwitchSkipsAll(t *testing.T) {
	f := newFixture(t, false, enabledSettings())

	results := f.svc.ValidateBatch(context.Background(), []model.ValidationRequest{
		{ResourceName: "a", ResourceType: storageType},
		{ResourceName: "b", ResourceType: storageType},
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.ValidationPerformed)
	}
	assert.Zero(t, f.settings.calls)
	assert.Zero(t, f.auth.calls)
}

func TestValidateBatch_AuthenticatesOnceForAllMisses(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	ctx := context.Background()

	// Pre-populate the cache for two of the three names.
	f.store.Set(ctx, storageType, "cached-a", model.ValidationResult{ValidationPerformed: true}, time.Minute)
	f.store.Set(ctx, storageType, "cached-b", model.ValidationResult{ValidationPerformed: true, ExistsInAzure: true}, time.Minute)

	results := f.svc.ValidateBatch(ctx, []model.ValidationRequest{
		{ResourceName: "cached-a", ResourceType: storageType},
		{ResourceName: "cached-b", ResourceType: storageType},
		{ResourceName: "miss", ResourceType: storageType},
	})

	require.Len(t, results, 3)
	assert.Equal(t, 1, f.auth.calls, "one authentication per batch")
	assert.Equal(t, 1, f.query.calls, "cache hits must not be re-queried")
	assert.True(t, results["cached-b"].ExistsInAzure)
	assert.True(t, results["miss"].ValidationPerformed)
}

func TestValidateBatch_DuplicateNamesResolvedOnce(t *testing.T) {
	f := newFixture(t, true, enabledSettings())

	results := f.svc.ValidateBatch(context.Background(), []model.ValidationRequest{
		{ResourceName: "same", ResourceType: storageType},
		{ResourceName: "same", ResourceType: storageType},
	})

	require.Len(t, results, 1)
	assert.Equal(t, 1, f.query.calls)
}

func TestValidateBatch_DuplicatesAmongMissesQueriedOnce(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	f.query.ids["same"] = []string{"/subscriptions/s1/same"}

	results := f.svc.ValidateBatch(context.Background(), []model.ValidationRequest{
		{ResourceName: "same", ResourceType: storageType},
		{ResourceName: "other", ResourceType: storageType},
		{ResourceName: "same", ResourceType: storageType},
	})

	require.Len(t, results, 2)
	assert.Equal(t, 2, f.query.calls, "two distinct names, two queries")
	assert.Equal(t, 1, f.auth.calls)
	assert.True(t, results["same"].ExistsInAzure)
	assert.False(t, results["other"].ExistsInAzure)
}

func TestValidateBatch_AuthFailureDegradesMissesOnly(t *testing.T) {
	f := newFixture(t, true, enabledSettings())
	ctx := context.Background()
	f.auth.client = nil
	f.auth.err = errors.New("credential build failed")

	cached := model.ValidationResult{ValidationPerformed: true, ExistsInAzure: true}
	f.store.Set(ctx, storageType, "cached", cached, time.Minute)

	results := f.svc.ValidateBatch(ctx, []model.ValidationRequest{
		{ResourceName: "cached", ResourceType: storageType},
		{ResourceName: "miss", ResourceType: storageType},
	})

	assert.True(t, results["cached"].ExistsInAzure, "cached answers survive an auth outage")
	assert.False(t, results["miss"].ValidationPerformed)
	assert.Contains(t, results["miss"].Warning, "batch validation error")
	assert.Zero(t, f.query.calls)
}

func TestValidateBatch_ExcludedTypesSkippedWithoutQuery(t *testing.T) {
	settings := enabledSettings()
	settings.ExcludedResourceTypes = []string{vmType}
	f := newFixture(t, true, settings)

	results := f.svc.ValidateBatch(context.Background(), []model.ValidationRequest{
		{ResourceName: "vm01", ResourceType: vmType},
		{ResourceName: "acct01", ResourceType: storageType},
	})

	assert.False(t, results["vm01"].ValidationPerformed)
	assert.True(t, results["acct01"].ValidationPerformed)
	assert.Equal(t, 1, f.query.calls)
}
