package azure

import (
	"context"

	"go.uber.org/zap"

	"github.com/nameforge/nameforge/pkg/model"
)

// Tester is the operator-facing connectivity diagnostic. TestConnection
// never returns an error: whatever fails is recorded in the result.
type Tester struct {
	logger  *zap.Logger
	clients *Manager
	engine  *Engine
}

// NewTester constructs a connection tester.
func NewTester(logger *zap.Logger, clients *Manager, engine *Engine) *Tester {
	return &Tester{logger: logger, clients: clients, engine: engine}
}

// TestConnection verifies credential acquisition, enumerates accessible
// subscriptions (best-effort) and runs a canary query.
func (t *Tester) TestConnection(ctx context.Context, settings model.ValidationSettings) model.ConnectionTestResult {
	result := model.ConnectionTestResult{
		AuthMode:                string(settings.AuthMode),
		TenantID:                settings.TenantID,
		AccessibleSubscriptions: []model.SubscriptionInfo{},
	}

	if !settings.Enabled {
		result.Message = "validation is not enabled"
		return result
	}

	client, err := t.clients.Ensure(ctx, settings)
	if err != nil {
		t.logger.Warn("azure.connection_test.auth_failed", zap.Error(err))
		result.Message = "authentication failed"
		result.Error = err.Error()
		return result
	}
	result.Authenticated = true

	// The tenant was resolved once when the client was built.
	if result.TenantID == "" {
		result.TenantID = client.TenantID()
	}

	// Enumeration failure does not fail the test, the list stays empty.
	if subs, serr := client.Subscriptions().ListSubscriptions(ctx); serr == nil {
		result.AccessibleSubscriptions = subs
	} else {
		t.logger.Warn("azure.connection_test.list_subscriptions_failed", zap.Error(serr))
	}

	if qerr := t.engine.Canary(ctx, client); qerr != nil {
		t.logger.Warn("azure.connection_test.canary_failed", zap.Error(qerr))
		result.Error = qerr.Error()
		result.Message = "authenticated, but the canary query failed"
		return result
	}

	result.QueryAccess = true
	result.QuerySucceeded = true
	result.Message = "connection test succeeded"
	return result
}
