package azure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/metrics"
	"github.com/nameforge/nameforge/internal/rate"
	"github.com/nameforge/nameforge/pkg/model"
)

// DefaultQueryTimeout bounds a single Resource Graph call.
const DefaultQueryTimeout = 5 * time.Second

// canaryQuery is the trivial probe issued by connection tests.
const canaryQuery = "Resources | project id | limit 1"

// Engine builds and executes Resource Graph queries against an
// AuthenticatedClient, within the tenant/subscription scope the settings
// define and under a hard per-call timeout.
type Engine struct {
	logger  *zap.Logger
	limiter *rate.Limiter
	timeout time.Duration
}

// NewEngine constructs a query engine. limiter may be nil (no throttling);
// timeout <= 0 falls back to DefaultQueryTimeout.
func NewEngine(logger *zap.Logger, limiter *rate.Limiter, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Engine{logger: logger, limiter: limiter, timeout: timeout}
}

// FindResourceIDs returns the IDs of resources whose name matches the
// candidate (case-insensitive, exact) and whose type matches exactly. Zero
// matches is a successful outcome, not an error.
func (e *Engine) FindResourceIDs(ctx context.Context, name, resourceType string, settings model.ValidationSettings, client *AuthenticatedClient) ([]string, error) {
	query := buildQuery(name, resourceType)

	rows, err := e.execute(ctx, query, settings.SubscriptionIDs, client)
	if err != nil {
		return nil, err
	}

	ids := collectIDs(rows)
	e.logger.Debug("azure.query_done",
		zap.String("name", name),
		zap.String("type", resourceType),
		zap.String("tenant_id", client.TenantID()),
		zap.Int("matches", len(ids)))
	return ids, nil
}

// Canary runs the fixed trivial probe query used by connection tests.
func (e *Engine) Canary(ctx context.Context, client *AuthenticatedClient) error {
	_, err := e.execute(ctx, canaryQuery, nil, client)
	return err
}

// execute runs one query with scope, rate limiting and the hard timeout, and
// returns the parsed rows.
func (e *Engine) execute(ctx context.Context, query string, subscriptionIDs []string, client *AuthenticatedClient) ([]map[string]any, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &QueryError{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req := armresourcegraph.QueryRequest{
		Query: to.Ptr(query),
		Options: &armresourcegraph.QueryRequestOptions{
			ResultFormat: to.Ptr(armresourcegraph.ResultFormatObjectArray),
		},
	}
	// Empty scope means every subscription the credential can read.
	for _, id := range subscriptionIDs {
		req.Subscriptions = append(req.Subscriptions, to.Ptr(id))
	}

	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Graph().Resources(qctx, req, nil)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(qctx.Err(), context.DeadlineExceeded) {
			metrics.IncQuery("timeout")
			e.logger.Warn("azure.query_timeout",
				zap.Duration("budget", e.timeout),
				zap.Duration("elapsed", elapsed))
			return nil, fmt.Errorf("%w after %s", ErrQueryTimeout, e.timeout)
		}
		metrics.IncQuery("error")
		e.logger.Warn("azure.query_failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, &QueryError{Err: err}
	}

	rows, err := parseRows(resp.Data)
	if err != nil {
		metrics.IncQuery("error")
		return nil, &QueryError{Err: err}
	}

	metrics.IncQuery("ok")
	metrics.ObserveQueryDuration(start)
	return rows, nil
}

// buildQuery renders the KQL filter for one candidate name. Name matching is
// case-insensitive exact, type matching exact; embedded quotes are escaped so
// a hostile name cannot break out of the string literal.
func buildQuery(name, resourceType string) string {
	return fmt.Sprintf(
		"Resources | where type =~ '%s' | where name =~ '%s' | project id",
		escapeKQL(resourceType), escapeKQL(name))
}

// escapeKQL escapes backslashes and single quotes for a single-quoted KQL
// string literal.
func escapeKQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// parseRows applies the strict result schema: a list of objects. Anything
// else is unparseable.
func parseRows(data any) ([]map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	list, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result shape %T, want object array", data)
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// collectIDs extracts the id field per row, skipping rows without one.
func collectIDs(rows []map[string]any) []string {
	var ids []string
	for _, row := range rows {
		if id, ok := row["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
