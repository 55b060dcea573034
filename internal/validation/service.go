package validation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/azure"
	"github.com/nameforge/nameforge/internal/cache"
	"github.com/nameforge/nameforge/internal/metrics"
	"github.com/nameforge/nameforge/pkg/model"
)

// SettingsSource supplies the current per-tenant validation settings.
type SettingsSource interface {
	Current(ctx context.Context) (model.ValidationSettings, error)
}

// Authenticator supplies an authenticated client for the given settings.
// Implemented by azure.Manager.
type Authenticator interface {
	Ensure(ctx context.Context, settings model.ValidationSettings) (*azure.AuthenticatedClient, error)
}

// Querier looks up conflicting resource IDs for one candidate name.
// Implemented by azure.Engine.
type Querier interface {
	FindResourceIDs(ctx context.Context, name, resourceType string, settings model.ValidationSettings, client *azure.AuthenticatedClient) ([]string, error)
}

// Service answers "does this name already exist in the tenant". Failures on
// the single-name path never propagate: they degrade to a skipped result
// with a warning, because a validation outage must not block name generation.
type Service struct {
	logger        *zap.Logger
	globalEnabled bool
	settings      SettingsSource
	auth          Authenticator
	query         Querier
	cache         cache.Store
}

// NewService constructs the validator. globalEnabled is the operator-level
// kill switch, checked before the per-tenant settings are even loaded.
func NewService(logger *zap.Logger, globalEnabled bool, settings SettingsSource, auth Authenticator, query Querier, store cache.Store) *Service {
	return &Service{
		logger:        logger,
		globalEnabled: globalEnabled,
		settings:      settings,
		auth:          auth,
		query:         query,
		cache:         store,
	}
}

// ValidateName checks one candidate name against the live tenant.
func (s *Service) ValidateName(ctx context.Context, resourceName, resourceType string) model.ValidationResult {
	if !s.globalEnabled {
		metrics.IncValidation("skipped")
		return model.SkippedResult()
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		metrics.IncValidation("degraded")
		s.logger.Warn("validate.settings_unavailable", zap.Error(err))
		return model.DegradedResult(fmt.Sprintf("load validation settings: %v", err))
	}
	if !settings.Enabled || settings.IsExcluded(resourceType) {
		metrics.IncValidation("skipped")
		return model.SkippedResult()
	}

	if settings.Cache.Enabled {
		if cached, ok := s.cache.Get(ctx, resourceType, resourceName); ok {
			metrics.IncCache("hit")
			s.logger.Debug("validate.cache_hit",
				zap.String("name", resourceName),
				zap.String("type", resourceType))
			return cached
		}
		metrics.IncCache("miss")
	}

	client, err := s.auth.Ensure(ctx, settings)
	if err != nil {
		metrics.IncValidation("degraded")
		s.logger.Warn("validate.auth_failed", zap.Error(err))
		return model.DegradedResult(fmt.Sprintf("name validation unavailable: %v", err))
	}

	return s.lookup(ctx, settings, client, resourceName, resourceType)
}

// ValidateBatch resolves a list of requests, answering cache hits without
// touching the network and authenticating exactly once for all misses.
// Misses are queried sequentially to bound load on the graph service; the
// throughput cost is accepted in exchange for predictable timeout behavior.
func (s *Service) ValidateBatch(ctx context.Context, requests []model.ValidationRequest) map[string]model.ValidationResult {
	results := make(map[string]model.ValidationResult, len(requests))

	if !s.globalEnabled {
		for _, req := range requests {
			metrics.IncValidation("skipped")
			results[req.ResourceName] = model.SkippedResult()
		}
		return results
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		s.logger.Warn("validate.batch.settings_unavailable", zap.Error(err))
		warning := fmt.Sprintf("batch validation error: %v", err)
		for _, req := range requests {
			metrics.IncValidation("degraded")
			results[req.ResourceName] = model.DegradedResult(warning)
		}
		return results
	}
	if !settings.Enabled {
		for _, req := range requests {
			metrics.IncValidation("skipped")
			results[req.ResourceName] = model.SkippedResult()
		}
		return results
	}

	// Partition into answered-from-cache and misses. A name already resolved
	// or already queued earlier in the batch is not looked up again.
	var misses []model.ValidationRequest
	queued := make(map[string]bool, len(requests))
	for _, req := range requests {
		if _, done := results[req.ResourceName]; done {
			continue
		}
		if queued[req.ResourceName] {
			continue
		}
		if settings.IsExcluded(req.ResourceType) {
			metrics.IncValidation("skipped")
			results[req.ResourceName] = model.SkippedResult()
			continue
		}
		if settings.Cache.Enabled {
			if cached, ok := s.cache.Get(ctx, req.ResourceType, req.ResourceName); ok {
				metrics.IncCache("hit")
				results[req.ResourceName] = cached
				continue
			}
			metrics.IncCache("miss")
		}
		queued[req.ResourceName] = true
		misses = append(misses, req)
	}

	if len(misses) == 0 {
		return results
	}

	// One authentication for the whole batch. If it fails, every unresolved
	// miss degrades; already-resolved entries keep their answers.
	client, err := s.auth.Ensure(ctx, settings)
	if err != nil {
		s.logger.Warn("validate.batch.auth_failed", zap.Error(err))
		warning := fmt.Sprintf("batch validation error: %v", err)
		for _, req := range misses {
			metrics.IncValidation("degraded")
			results[req.ResourceName] = model.DegradedResult(warning)
		}
		return results
	}

	for _, req := range misses {
		results[req.ResourceName] = s.lookup(ctx, settings, client, req.ResourceName, req.ResourceType)
	}
	return results
}

// lookup runs the query for one cache miss and stores the fresh result.
func (s *Service) lookup(ctx context.Context, settings model.ValidationSettings, client *azure.AuthenticatedClient, resourceName, resourceType string) model.ValidationResult {
	ids, err := s.query.FindResourceIDs(ctx, resourceName, resourceType, settings, client)
	if err != nil {
		metrics.IncValidation("degraded")
		s.logger.Warn("validate.query_failed",
			zap.String("name", resourceName),
			zap.String("type", resourceType),
			zap.Error(err))
		return model.DegradedResult(fmt.Sprintf("name validation unavailable: %v", err))
	}

	result := model.ValidationResult{
		ValidationPerformed:    true,
		ExistsInAzure:          len(ids) > 0,
		ConflictingResourceIDs: ids,
		Timestamp:              time.Now().UTC(),
	}

	if settings.Cache.Enabled {
		ttl := time.Duration(settings.Cache.DurationMinutes) * time.Minute
		s.cache.Set(ctx, resourceType, resourceName, result, ttl)
	}

	metrics.IncValidation("performed")
	s.logger.Info("validate.done",
		zap.String("name", resourceName),
		zap.String("type", resourceType),
		zap.Bool("exists", result.ExistsInAzure),
		zap.Int("conflicts", len(ids)))
	return result
}
