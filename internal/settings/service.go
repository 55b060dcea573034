package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/cache"
	"github.com/nameforge/nameforge/pkg/model"
)

// maskedSecret is what the settings API returns in place of a stored secret.
// An update carrying it back means "keep the existing value".
const maskedSecret = "********"

// ClientInvalidator discards the cached authenticated client.
// Implemented by azure.Manager.
type ClientInvalidator interface {
	Invalidate()
}

// EventPublisher announces settings updates to peer instances.
type EventPublisher interface {
	PublishSettingsEvent(event model.SettingsEvent) error
}

// Service owns the get/update surface for validation settings and the
// derived-state invalidation that must accompany every update: the cached
// client handle and the validation cache are cleared before an update
// returns, so no later call can observe the new settings with stale state.
type Service struct {
	logger  *zap.Logger
	store   Store
	clients ClientInvalidator
	cache   cache.Store
	pub     EventPublisher // optional

	mu sync.Mutex // serializes updates
}

// NewService wires the settings service. pub may be nil for single-instance
// deployments.
func NewService(logger *zap.Logger, store Store, clients ClientInvalidator, cacheStore cache.Store, pub EventPublisher) *Service {
	return &Service{
		logger:  logger,
		store:   store,
		clients: clients,
		cache:   cacheStore,
		pub:     pub,
	}
}

// Defaults is what Current returns before any settings have been saved:
// validation off, caching on, conflicts reported but not mutated.
func Defaults() model.ValidationSettings {
	return model.ValidationSettings{
		Enabled:          false,
		AuthMode:         model.AuthModeManagedIdentity,
		Cache:            model.CacheConfig{Enabled: true, DurationMinutes: 60},
		ConflictStrategy: model.ConflictNotifyOnly,
	}
}

// Current returns the persisted settings, or the defaults when none exist.
func (s *Service) Current(ctx context.Context) (model.ValidationSettings, error) {
	settings, ok, err := s.store.Load(ctx)
	if err != nil {
		return model.ValidationSettings{}, err
	}
	if !ok {
		return Defaults(), nil
	}
	return settings, nil
}

// Update validates, persists and applies new settings. The derived state is
// cleared after the save and before Update returns.
func (s *Service) Update(ctx context.Context, next model.ValidationSettings) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A masked secret coming back from the API means "unchanged".
	if next.ServicePrincipal != nil && next.ServicePrincipal.ClientSecret == maskedSecret {
		current, ok, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		if ok && current.ServicePrincipal != nil {
			sp := *next.ServicePrincipal
			sp.ClientSecret = current.ServicePrincipal.ClientSecret
			next.ServicePrincipal = &sp
		}
	}

	if err := s.store.Save(ctx, next); err != nil {
		return err
	}

	s.applyInvalidation(ctx)

	if s.pub != nil {
		event := model.SettingsEvent{
			CorrelationID: uuid.New(),
			Service:       "nameforge",
			TenantID:      next.TenantID,
			UpdatedAt:     time.Now().UTC(),
		}
		if err := s.pub.PublishSettingsEvent(event); err != nil {
			// Local state is already consistent; peers will self-heal on
			// their cache TTL. Not worth failing the update over.
			s.logger.Warn("settings.publish_failed", zap.Error(err))
		}
	}

	s.logger.Info("settings.updated",
		zap.Bool("enabled", next.Enabled),
		zap.String("auth_mode", string(next.AuthMode)),
		zap.String("conflict_strategy", string(next.ConflictStrategy)))
	return nil
}

// StartInvalidationListener subscribes to peer settings events and clears
// local derived state when one arrives.
func (s *Service) StartInvalidationListener(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		s.logger.Info("settings.remote_update_received", zap.String("subject", msg.Subject))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.applyInvalidation(ctx)
	})
}

func (s *Service) applyInvalidation(ctx context.Context) {
	if s.clients != nil {
		s.clients.Invalidate()
	}
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Warn("settings.cache_invalidation_failed", zap.Error(err))
		}
	}
}
