package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/conflict"
	"github.com/nameforge/nameforge/pkg/model"
)

// ValidatorService defines the validation operations the handler needs.
type ValidatorService interface {
	ValidateName(ctx context.Context, resourceName, resourceType string) model.ValidationResult
	ValidateBatch(ctx context.Context, requests []model.ValidationRequest) map[string]model.ValidationResult
}

// SettingsService defines the settings operations the handler needs.
type SettingsService interface {
	Current(ctx context.Context) (model.ValidationSettings, error)
	Update(ctx context.Context, settings model.ValidationSettings) error
}

// ConnectionTester runs the operator connectivity diagnostic.
type ConnectionTester interface {
	TestConnection(ctx context.Context, settings model.ValidationSettings) model.ConnectionTestResult
}

// Handler serves the validation REST surface.
type Handler struct {
	logger    *zap.Logger
	validator ValidatorService
	settings  SettingsService
	tester    ConnectionTester
	resolver  *conflict.Resolver
}

// NewHandler creates the API handler.
func NewHandler(logger *zap.Logger, validator ValidatorService, settings SettingsService, tester ConnectionTester, resolver *conflict.Resolver) *Handler {
	return &Handler{
		logger:    logger,
		validator: validator,
		settings:  settings,
		tester:    tester,
		resolver:  resolver,
	}
}

// ValidateName handles POST /api/v1/validate.
func (h *Handler) ValidateName(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result := h.validator.ValidateName(c.Context(), req.ResourceName, req.ResourceType)
	return c.JSON(result)
}

// ValidateBatch handles POST /api/v1/validate/batch.
func (h *Handler) ValidateBatch(c *fiber.Ctx) error {
	var req BatchValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	requests := make([]model.ValidationRequest, 0, len(req.Requests))
	for _, r := range req.Requests {
		requests = append(requests, model.ValidationRequest{
			ResourceName: r.ResourceName,
			ResourceType: r.ResourceType,
		})
	}

	results := h.validator.ValidateBatch(c.Context(), requests)
	return c.JSON(fiber.Map{"results": results})
}

// ResolveName handles POST /api/v1/resolve: validate a candidate, then apply
// the configured conflict strategy, re-validating mutated names as needed.
func (h *Handler) ResolveName(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	settings, err := h.settings.Current(c.Context())
	if err != nil {
		h.logger.Error("api.resolve.settings_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	result := h.validator.ValidateName(c.Context(), req.ResourceName, req.ResourceType)

	var mutate conflict.Mutator
	switch settings.ConflictStrategy {
	case model.ConflictSuffixRandom:
		mutate = conflict.RandomSuffix()
	default:
		mutate = conflict.IncrementName
	}

	resolution := h.resolver.Resolve(c.Context(), req.ResourceName, result, settings.ConflictStrategy, mutate,
		func(ctx context.Context, name string) model.ValidationResult {
			return h.validator.ValidateName(ctx, name, req.ResourceType)
		})

	return c.JSON(fiber.Map{
		"resolution": resolution,
		"validation": result,
	})
}

// GetSettings handles GET /api/v1/settings. The secret value is masked.
func (h *Handler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settings.Current(c.Context())
	if err != nil {
		h.logger.Error("api.settings.load_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(settings.Masked())
}

// UpdateSettings handles PUT /api/v1/settings. This is an operator action:
// failures surface directly instead of degrading.
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	var settings model.ValidationSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.settings.Update(c.Context(), settings); err != nil {
		h.logger.Warn("api.settings.update_rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// TestConnection handles POST /api/v1/test-connection.
func (h *Handler) TestConnection(c *fiber.Ctx) error {
	settings, err := h.settings.Current(c.Context())
	if err != nil {
		h.logger.Error("api.test_connection.settings_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h.tester.TestConnection(c.Context(), settings))
}
