package model

import (
	"time"

	"github.com/google/uuid"
)

// ValidationRequest identifies one candidate name to check. The pair is also
// the cache key tuple, so it is immutable by convention.
type ValidationRequest struct {
	ResourceName string `json:"resourceName"`
	ResourceType string `json:"resourceType"`
}

// ValidationResult is the outcome of one tenant lookup. It is constructed
// once and never mutated afterwards; cached copies are returned as-is.
type ValidationResult struct {
	ValidationPerformed    bool      `json:"validationPerformed"`
	ExistsInAzure          bool      `json:"existsInAzure"`
	ConflictingResourceIDs []string  `json:"conflictingResourceIds,omitempty"`
	Warning                string    `json:"warning,omitempty"`
	Timestamp              time.Time `json:"timestamp"`
}

// SkippedResult is the canonical "validation did not run" outcome, used for
// the kill switch, disabled settings, and excluded resource types.
func SkippedResult() ValidationResult {
	return ValidationResult{
		ValidationPerformed: false,
		ExistsInAzure:       false,
		Timestamp:           time.Now().UTC(),
	}
}

// DegradedResult is a skipped result carrying a warning. Validation errors
// degrade to this rather than propagating, so a tenant outage never blocks
// name generation.
func DegradedResult(warning string) ValidationResult {
	r := SkippedResult()
	r.Warning = warning
	return r
}

// SubscriptionInfo describes one subscription visible to the credential.
type SubscriptionInfo struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	State         string `json:"state"`
	HasReadAccess bool   `json:"hasReadAccess"`
}

// ConnectionTestResult reports what an operator-initiated connection test
// managed to do. It is always fully populated; the test itself never fails.
type ConnectionTestResult struct {
	Authenticated           bool               `json:"authenticated"`
	AuthMode                string             `json:"authMode"`
	TenantID                string             `json:"tenantId,omitempty"`
	AccessibleSubscriptions []SubscriptionInfo `json:"accessibleSubscriptions"`
	QueryAccess             bool               `json:"queryAccess"`
	QuerySucceeded          bool               `json:"querySucceeded"`
	Message                 string             `json:"message"`
	Error                   string             `json:"error,omitempty"`
}

// SettingsEvent is published on NATS when validation settings change, so
// peer instances drop their derived state (client handle, result cache).
type SettingsEvent struct {
	CorrelationID uuid.UUID `json:"correlationId"`
	Service       string    `json:"service"`
	TenantID      string    `json:"tenantId,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
