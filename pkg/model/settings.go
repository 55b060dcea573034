package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// AuthMode selects the trust model used to reach the tenant.
type AuthMode string

const (
	AuthModeManagedIdentity  AuthMode = "ManagedIdentity"
	AuthModeServicePrincipal AuthMode = "ServicePrincipal"
)

// ConflictStrategy selects what happens when a candidate name already exists.
type ConflictStrategy string

const (
	ConflictNotifyOnly    ConflictStrategy = "NotifyOnly"
	ConflictAutoIncrement ConflictStrategy = "AutoIncrement"
	ConflictFail          ConflictStrategy = "Fail"
	ConflictSuffixRandom  ConflictStrategy = "SuffixRandom"
)

// ServicePrincipalConfig carries the app-registration credential triple.
// Exactly one of ClientSecret / ClientSecretVaultEntryName should resolve
// to a non-empty secret; ClientSecret may carry the "encrypted:" marker.
type ServicePrincipalConfig struct {
	ClientID                   string `json:"clientId"`
	ClientSecret               string `json:"clientSecret,omitempty"`
	ClientSecretVaultEntryName string `json:"clientSecretVaultEntryName,omitempty"`
}

// SecretStoreConfig points at the Key Vault used for secret resolution.
type SecretStoreConfig struct {
	VaultURI         string `json:"vaultUri"`
	DefaultEntryName string `json:"defaultEntryName,omitempty"`
}

// CacheConfig controls the validation-result cache.
type CacheConfig struct {
	Enabled         bool `json:"enabled"`
	DurationMinutes int  `json:"durationMinutes"`
}

// ValidationSettings is the per-tenant validation configuration. It is owned
// by the configuration layer; this service reads it, reacts to updates, and
// never mutates it in place.
type ValidationSettings struct {
	Enabled               bool                    `json:"enabled"`
	AuthMode              AuthMode                `json:"authMode"`
	TenantID              string                  `json:"tenantId,omitempty"`
	SubscriptionIDs       []string                `json:"subscriptionIds,omitempty"`
	ServicePrincipal      *ServicePrincipalConfig `json:"servicePrincipal,omitempty"`
	SecretStore           *SecretStoreConfig      `json:"secretStore,omitempty"`
	Cache                 CacheConfig             `json:"cache"`
	ConflictStrategy      ConflictStrategy        `json:"conflictStrategy"`
	ExcludedResourceTypes []string                `json:"excludedResourceTypes,omitempty"`
}

// Validate checks the structural invariants before settings are persisted.
func (s ValidationSettings) Validate() error {
	switch s.AuthMode {
	case AuthModeManagedIdentity:
	case AuthModeServicePrincipal:
		sp := s.ServicePrincipal
		if sp == nil {
			return fmt.Errorf("authMode %q requires servicePrincipal configuration", s.AuthMode)
		}
		if strings.TrimSpace(sp.ClientID) == "" {
			return fmt.Errorf("servicePrincipal.clientId is required")
		}
		if strings.TrimSpace(s.TenantID) == "" {
			return fmt.Errorf("tenantId is required for authMode %q", s.AuthMode)
		}
		if sp.ClientSecret == "" && sp.ClientSecretVaultEntryName == "" {
			return fmt.Errorf("servicePrincipal requires a clientSecret or a clientSecretVaultEntryName")
		}
		if sp.ClientSecretVaultEntryName != "" && (s.SecretStore == nil || s.SecretStore.VaultURI == "") {
			return fmt.Errorf("clientSecretVaultEntryName is set but secretStore.vaultUri is not")
		}
	default:
		return fmt.Errorf("unknown authMode %q", s.AuthMode)
	}

	switch s.ConflictStrategy {
	case ConflictNotifyOnly, ConflictAutoIncrement, ConflictFail, ConflictSuffixRandom:
	case "":
		return fmt.Errorf("conflictStrategy is required")
	default:
		return fmt.Errorf("unknown conflictStrategy %q", s.ConflictStrategy)
	}

	if s.Cache.Enabled && s.Cache.DurationMinutes <= 0 {
		return fmt.Errorf("cache.durationMinutes must be positive when caching is enabled")
	}
	return nil
}

// IsExcluded reports whether the resource type is exempt from validation.
func (s ValidationSettings) IsExcluded(resourceType string) bool {
	for _, t := range s.ExcludedResourceTypes {
		if strings.EqualFold(t, resourceType) {
			return true
		}
	}
	return false
}

// CredentialHash fingerprints the settings material that feeds credential
// construction. The client manager keys its cached AuthenticatedClient by
// this hash, so a settings update replaces the client rather than mutating it.
func (s ValidationSettings) CredentialHash() string {
	parts := []string{string(s.AuthMode), s.TenantID}
	if s.ServicePrincipal != nil {
		parts = append(parts,
			s.ServicePrincipal.ClientID,
			s.ServicePrincipal.ClientSecret,
			s.ServicePrincipal.ClientSecretVaultEntryName)
	}
	if s.SecretStore != nil {
		parts = append(parts, s.SecretStore.VaultURI, s.SecretStore.DefaultEntryName)
	}
	subs := append([]string(nil), s.SubscriptionIDs...)
	sort.Strings(subs)
	parts = append(parts, subs...)

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Masked returns a copy safe to return from the settings API: the secret
// value is replaced by a placeholder so it never leaves the service.
func (s ValidationSettings) Masked() ValidationSettings {
	out := s
	if s.ServicePrincipal != nil {
		sp := *s.ServicePrincipal
		if sp.ClientSecret != "" {
			sp.ClientSecret = "********"
		}
		out.ServicePrincipal = &sp
	}
	return out
}
