package secrets

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nameforge/nameforge/pkg/model"
	pkgsecrets "github.com/nameforge/nameforge/pkg/secrets"
)

// VaultFactory opens a vault provider for a given vault URI. Swapped out in
// tests; production wiring uses pkgsecrets.NewKeyVaultProvider.
type VaultFactory func(vaultURI string) (pkgsecrets.Provider, error)

// Resolver resolves the service-principal client secret from validation
// settings. Resolution order, first configured source wins:
//
//  1. Key Vault entry (failure is fatal, never falls back)
//  2. local value with the "encrypted:" marker, decrypted with the app key
//  3. local plain value
//
// The secret value itself is never logged, only the path taken.
type Resolver struct {
	logger   *zap.Logger
	codec    *Codec
	newVault VaultFactory
}

// NewResolver constructs a secret resolver. codec may be nil when no
// encryption key is configured; encrypted values then fail to resolve.
func NewResolver(logger *zap.Logger, codec *Codec, newVault VaultFactory) *Resolver {
	if newVault == nil {
		newVault = pkgsecrets.NewKeyVaultProvider
	}
	return &Resolver{logger: logger, codec: codec, newVault: newVault}
}

// ResolveClientSecret returns the client secret for the settings' service
// principal, or ErrSecretNotFound when no source is configured.
func (r *Resolver) ResolveClientSecret(ctx context.Context, settings model.ValidationSettings) (string, error) {
	sp := settings.ServicePrincipal
	if sp == nil {
		return "", ErrSecretNotFound
	}

	if entry := vaultEntryName(settings); entry != "" {
		value, err := r.fetchFromVault(ctx, settings, entry)
		if err != nil {
			return "", &ResolutionError{Path: "vault", Err: err}
		}
		r.logger.Info("secrets.resolved", zap.String("path", "vault"), zap.String("entry", entry))
		return value, nil
	}

	if strings.HasPrefix(sp.ClientSecret, EncryptedPrefix) {
		if r.codec == nil {
			return "", &ResolutionError{Path: "encrypted", Err: errNoEncryptionKey}
		}
		value, err := r.codec.Decrypt(strings.TrimPrefix(sp.ClientSecret, EncryptedPrefix))
		if err != nil {
			return "", &ResolutionError{Path: "encrypted", Err: err}
		}
		r.logger.Info("secrets.resolved", zap.String("path", "encrypted"))
		return value, nil
	}

	if sp.ClientSecret != "" {
		r.logger.Info("secrets.resolved", zap.String("path", "plain"))
		return sp.ClientSecret, nil
	}

	r.logger.Warn("secrets.not_configured", zap.String("path", "none"))
	return "", ErrSecretNotFound
}

func (r *Resolver) fetchFromVault(ctx context.Context, settings model.ValidationSettings, entry string) (string, error) {
	vault, err := r.newVault(settings.SecretStore.VaultURI)
	if err != nil {
		return "", err
	}
	return vault.GetSecret(ctx, entry)
}

// vaultEntryName returns the vault entry to fetch for the client secret, or
// "" when the vault path is not configured. The per-principal entry name
// wins; the store-level default applies when the principal names none but a
// vault is configured and no local secret is present.
func vaultEntryName(settings model.ValidationSettings) string {
	if settings.SecretStore == nil || settings.SecretStore.VaultURI == "" {
		return ""
	}
	if entry := settings.ServicePrincipal.ClientSecretVaultEntryName; entry != "" {
		return entry
	}
	if settings.ServicePrincipal.ClientSecret == "" {
		return settings.SecretStore.DefaultEntryName
	}
	return ""
}
