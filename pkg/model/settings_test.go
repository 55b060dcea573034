package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managedIdentitySettings() ValidationSettings {
	return ValidationSettings{
		Enabled:          true,
		AuthMode:         AuthModeManagedIdentity,
		Cache:            CacheConfig{Enabled: true, DurationMinutes: 60},
		ConflictStrategy: ConflictNotifyOnly,
	}
}

func servicePrincipalSettings() ValidationSettings {
	s := managedIdentitySettings()
	s.AuthMode = AuthModeServicePrincipal
	s.TenantID = "tenant-1"
	s.ServicePrincipal = &ServicePrincipalConfig{
		ClientID:     "client-1",
		ClientSecret: "s3cr3t",
	}
	return s
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*ValidationSettings)
		wantErr string
	}{
		{name: "managed identity ok", mutate: func(*ValidationSettings) {}},
		{
			name: "service principal ok",
			mutate: func(s *ValidationSettings) {
				*s = servicePrincipalSettings()
			},
		},
		{
			name: "service principal without config",
			mutate: func(s *ValidationSettings) {
				s.AuthMode = AuthModeServicePrincipal
			},
			wantErr: "requires servicePrincipal",
		},
		{
			name: "service principal without client id",
			mutate: func(s *ValidationSettings) {
				*s = servicePrincipalSettings()
				s.ServicePrincipal.ClientID = "  "
			},
			wantErr: "clientId is required",
		},
		{
			name: "service principal without tenant",
			mutate: func(s *ValidationSettings) {
				*s = servicePrincipalSettings()
				s.TenantID = ""
			},
			wantErr: "tenantId is required",
		},
		{
			name: "service principal without any secret source",
			mutate: func(s *ValidationSettings) {
				*s = servicePrincipalSettings()
				s.ServicePrincipal.ClientSecret = ""
			},
			wantErr: "clientSecret or a clientSecretVaultEntryName",
		},
		{
			name: "vault entry without vault uri",
			mutate: func(s *ValidationSettings) {
				*s = servicePrincipalSettings()
				s.ServicePrincipal.ClientSecret = ""
				s.ServicePrincipal.ClientSecretVaultEntryName = "sp-secret"
			},
			wantErr: "secretStore.vaultUri",
		},
		{
			name: "unknown auth mode",
			mutate: func(s *ValidationSettings) {
				s.AuthMode = "Certificate"
			},
			wantErr: "unknown authMode",
		},
		{
			name: "missing conflict strategy",
			mutate: func(s *ValidationSettings) {
				s.ConflictStrategy = ""
			},
			wantErr: "conflictStrategy is required",
		},
		{
			name: "unknown conflict strategy",
			mutate: func(s *ValidationSettings) {
				s.ConflictStrategy = "Explode"
			},
			wantErr: "unknown conflictStrategy",
		},
		{
			name: "cache enabled with zero duration",
			mutate: func(s *ValidationSettings) {
				s.Cache = CacheConfig{Enabled: true, DurationMinutes: 0}
			},
			wantErr: "durationMinutes must be positive",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := managedIdentitySettings()
			tc.mutate(&s)
			err := s.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestIsExcluded_CaseInsensitive(t *testing.T) {
	s := managedIdentitySettings()
	s.ExcludedResourceTypes = []string{"Microsoft.Network/networkInterfaces"}

	assert.True(t, s.IsExcluded("microsoft.network/NETWORKINTERFACES"))
	assert.False(t, s.IsExcluded("Microsoft.Network/virtualNetworks"))
}

func TestCredentialHash_StableAcrossSubscriptionOrder(t *testing.T) {
	a := servicePrincipalSettings()
	a.SubscriptionIDs = []string{"sub-b", "sub-a"}
	b := servicePrincipalSettings()
	b.SubscriptionIDs = []string{"sub-a", "sub-b"}

	assert.Equal(t, a.CredentialHash(), b.CredentialHash())
}

func TestCredentialHash_ChangesWithCredentialMaterial(t *testing.T) {
	base := servicePrincipalSettings()

	rotated := servicePrincipalSettings()
	rotated.ServicePrincipal.ClientSecret = "rotated"
	assert.NotEqual(t, base.CredentialHash(), rotated.CredentialHash())

	otherTenant := servicePrincipalSettings()
	otherTenant.TenantID = "tenant-2"
	assert.NotEqual(t, base.CredentialHash(), otherTenant.CredentialHash())

	otherMode := servicePrincipalSettings()
	otherMode.AuthMode = AuthModeManagedIdentity
	assert.NotEqual(t, base.CredentialHash(), otherMode.CredentialHash())
}

func TestCredentialHash_IgnoresNonCredentialFields(t *testing.T) {
	a := servicePrincipalSettings()
	b := servicePrincipalSettings()
	b.Enabled = false
	b.ConflictStrategy = ConflictFail
	b.Cache = CacheConfig{}

	assert.Equal(t, a.CredentialHash(), b.CredentialHash())
}

func TestMasked_ReplacesSecretWithoutMutatingOriginal(t *testing.T) {
	s := servicePrincipalSettings()

	masked := s.Masked()

	require.NotNil(t, masked.ServicePrincipal)
	assert.Equal(t, "********", masked.ServicePrincipal.ClientSecret)
	assert.Equal(t, "s3cr3t", s.ServicePrincipal.ClientSecret)
	assert.Equal(t, "client-1", masked.ServicePrincipal.ClientID)
}

func TestMasked_NoPrincipalIsANoop(t *testing.T) {
	s := managedIdentitySettings()
	masked := s.Masked()
	assert.Nil(t, masked.ServicePrincipal)
}

func TestMasked_EmptySecretStaysEmpty(t *testing.T) {
	s := servicePrincipalSettings()
	s.ServicePrincipal.ClientSecret = ""
	s.ServicePrincipal.ClientSecretVaultEntryName = "sp-secret"
	s.SecretStore = &SecretStoreConfig{VaultURI: "https://kv.vault.azure.net/"}

	masked := s.Masked()
	assert.Empty(t, masked.ServicePrincipal.ClientSecret)
}
