package secrets

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// KeyVaultProvider implements Provider using Azure Key Vault.
type KeyVaultProvider struct {
	client *azsecrets.Client
}

// NewKeyVaultProvider creates a Key Vault provider for the given vault URI
// using the ambient platform identity (managed identity, workload identity,
// or developer credentials, whichever the environment supplies).
func NewKeyVaultProvider(vaultURI string) (Provider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("acquire ambient credential for vault: %w", err)
	}
	return NewKeyVaultProviderWithCredential(vaultURI, cred)
}

// NewKeyVaultProviderWithCredential creates a Key Vault provider with an
// explicit credential.
func NewKeyVaultProviderWithCredential(vaultURI string, cred azcore.TokenCredential) (Provider, error) {
	client, err := azsecrets.NewClient(vaultURI, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create key vault client for %s: %w", vaultURI, err)
	}
	return &KeyVaultProvider{client: client}, nil
}

// GetSecret fetches the latest version of a secret from the vault.
func (p *KeyVaultProvider) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := p.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("fetch secret [%s] from vault: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret [%s] has no value", name)
	}
	return *resp.Value, nil
}
