package secrets

import "context"

// Provider defines a generic secret-vault interface.
// Concrete implementations (Azure Key Vault, fakes in tests) satisfy this.
type Provider interface {
	// GetSecret retrieves the current value of a named secret.
	GetSecret(ctx context.Context, name string) (string, error)
}
