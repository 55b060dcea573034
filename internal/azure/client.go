package azure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"go.uber.org/zap"

	"github.com/nameforge/nameforge/internal/secrets"
	"github.com/nameforge/nameforge/pkg/model"
)

// GraphAPI is the slice of the Resource Graph client the engine consumes.
// *armresourcegraph.Client satisfies it; tests supply fakes.
type GraphAPI interface {
	Resources(ctx context.Context, query armresourcegraph.QueryRequest, options *armresourcegraph.ClientResourcesOptions) (armresourcegraph.ClientResourcesResponse, error)
}

// SubscriptionLister enumerates what the credential can see. Backed by
// armsubscriptions in production (see subscriptions.go).
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context) ([]model.SubscriptionInfo, error)
	FirstTenantID(ctx context.Context) (string, error)
}

// AuthenticatedClient bundles a resolved credential with the API handles
// built from it. It is immutable once constructed; the Manager replaces the
// whole value on settings changes, never mutates it.
type AuthenticatedClient struct {
	hash     string
	authMode model.AuthMode
	tenantID string
	cred     azcore.TokenCredential
	graph    GraphAPI
	subs     SubscriptionLister
}

// Graph returns the Resource Graph handle.
func (c *AuthenticatedClient) Graph() GraphAPI { return c.graph }

// Subscriptions returns the subscription enumeration handle.
func (c *AuthenticatedClient) Subscriptions() SubscriptionLister { return c.subs }

// AuthMode reports which trust model produced the credential.
func (c *AuthenticatedClient) AuthMode() model.AuthMode { return c.authMode }

// TenantID returns the tenant scope the client was built for: the configured
// tenant, or the one discovered during the build when none was configured.
// Empty when discovery failed; queries still run, scoped by subscription.
func (c *AuthenticatedClient) TenantID() string { return c.tenantID }

// Manager holds the single live AuthenticatedClient for the process, keyed
// by a hash of the settings that produced it. Ensure is single-flight: the
// first caller builds the client under the lock, concurrent callers block on
// the same construction rather than racing their own.
type Manager struct {
	logger  *zap.Logger
	secrets *secrets.Resolver

	mu      sync.Mutex
	current *AuthenticatedClient

	// credential/client factories, replaced in tests
	newManagedCredential      func() (azcore.TokenCredential, error)
	newClientSecretCredential func(tenantID, clientID, clientSecret string) (azcore.TokenCredential, error)
	newGraphClient            func(cred azcore.TokenCredential) (GraphAPI, error)
	newSubscriptionLister     func(cred azcore.TokenCredential) (SubscriptionLister, error)
}

// NewManager constructs a client manager with production factories.
func NewManager(logger *zap.Logger, resolver *secrets.Resolver) *Manager {
	return &Manager{
		logger:  logger,
		secrets: resolver,
		newManagedCredential: func() (azcore.TokenCredential, error) {
			return azidentity.NewManagedIdentityCredential(nil)
		},
		newClientSecretCredential: func(tenantID, clientID, clientSecret string) (azcore.TokenCredential, error) {
			return azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
		},
		newGraphClient: func(cred azcore.TokenCredential) (GraphAPI, error) {
			return armresourcegraph.NewClient(cred, nil)
		},
		newSubscriptionLister: newARMSubscriptionLister,
	}
}

// Ensure returns the live client for the given settings, building one if none
// exists or if the settings material changed since the last build.
func (m *Manager) Ensure(ctx context.Context, settings model.ValidationSettings) (*AuthenticatedClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := settings.CredentialHash()
	if m.current != nil && m.current.hash == hash {
		return m.current, nil
	}

	client, err := m.build(ctx, settings, hash)
	if err != nil {
		return nil, err
	}
	m.current = client

	m.logger.Info("azure.authenticated",
		zap.String("auth_mode", string(settings.AuthMode)),
		zap.String("tenant_id", client.tenantID))
	return client, nil
}

// Invalidate discards the live client. The next Ensure rebuilds it.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	m.logger.Info("azure.client_invalidated")
}

func (m *Manager) build(ctx context.Context, settings model.ValidationSettings, hash string) (*AuthenticatedClient, error) {
	mode := settings.AuthMode

	var cred azcore.TokenCredential
	var err error
	switch mode {
	case model.AuthModeManagedIdentity:
		cred, err = m.newManagedCredential()
		if err != nil {
			return nil, &AuthError{Mode: string(mode), Err: err}
		}

	case model.AuthModeServicePrincipal:
		sp := settings.ServicePrincipal
		if sp == nil || strings.TrimSpace(sp.ClientID) == "" || strings.TrimSpace(settings.TenantID) == "" {
			return nil, &AuthError{Mode: string(mode), Err: fmt.Errorf("tenantId and servicePrincipal.clientId are required")}
		}
		secret, serr := m.secrets.ResolveClientSecret(ctx, settings)
		if serr != nil {
			return nil, &AuthError{Mode: string(mode), Err: serr}
		}
		cred, err = m.newClientSecretCredential(settings.TenantID, sp.ClientID, secret)
		if err != nil {
			return nil, &AuthError{Mode: string(mode), Err: err}
		}

	default:
		return nil, &AuthError{Mode: string(mode), Err: fmt.Errorf("unrecognized auth mode")}
	}

	graph, err := m.newGraphClient(cred)
	if err != nil {
		return nil, &AuthError{Mode: string(mode), Err: fmt.Errorf("create resource graph client: %w", err)}
	}
	subs, err := m.newSubscriptionLister(cred)
	if err != nil {
		return nil, &AuthError{Mode: string(mode), Err: fmt.Errorf("create subscriptions client: %w", err)}
	}

	// Tenant discovery runs once per build, not per query. Failure leaves the
	// tenant empty; queries are scoped by subscription and still work.
	tenantID := settings.TenantID
	if tenantID == "" {
		discovered, derr := subs.FirstTenantID(ctx)
		if derr != nil {
			m.logger.Warn("azure.tenant_discovery_failed", zap.Error(derr))
		} else {
			tenantID = discovered
		}
	}

	return &AuthenticatedClient{
		hash:     hash,
		authMode: mode,
		tenantID: tenantID,
		cred:     cred,
		graph:    graph,
		subs:     subs,
	}, nil
}
