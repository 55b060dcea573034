package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/nameforge/nameforge/pkg/model"
)

// armSubscriptionLister implements SubscriptionLister on top of the ARM
// subscriptions API.
type armSubscriptionLister struct {
	subs    *armsubscriptions.Client
	tenants *armsubscriptions.TenantsClient
}

func newARMSubscriptionLister(cred azcore.TokenCredential) (SubscriptionLister, error) {
	subs, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create subscriptions client: %w", err)
	}
	tenants, err := armsubscriptions.NewTenantsClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create tenants client: %w", err)
	}
	return &armSubscriptionLister{subs: subs, tenants: tenants}, nil
}

// ListSubscriptions pages through every subscription visible to the
// credential. Rows with no subscription ID are skipped.
func (l *armSubscriptionLister) ListSubscriptions(ctx context.Context) ([]model.SubscriptionInfo, error) {
	var out []model.SubscriptionInfo
	pager := l.subs.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			if sub == nil || sub.SubscriptionID == nil {
				continue
			}
			info := model.SubscriptionInfo{ID: *sub.SubscriptionID}
			if sub.DisplayName != nil {
				info.DisplayName = *sub.DisplayName
			}
			if sub.State != nil {
				info.State = string(*sub.State)
				info.HasReadAccess = *sub.State == armsubscriptions.SubscriptionStateEnabled
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// FirstTenantID returns the first tenant the credential can see, in a single
// pass over the tenants list.
func (l *armSubscriptionLister) FirstTenantID(ctx context.Context) (string, error) {
	pager := l.tenants.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("list tenants: %w", err)
		}
		for _, t := range page.Value {
			if t != nil && t.TenantID != nil {
				return *t.TenantID, nil
			}
		}
	}
	return "", fmt.Errorf("no accessible tenants")
}
