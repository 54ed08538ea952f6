package asset_collection

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudasset/v1"
	"google.golang.org/api/option"

	"github.com/entitlogo/entitlogo/pkg/policy_merging"
)

const serviceAccountAssetType = "iam.googleapis.com/ServiceAccount"

// InventoryClient wraps the Cloud Asset Inventory search surface for an
// organization scope.
type InventoryClient struct {
	svc *cloudasset.Service
}

func NewInventoryClient(ctx context.Context, creds *google.Credentials) (*InventoryClient, error) {
	svc, err := cloudasset.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create asset inventory client: %v", err)
	}
	return &InventoryClient{svc: svc}, nil
}

// SearchIamPolicies lists every IAM policy search result under the
// organization, normalized into canonical policy records.
func (c *InventoryClient) SearchIamPolicies(ctx context.Context, orgID string) ([]policy_merging.PolicyRecord, error) {
	scope := fmt.Sprintf("organizations/%s", orgID)

	var policies []policy_merging.PolicyRecord
	err := c.svc.V1.SearchAllIamPolicies(scope).Pages(ctx, func(page *cloudasset.SearchAllIamPoliciesResponse) error {
		for _, result := range page.Results {
			record := policy_merging.PolicyRecord{
				Resource:  result.Resource,
				AssetType: result.AssetType,
			}
			if result.Policy != nil {
				for _, binding := range result.Policy.Bindings {
					record.Bindings = append(record.Bindings, policy_merging.Binding{
						Role:    binding.Role,
						Members: binding.Members,
					})
				}
			}
			policies = append(policies, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search IAM policies: %v", err)
	}

	return policies, nil
}

// SearchServiceAccounts lists every service-account asset under the
// organization with its email and durable unique id.
func (c *InventoryClient) SearchServiceAccounts(ctx context.Context, orgID string) ([]policy_merging.ServiceAccountRecord, error) {
	scope := fmt.Sprintf("organizations/%s", orgID)

	var serviceAccounts []policy_merging.ServiceAccountRecord
	call := c.svc.V1.SearchAllResources(scope).AssetTypes(serviceAccountAssetType)
	err := call.Pages(ctx, func(page *cloudasset.SearchAllResourcesResponse) error {
		for _, result := range page.Results {
			record := rawServiceAccountRecord{
				Name:        result.Name,
				DisplayName: result.DisplayName,
			}
			if len(result.AdditionalAttributes) > 0 {
				var attributes rawAttributes
				if err := json.Unmarshal(result.AdditionalAttributes, &attributes); err != nil {
					return fmt.Errorf("failed to decode attributes for %s: %v", result.Name, err)
				}
				record.AdditionalAttributes = &attributes
			}
			serviceAccounts = append(serviceAccounts, record.normalize())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search service accounts: %v", err)
	}

	return serviceAccounts, nil
}
