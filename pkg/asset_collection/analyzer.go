package asset_collection

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/cloudasset/v1"

	"github.com/entitlogo/entitlogo/pkg/policy_merging"
)

// PolicyAnalyzer resolves a user's effective grants through organization-
// scoped IAM policy analysis with group expansion enabled, so roles granted
// to groups the user transitively belongs to are included. Implements
// policy_merging.GroupExpander.
type PolicyAnalyzer struct {
	svc   *cloudasset.Service
	scope string
}

func NewPolicyAnalyzer(client *InventoryClient, orgID string) *PolicyAnalyzer {
	return &PolicyAnalyzer{
		svc:   client.svc,
		scope: fmt.Sprintf("organizations/%s", orgID),
	}
}

func (a *PolicyAnalyzer) ExpandUserGrants(ctx context.Context, email string) ([]policy_merging.GrantDetail, error) {
	call := a.svc.V1.AnalyzeIamPolicy(a.scope).
		AnalysisQueryIdentitySelectorIdentity(fmt.Sprintf("user:%s", email)).
		AnalysisQueryOptionsExpandGroups(true)

	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to analyze IAM policy for %s: %v", email, err)
	}
	if response.MainAnalysis == nil {
		return nil, nil
	}

	var grants []policy_merging.GrantDetail
	for _, result := range response.MainAnalysis.AnalysisResults {
		if result.IamBinding == nil {
			continue
		}
		groupID := originatingGroup(result.IamBinding.Members)
		for _, resource := range grantedResources(result) {
			resourceType, resourceName := splitResourceName(resource)
			grants = append(grants, policy_merging.GrantDetail{
				Role:         result.IamBinding.Role,
				ResourceType: resourceType,
				ResourceName: resourceName,
				GroupID:      groupID,
			})
		}
	}

	return grants, nil
}

// grantedResources collects the resources a single analysis result applies
// to, falling back to the resource the binding is attached to when the
// analysis carries no access control list.
func grantedResources(result *cloudasset.IamPolicyAnalysisResult) []string {
	var resources []string
	for _, acl := range result.AccessControlLists {
		for _, resource := range acl.Resources {
			resources = append(resources, resource.FullResourceName)
		}
	}
	if len(resources) == 0 && result.AttachedResourceFullName != "" {
		resources = append(resources, result.AttachedResourceFullName)
	}
	return resources
}

// originatingGroup returns the group member of the binding when the grant
// arrived via a group rather than the user directly.
func originatingGroup(members []string) string {
	for _, member := range members {
		if strings.HasPrefix(member, "group:") {
			return strings.TrimPrefix(member, "group:")
		}
	}
	return ""
}

// splitResourceName derives (type, name) from a fully-qualified resource
// name such as //cloudresourcemanager.googleapis.com/projects/123.
func splitResourceName(fullName string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(fullName, "//"), "/")
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}
