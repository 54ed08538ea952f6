package policy_merging

import (
	"context"
	"fmt"
	"strings"
)

// Asset types with this prefix are organization-policy objects, not IAM
// grants, and carry no bindings worth reporting.
const orgPolicyAssetPrefix = "orgpolicy.googleapis.com/"

// Merge walks every resource's policy bindings and accumulates one
// Entitlement record per identity, merging repeat appearances. Service
// accounts are resolved against the directory; user identities are
// expanded through the GroupExpander once per run when an orgID is
// supplied. An expander failure aborts the whole merge.
func Merge(ctx context.Context, policies []PolicyRecord, serviceAccounts []ServiceAccountRecord, orgID string, expander GroupExpander) (*Report, error) {
	report := NewReport()

	for _, policy := range policies {
		if strings.HasPrefix(policy.AssetType, orgPolicyAssetPrefix) {
			continue
		}

		for _, binding := range policy.Bindings {
			for _, member := range binding.Members {
				principal := ParseMember(member)
				if principal.Kind == KindIgnored {
					continue
				}

				if principal.Kind == KindUser && orgID != "" && expander != nil {
					// One analysis call per user per run; the expanded
					// grant set already covers every resource, so later
					// sightings of the same user add nothing.
					if report.Has(principal.Email) {
						continue
					}
					grants, err := expander.ExpandUserGrants(ctx, principal.Email)
					if err != nil {
						return nil, fmt.Errorf("failed to expand grants for %s: %v", principal.Email, err)
					}
					record := report.Upsert(principal, principal.Email)
					for _, grant := range grants {
						record.Entitlements = append(record.Entitlements, FormatGrant(grant))
					}
					continue
				}

				uniqueID := principal.Email
				if principal.Kind == KindServiceAccount {
					resolution := ResolveServiceAccount(principal.Email, serviceAccounts)
					if resolution.Kind == ResolutionUnmanaged {
						continue
					}
					uniqueID = resolution.UniqueID
				}

				record := report.Upsert(principal, uniqueID)
				record.Entitlements = append(record.Entitlements,
					FormatEntitlement(binding.Role, policy.AssetType, policy.Resource))
			}
		}
	}

	return report, nil
}

// FormatEntitlement renders one "role on resource" fact as
// <role>_<resource type>_(<resource name>), role without its roles/
// prefix, type and name being the trailing path segments of the asset
// type and the fully-qualified resource name.
func FormatEntitlement(role, assetType, resource string) string {
	return fmt.Sprintf("%s_%s_(%s)",
		strings.TrimPrefix(role, "roles/"), lastSegment(assetType), lastSegment(resource))
}

// FormatGrant renders an expanded user grant, appending group provenance
// when the grant arrived via a group.
func FormatGrant(grant GrantDetail) string {
	entitlement := fmt.Sprintf("%s_%s_(%s)",
		strings.TrimPrefix(grant.Role, "roles/"), grant.ResourceType, grant.ResourceName)
	if grant.GroupID != "" {
		entitlement = fmt.Sprintf("%s_group_(%s)", entitlement, grant.GroupID)
	}
	return entitlement
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
