package asset_collection

import (
	"github.com/entitlogo/entitlogo/pkg/policy_merging"
)

// Raw wire shapes for the two acquisition inputs. The remote search API and
// exported local files disagree on key naming (camelCase vs snake_case), so
// both spellings are accepted here and collapsed into the canonical
// policy_merging types before anything downstream runs.

type rawBinding struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

type rawPolicy struct {
	Bindings []rawBinding `json:"bindings"`
}

type rawPolicyRecord struct {
	Resource       string    `json:"resource"`
	AssetType      string    `json:"assetType"`
	AssetTypeSnake string    `json:"asset_type"`
	Policy         rawPolicy `json:"policy"`
}

func (r rawPolicyRecord) normalize() policy_merging.PolicyRecord {
	record := policy_merging.PolicyRecord{
		Resource:  r.Resource,
		AssetType: firstNonEmpty(r.AssetType, r.AssetTypeSnake),
	}
	for _, binding := range r.Policy.Bindings {
		record.Bindings = append(record.Bindings, policy_merging.Binding{
			Role:    binding.Role,
			Members: binding.Members,
		})
	}
	return record
}

type rawAttributes struct {
	Email         string `json:"email"`
	UniqueID      string `json:"uniqueId"`
	UniqueIDSnake string `json:"unique_id"`
}

type rawServiceAccountRecord struct {
	Name                      string         `json:"name"`
	DisplayName               string         `json:"displayName"`
	DisplayNameSnake          string         `json:"display_name"`
	AdditionalAttributes      *rawAttributes `json:"additionalAttributes"`
	AdditionalAttributesSnake *rawAttributes `json:"additional_attributes"`
}

func (r rawServiceAccountRecord) normalize() policy_merging.ServiceAccountRecord {
	attributes := r.AdditionalAttributes
	if attributes == nil {
		attributes = r.AdditionalAttributesSnake
	}
	record := policy_merging.ServiceAccountRecord{
		DisplayName: firstNonEmpty(r.DisplayName, r.DisplayNameSnake),
	}
	if attributes != nil {
		record.Email = attributes.Email
		record.UniqueID = firstNonEmpty(attributes.UniqueID, attributes.UniqueIDSnake)
	}
	return record
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
