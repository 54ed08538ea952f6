package policy_merging

// Canonical in-memory shapes for the two acquisition inputs. The asset
// collection layer normalizes both key-naming variants of the remote and
// local schemas into these before the merge ever runs, so nothing below
// branches on key spelling.

// PolicyRecord is one resource's IAM policy search result.
type PolicyRecord struct {
	Resource  string
	AssetType string
	Bindings  []Binding
}

// Binding is a (role, members) pair attached to a resource.
type Binding struct {
	Role    string
	Members []string
}

// ServiceAccountRecord is one directory entry for a customer-managed
// service account.
type ServiceAccountRecord struct {
	Email       string
	UniqueID    string
	DisplayName string
}

// GrantDetail is one expanded grant returned by group-aware policy
// analysis for a user identity. GroupID is set when the grant arrived via
// a group the user transitively belongs to.
type GrantDetail struct {
	Role         string
	ResourceType string
	ResourceName string
	GroupID      string
}
