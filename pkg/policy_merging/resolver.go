package policy_merging

import "context"

// ResolutionKind tags a directory lookup outcome so exclusion is checked
// by type rather than by comparing sentinel strings.
type ResolutionKind int

const (
	// ResolutionManaged means the email matched a customer-managed
	// service account in the directory.
	ResolutionManaged ResolutionKind = iota
	// ResolutionUnmanaged means no directory entry matched; the account
	// is platform-internal and excluded from the report.
	ResolutionUnmanaged
)

type Resolution struct {
	Kind     ResolutionKind
	UniqueID string
}

// ResolveServiceAccount scans the service-account directory for a matching
// email. Exhausting the directory without a match is not an error, it
// classifies the account as unmanaged.
func ResolveServiceAccount(email string, directory []ServiceAccountRecord) Resolution {
	if record, ok := findByEmail(email, directory); ok {
		return Resolution{Kind: ResolutionManaged, UniqueID: record.UniqueID}
	}
	return Resolution{Kind: ResolutionUnmanaged}
}

func findByEmail(email string, directory []ServiceAccountRecord) (ServiceAccountRecord, bool) {
	for _, record := range directory {
		if record.Email == email {
			return record, true
		}
	}
	return ServiceAccountRecord{}, false
}

// GroupExpander resolves a user's effective grants, including roles
// granted to groups the user transitively belongs to. Implemented by the
// asset collection layer against the policy analysis API.
type GroupExpander interface {
	ExpandUserGrants(ctx context.Context, email string) ([]GrantDetail, error)
}
