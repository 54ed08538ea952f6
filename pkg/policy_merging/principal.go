package policy_merging

import "strings"

// Member kinds as they appear in IAM policy bindings. Kinds that carry no
// reportable entitlement of their own (groups, project built-ins, deleted
// members) are collapsed into KindIgnored.
type MemberKind int

const (
	KindServiceAccount MemberKind = iota
	KindUser
	KindGroup
	KindAllUsers
	KindIgnored
)

// Principal is a parsed policy-binding member string.
type Principal struct {
	Kind      MemberKind
	Email     string
	FirstName string
	LastName  string
}

// Built-in project roles bound directly in a policy, not via an identity.
var builtInMemberTypes = map[string]bool{
	"projectOwner":  true,
	"projectEditor": true,
	"projectViewer": true,
}

// ParseMember decomposes a raw binding member into a Principal. Member
// strings come in three shapes: "type:name", "status:type:name" (status is
// "deleted" for tombstoned identities) and bare specials like "allUsers".
func ParseMember(raw string) Principal {
	parts := strings.Split(raw, ":")

	switch len(parts) {
	case 1:
		// allUsers / allAuthenticatedUsers, no type qualifier
		return Principal{
			Kind:      KindAllUsers,
			Email:     raw,
			FirstName: raw,
			LastName:  raw,
		}
	case 2:
		return classify(parts[0], parts[1])
	case 3:
		if parts[0] == "deleted" {
			return Principal{Kind: KindIgnored, Email: parts[2]}
		}
		return classify(parts[1], parts[2])
	default:
		return Principal{Kind: KindIgnored, Email: raw}
	}
}

func classify(memberType, name string) Principal {
	first := localPart(name)
	switch {
	case memberType == "serviceAccount":
		return Principal{Kind: KindServiceAccount, Email: name, FirstName: first, LastName: first}
	case memberType == "user":
		return Principal{Kind: KindUser, Email: name, FirstName: first, LastName: first}
	case memberType == "group" || builtInMemberTypes[memberType]:
		// Group membership is expanded through policy analysis, the group
		// itself is not a reportable identity.
		return Principal{Kind: KindIgnored, Email: name}
	default:
		return Principal{Kind: KindIgnored, Email: name}
	}
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
