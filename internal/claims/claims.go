package claims

import "strings"

// Kind is the closed set of claim categories the projector knows about.
// The wire name of a claim lives in Claim.Type; Kind drives the destination rules.
type Kind int

const (
	KindCustom Kind = iota
	KindSubject
	KindName
	KindEmail
	KindRole
)

// Wire names of the standard claims.
const (
	TypeSubject       = "sub"
	TypeName          = "name"
	TypeEmail         = "email"
	TypeEmailVerified = "email_verified"
	TypeRole          = "role"
	TypeScope         = "scope"
)

// Standard scopes that gate identity token disclosure.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeRoles         = "roles"
	ScopeOfflineAccess = "offline_access"
)

// RoleSeparator joins multiple roles into the single wire value of the role claim.
const RoleSeparator = ","

// String returns the wire name for standard kinds and "custom" otherwise.
func (k Kind) String() string {
	switch k {
	case KindSubject:
		return TypeSubject
	case KindName:
		return TypeName
	case KindEmail:
		return TypeEmail
	case KindRole:
		return TypeRole
	default:
		return "custom"
	}
}

// KindOf maps a wire claim name back to its Kind.
func KindOf(claimType string) Kind {
	switch claimType {
	case TypeSubject:
		return KindSubject
	case TypeName:
		return KindName
	case TypeEmail:
		return KindEmail
	case TypeRole:
		return KindRole
	default:
		return KindCustom
	}
}

// reservedClaims are set by the issuer itself. A custom attribute with one of
// these names is never copied into a token or the userinfo response.
var reservedClaims = map[string]bool{
	"iss": true, "sub": true, "aud": true, "exp": true, "iat": true,
	"nbf": true, "jti": true, "type": true, "azp": true,
	"scope": true, "client_id": true, "nonce": true, "at_hash": true,
	"redirect_uri": true, "email_verified": true, "role": true,
	"name": true, "email": true,
}

// IsCustomName reports whether claimType may carry a custom user attribute.
func IsCustomName(claimType string) bool {
	return claimType != "" && !reservedClaims[claimType] && KindOf(claimType) == KindCustom
}

// Claim is a single (type, value, destinations) triple.
// Destinations is computed at issuance time and is zero until the projector runs.
type Claim struct {
	Kind         Kind
	Type         string
	Value        string
	Destinations Destination
}

// JoinRoles serializes roles into the single wire value of the role claim.
func JoinRoles(roles []string) string {
	return strings.Join(roles, RoleSeparator)
}

// SplitRoles parses a wire role value. Both "," and ";" are accepted as
// separators; blanks and duplicates are dropped and order is preserved.
func SplitRoles(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	return uniqueTrimmed(parts)
}

// ParseScopes splits a space-delimited scope parameter (RFC 6749 §3.3).
func ParseScopes(scope string) []string {
	return uniqueTrimmed(strings.Fields(scope))
}

// FormatScopes is the inverse of ParseScopes.
func FormatScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

func uniqueTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
