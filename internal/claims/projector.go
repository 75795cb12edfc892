package claims

// Destination is a bit set of the tokens a claim may be copied into.
type Destination uint8

const (
	AccessToken Destination = 1 << iota
	IdentityToken
)

// Destination names as used by OpenID Connect servers.
const (
	DestinationAccessToken   = "access_token"
	DestinationIdentityToken = "id_token"
)

// Has reports whether every destination in other is set.
func (d Destination) Has(other Destination) bool {
	return other != 0 && d&other == other
}

// Strings returns the destination names in a stable order.
func (d Destination) Strings() []string {
	out := make([]string, 0, 2)
	if d.Has(AccessToken) {
		out = append(out, DestinationAccessToken)
	}
	if d.Has(IdentityToken) {
		out = append(out, DestinationIdentityToken)
	}
	return out
}

// ScopeSet is a lookup set of granted scopes.
type ScopeSet map[string]bool

// NewScopeSet builds a ScopeSet from a list of scopes.
func NewScopeSet(scopes []string) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		set[s] = true
	}
	return set
}

// Destinations decides which tokens a claim of the given kind may be copied into.
//
// The subject always goes to both tokens. Name, email and role always go to the
// access token and reach the identity token only when the matching scope
// (profile, email, roles) was granted. Every other claim stays in the access token.
func Destinations(kind Kind, granted ScopeSet) Destination {
	switch kind {
	case KindSubject:
		return AccessToken | IdentityToken
	case KindName:
		return AccessToken | gate(granted, ScopeProfile)
	case KindEmail:
		return AccessToken | gate(granted, ScopeEmail)
	case KindRole:
		return AccessToken | gate(granted, ScopeRoles)
	default:
		return AccessToken
	}
}

func gate(granted ScopeSet, scope string) Destination {
	if granted[scope] {
		return IdentityToken
	}
	return 0
}
