package claims

import "sort"

// Principal is the authenticated subject of one request together with its
// claims, granted scopes and resources. It is built fresh per request and
// never persisted.
type Principal struct {
	Subject   string
	Claims    []Claim
	Scopes    []string
	Resources []string
}

// UserProfile is the subset of a user record that goes into a principal.
type UserProfile struct {
	ID         string
	UserName   string
	Email      string
	Attributes map[string]string
	Roles      []string
}

// NewUserPrincipal builds the minimal principal for a user: subject, name,
// email, custom attributes and one role claim per role.
func NewUserPrincipal(u UserProfile) *Principal {
	p := &Principal{Subject: u.ID}
	p.Add(KindSubject, TypeSubject, u.ID)
	p.Add(KindName, TypeName, u.UserName)
	p.Add(KindEmail, TypeEmail, u.Email)

	keys := make([]string, 0, len(u.Attributes))
	for k := range u.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !IsCustomName(k) {
			continue
		}
		p.Add(KindCustom, k, u.Attributes[k])
	}

	p.AddRoles(u.Roles)
	return p
}

// NewInteractivePrincipal builds the principal issued from a login session.
// Only subject and name are included; the rest of the profile is served by
// the userinfo endpoint or by the token exchange.
func NewInteractivePrincipal(userID, userName string) *Principal {
	p := &Principal{Subject: userID}
	p.Add(KindSubject, TypeSubject, userID)
	p.Add(KindName, TypeName, userName)
	return p
}

// NewClientPrincipal builds a machine principal whose subject is the client id.
func NewClientPrincipal(clientID, displayName string) *Principal {
	p := &Principal{Subject: clientID}
	p.Add(KindSubject, TypeSubject, clientID)
	p.Add(KindName, TypeName, displayName)
	return p
}

// Add appends a claim. Empty values are skipped.
func (p *Principal) Add(kind Kind, claimType, value string) {
	if value == "" {
		return
	}
	p.Claims = append(p.Claims, Claim{Kind: kind, Type: claimType, Value: value})
}

// AddRoles appends one role claim per distinct role.
func (p *Principal) AddRoles(roles []string) {
	for _, role := range uniqueTrimmed(roles) {
		p.Add(KindRole, TypeRole, role)
	}
}

// Value returns the first value of the given kind.
func (p *Principal) Value(kind Kind) string {
	for _, c := range p.Claims {
		if c.Kind == kind {
			return c.Value
		}
	}
	return ""
}

// Roles returns every role carried by the principal.
func (p *Principal) Roles() []string {
	var roles []string
	for _, c := range p.Claims {
		if c.Kind == KindRole {
			roles = append(roles, c.Value)
		}
	}
	return roles
}

// SetScopes replaces the granted scopes.
func (p *Principal) SetScopes(scopes []string) {
	p.Scopes = uniqueTrimmed(scopes)
}

// SetResources replaces the granted resources.
func (p *Principal) SetResources(resources []string) {
	p.Resources = uniqueTrimmed(resources)
}

// HasScope reports whether scope was granted.
func (p *Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ApplyDestinations runs the projector over every claim instance using the
// principal's granted scopes.
func (p *Principal) ApplyDestinations() {
	granted := NewScopeSet(p.Scopes)
	for i := range p.Claims {
		p.Claims[i].Destinations = Destinations(p.Claims[i].Kind, granted)
	}
}

// Project flattens the claims bound for dest into a token claim map.
// Roles are joined into one value using RoleSeparator.
func (p *Principal) Project(dest Destination) map[string]any {
	out := make(map[string]any)
	var roles []string
	for _, c := range p.Claims {
		if !c.Destinations.Has(dest) {
			continue
		}
		if c.Kind == KindRole {
			roles = append(roles, c.Value)
			continue
		}
		if _, exists := out[c.Type]; !exists {
			out[c.Type] = c.Value
		}
	}
	if len(roles) > 0 {
		out[TypeRole] = JoinRoles(roles)
	}
	return out
}
