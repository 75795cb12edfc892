package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestinations(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		scopes []string
		want   Destination
	}{
		{"subject without scopes", KindSubject, nil, AccessToken | IdentityToken},
		{"subject with all scopes", KindSubject, []string{"profile", "email", "roles"}, AccessToken | IdentityToken},
		{"name without profile", KindName, []string{"email", "roles"}, AccessToken},
		{"name with profile", KindName, []string{"profile"}, AccessToken | IdentityToken},
		{"email without email scope", KindEmail, []string{"profile"}, AccessToken},
		{"email with email scope", KindEmail, []string{"email"}, AccessToken | IdentityToken},
		{"role without roles scope", KindRole, []string{"profile", "email"}, AccessToken},
		{"role with roles scope", KindRole, []string{"roles"}, AccessToken | IdentityToken},
		{"custom with every scope", KindCustom, []string{"openid", "profile", "email", "roles"}, AccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Destinations(tt.kind, NewScopeSet(tt.scopes)))
		})
	}
}

func TestDestinationStrings(t *testing.T) {
	assert.Equal(t, []string{"access_token", "id_token"}, (AccessToken | IdentityToken).Strings())
	assert.Equal(t, []string{"access_token"}, AccessToken.Strings())
	assert.Empty(t, Destination(0).Strings())
	assert.False(t, Destination(0).Has(0))
}

func TestApplyDestinations_PerRoleInstance(t *testing.T) {
	p := NewUserPrincipal(UserProfile{
		ID:       "u-1",
		UserName: "alice",
		Email:    "alice@example.com",
		Roles:    []string{"admin", "test"},
	})
	p.SetScopes([]string{"openid", "roles"})
	p.ApplyDestinations()

	var roleClaims []Claim
	for _, c := range p.Claims {
		if c.Kind == KindRole {
			roleClaims = append(roleClaims, c)
		}
	}
	assert.Len(t, roleClaims, 2)
	for _, c := range roleClaims {
		assert.Equal(t, AccessToken|IdentityToken, c.Destinations)
	}
}

func TestSplitRoles(t *testing.T) {
	assert.Equal(t, []string{"admin", "test"}, SplitRoles("admin,test"))
	assert.Equal(t, []string{"admin", "test", "ops"}, SplitRoles("admin; test,ops"))
	assert.Equal(t, []string{"admin"}, SplitRoles("admin,,admin;"))
	assert.Empty(t, SplitRoles(""))
}

func TestJoinRoles_RoundTrip(t *testing.T) {
	roles := []string{"admin", "test"}
	assert.Equal(t, "admin,test", JoinRoles(roles))
	assert.Equal(t, roles, SplitRoles(JoinRoles(roles)))
}

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []string{"openid", "profile"}, ParseScopes("  openid profile openid "))
	assert.Empty(t, ParseScopes(""))
	assert.Equal(t, "openid profile", FormatScopes([]string{"openid", "profile"}))
}

func TestIsCustomName(t *testing.T) {
	for _, name := range []string{"qicq", "department", "locale"} {
		assert.True(t, IsCustomName(name), name)
	}
	for _, name := range []string{
		"", "sub", "name", "email", "role", "scope", "aud", "iss", "exp",
		"iat", "nbf", "jti", "type", "client_id", "nonce", "at_hash",
		"redirect_uri", "email_verified",
	} {
		assert.False(t, IsCustomName(name), name)
	}
}
