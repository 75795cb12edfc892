package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserPrincipal(t *testing.T) {
	p := NewUserPrincipal(UserProfile{
		ID:         "u-1",
		UserName:   "vipwan@sina.com",
		Email:      "vipwan@sina.com",
		Attributes: map[string]string{
			"qicq":  "123456",
			"sub":   "spoofed",
			"scope": "api",
			"aud":   "elsewhere",
			"nonce": "forged",
		},
		Roles:      []string{"admin", "test", "admin"},
	})

	assert.Equal(t, "u-1", p.Subject)
	assert.Equal(t, "u-1", p.Value(KindSubject))
	assert.Equal(t, "vipwan@sina.com", p.Value(KindName))
	assert.Equal(t, "vipwan@sina.com", p.Value(KindEmail))
	assert.Equal(t, []string{"admin", "test"}, p.Roles())

	var custom []Claim
	for _, c := range p.Claims {
		if c.Kind == KindCustom {
			custom = append(custom, c)
		}
	}
	require.Len(t, custom, 1, "attributes shadowing issuer claims are dropped")
	assert.Equal(t, "qicq", custom[0].Type)
}

func TestNewInteractivePrincipal_OnlySubjectAndName(t *testing.T) {
	p := NewInteractivePrincipal("u-1", "alice")
	require.Len(t, p.Claims, 2)
	assert.Equal(t, KindSubject, p.Claims[0].Kind)
	assert.Equal(t, KindName, p.Claims[1].Kind)
}

func TestNewClientPrincipal(t *testing.T) {
	p := NewClientPrincipal("client_id", "Demo")
	assert.Equal(t, "client_id", p.Subject)
	assert.Equal(t, "Demo", p.Value(KindName))
	assert.Empty(t, p.Roles())
}

func TestPrincipal_AddSkipsEmpty(t *testing.T) {
	p := NewUserPrincipal(UserProfile{ID: "u-1", UserName: "alice"})
	assert.Equal(t, "", p.Value(KindEmail))
	assert.Len(t, p.Claims, 2)
}

func TestPrincipal_Project(t *testing.T) {
	p := NewUserPrincipal(UserProfile{
		ID:         "u-1",
		UserName:   "alice",
		Email:      "alice@example.com",
		Attributes: map[string]string{"qicq": "42"},
		Roles:      []string{"admin", "test"},
	})
	p.SetScopes([]string{"openid", "email"})
	p.ApplyDestinations()

	access := p.Project(AccessToken)
	assert.Equal(t, "u-1", access["sub"])
	assert.Equal(t, "alice", access["name"])
	assert.Equal(t, "alice@example.com", access["email"])
	assert.Equal(t, "42", access["qicq"])
	assert.Equal(t, "admin,test", access["role"])

	identity := p.Project(IdentityToken)
	assert.Equal(t, "u-1", identity["sub"])
	assert.Equal(t, "alice@example.com", identity["email"])
	assert.NotContains(t, identity, "name")
	assert.NotContains(t, identity, "role")
	assert.NotContains(t, identity, "qicq")
}

func TestPrincipal_ScopesDeduplicated(t *testing.T) {
	p := &Principal{}
	p.SetScopes([]string{"openid", "openid", " ", "api"})
	assert.Equal(t, []string{"openid", "api"}, p.Scopes)
	assert.True(t, p.HasScope("api"))
	assert.False(t, p.HasScope("roles"))
}
