package token

import (
	"time"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/core"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"
)

// Values of the "type" claim that tell the token kinds apart.
const (
	TypeAccess            = "access"
	TypeRefresh           = "refresh"
	TypeIdentity          = "id"
	TypeAuthorizationCode = "code"
)

// Set is an alias for core.TokenSet.
type Set = core.TokenSet

// Grant is the verified content of an access token, refresh token or
// authorization code.
type Grant struct {
	Type        string
	ID          string // jti
	Subject     string
	ClientID    string
	Scopes      []string
	RedirectURI string // authorization codes only
	Nonce       string // authorization codes only
	ExpiresAt   time.Time
	Claims      map[string]any
}

// Upstream returns the principal carried by a redeemed code or refresh
// token. It holds the subject and scopes only; the grant paths rebuild the
// claims from the current user record.
func (g *Grant) Upstream() *claims.Principal {
	p := &claims.Principal{Subject: g.Subject}
	p.SetScopes(g.Scopes)
	return p
}

// HasScope reports whether scope was granted.
func (g *Grant) HasScope(scope string) bool {
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
