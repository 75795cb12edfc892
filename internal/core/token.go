package core

import (
	"context"

	"github.com/go-authgate/oidcgate/internal/claims"
)

// TokenSet is the token endpoint response body.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenIssuer signs a fully projected principal into tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, principal *claims.Principal, clientID, nonce string) (*TokenSet, error)
}
