package token

import (
	"context"

	"github.com/go-authgate/oidcgate/internal/claims"

	"github.com/golang-jwt/jwt/v5"
)

// IssueAuthorizationCode wraps the interactive principal into a short-lived
// signed code bound to the client and redirect URI.
func (i *Issuer) IssueAuthorizationCode(
	ctx context.Context,
	principal *claims.Principal,
	clientID, redirectURI, nonce string,
) (string, error) {
	now := i.now()
	mc := jwt.MapClaims{
		claims.TypeSubject: principal.Subject,
		"client_id":        clientID,
		"redirect_uri":     redirectURI,
		claims.TypeScope:   claims.FormatScopes(principal.Scopes),
	}
	if name := principal.Value(claims.KindName); name != "" {
		mc[claims.TypeName] = name
	}
	if nonce != "" {
		mc["nonce"] = nonce
	}
	return i.sign(mc, TypeAuthorizationCode, now, now.Add(i.config.AuthorizationCodeExpiration))
}

// RedeemAuthorizationCode verifies and consumes a code. The client and the
// redirect URI must match the ones the code was issued for.
func (i *Issuer) RedeemAuthorizationCode(
	ctx context.Context,
	code, clientID, redirectURI string,
) (*Grant, error) {
	grant, err := i.parse(code, TypeAuthorizationCode)
	if err != nil {
		return nil, err
	}
	if grant.ClientID != clientID {
		return nil, ErrClientMismatch
	}
	if grant.RedirectURI != "" && grant.RedirectURI != redirectURI {
		return nil, ErrInvalidToken
	}
	if err := i.consume(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}
