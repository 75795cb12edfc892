package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/oidcgate/internal/cache"
	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Compile-time interface check.
var _ core.TokenIssuer = (*Issuer)(nil)

// Issuer signs and verifies HS256 tokens and keeps the revocation list.
type Issuer struct {
	config      *config.Config
	revocations cache.Cache[bool]
	now         func() time.Time
}

// NewIssuer creates a token issuer. revocations stores revoked and redeemed token ids.
func NewIssuer(cfg *config.Config, revocations cache.Cache[bool]) *Issuer {
	return &Issuer{
		config:      cfg,
		revocations: revocations,
		now:         time.Now,
	}
}

// Issue signs the projected principal. The access token carries every claim
// destined for it; an identity token is added when openid was granted and a
// refresh token when offline_access was granted.
func (i *Issuer) Issue(
	ctx context.Context,
	principal *claims.Principal,
	clientID, nonce string,
) (*Set, error) {
	now := i.now()
	accessExp := now.Add(i.config.AccessTokenExpiration)

	access := jwt.MapClaims{}
	for k, v := range principal.Project(claims.AccessToken) {
		access[k] = v
	}
	access["client_id"] = clientID
	delete(access, claims.TypeScope)
	delete(access, "aud")
	if len(principal.Scopes) > 0 {
		access[claims.TypeScope] = claims.FormatScopes(principal.Scopes)
	}
	if len(principal.Resources) > 0 {
		access["aud"] = principal.Resources
	}

	accessToken, err := i.sign(access, TypeAccess, now, accessExp)
	if err != nil {
		return nil, err
	}

	set := &Set{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(i.config.AccessTokenExpiration.Seconds()),
		Scope:       claims.FormatScopes(principal.Scopes),
	}

	if principal.HasScope(claims.ScopeOpenID) {
		if set.IDToken, err = i.generateIDToken(principal, clientID, nonce, accessToken, now); err != nil {
			return nil, err
		}
	}

	if principal.HasScope(claims.ScopeOfflineAccess) {
		refresh := jwt.MapClaims{
			claims.TypeSubject: principal.Subject,
			"client_id":        clientID,
			claims.TypeScope:   claims.FormatScopes(principal.Scopes),
		}
		set.RefreshToken, err = i.sign(
			refresh, TypeRefresh, now, now.Add(i.config.RefreshTokenExpiration),
		)
		if err != nil {
			return nil, err
		}
	}

	return set, nil
}

// sign stamps the registered claims and signs with the shared secret.
func (i *Issuer) sign(mc jwt.MapClaims, tokenType string, now, expiresAt time.Time) (string, error) {
	mc["type"] = tokenType
	mc["iss"] = i.config.BaseURL
	mc["iat"] = now.Unix()
	mc["exp"] = expiresAt.Unix()
	mc["jti"] = uuid.New().String()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	tokenString, err := token.SignedString([]byte(i.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return tokenString, nil
}

// parse verifies signature, issuer and expiry and returns the grant.
// An empty tokenType accepts every kind.
func (i *Issuer) parse(tokenString, tokenType string) (*Grant, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(i.config.JWTSecret), nil
	},
		jwt.WithIssuer(i.config.BaseURL),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	kind, _ := mc["type"].(string)
	if tokenType != "" && kind != tokenType {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, tokenType, kind)
	}

	grant := &Grant{Type: kind, Claims: mc}
	grant.ID, _ = mc["jti"].(string)
	grant.Subject, _ = mc[claims.TypeSubject].(string)
	grant.ClientID, _ = mc["client_id"].(string)
	grant.RedirectURI, _ = mc["redirect_uri"].(string)
	grant.Nonce, _ = mc["nonce"].(string)
	scope, _ := mc[claims.TypeScope].(string)
	grant.Scopes = claims.ParseScopes(scope)

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	grant.ExpiresAt = exp.Time

	if grant.ID == "" || grant.Subject == "" {
		return nil, fmt.Errorf("%w: missing jti or sub", ErrInvalidToken)
	}
	return grant, nil
}

// ValidateAccessToken verifies a bearer token and rejects revoked ones.
func (i *Issuer) ValidateAccessToken(ctx context.Context, tokenString string) (*Grant, error) {
	grant, err := i.parse(tokenString, TypeAccess)
	if err != nil {
		return nil, err
	}
	if err := i.ensureNotRevoked(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// RedeemRefreshToken verifies a refresh token issued to clientID and
// consumes it. A new refresh token is issued with every exchange.
// Requested scopes must be a subset of the granted ones; otherwise
// ErrScopeNotGranted is returned and the token stays usable.
func (i *Issuer) RedeemRefreshToken(
	ctx context.Context,
	tokenString, clientID string,
	requested []string,
) (*Grant, error) {
	grant, err := i.parse(tokenString, TypeRefresh)
	if err != nil {
		return nil, err
	}
	if clientID != "" && grant.ClientID != clientID {
		return nil, ErrClientMismatch
	}
	for _, scope := range requested {
		if !grant.HasScope(scope) {
			return nil, ErrScopeNotGranted
		}
	}
	if err := i.consume(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}
