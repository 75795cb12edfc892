package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/token"

	"go.uber.org/zap"
)

// Token type hints accepted by the revocation endpoint.
const (
	TokenTypeHintAccessToken  = "access_token"
	TokenTypeHintRefreshToken = "refresh_token"
)

// TokenRequest is the form of a token endpoint request.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	RefreshToken string
	Username     string
	Password     string
	Scopes       []string
}

// TokenService runs the token, revocation and bearer validation flows on
// top of the grant dispatcher and the token issuer.
type TokenService struct {
	dispatcher *GrantDispatcher
	issuer     *token.Issuer
	metrics    metrics.Recorder
	log        *zap.SugaredLogger
}

func NewTokenService(
	dispatcher *GrantDispatcher,
	issuer *token.Issuer,
	m metrics.Recorder,
	log *zap.SugaredLogger,
) *TokenService {
	return &TokenService{
		dispatcher: dispatcher,
		issuer:     issuer,
		metrics:    m,
		log:        log,
	}
}

// Exchange redeems the presented credentials and issues a new token set.
func (s *TokenService) Exchange(ctx context.Context, req TokenRequest) (*token.Set, error) {
	grant := GrantRequest{
		GrantType:    req.GrantType,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Username:     req.Username,
		Password:     req.Password,
		Scopes:       req.Scopes,
	}

	var nonce string
	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		if req.Code == "" {
			return nil, missingParameter("code")
		}
		if _, err := s.dispatcher.authenticateClient(
			ctx, grant, GrantTypeAuthorizationCode, DescAuthorizationCodeDenied,
		); err != nil {
			return nil, err
		}
		redeemed, err := s.issuer.RedeemAuthorizationCode(ctx, req.Code, req.ClientID, req.RedirectURI)
		if err := s.redeemFailure(err); err != nil {
			return nil, err
		}
		if redeemed != nil {
			grant.Upstream = redeemed.Upstream()
			nonce = redeemed.Nonce
		}

	case GrantTypeRefreshToken:
		if req.RefreshToken == "" {
			return nil, missingParameter("refresh_token")
		}
		if _, err := s.dispatcher.authenticateClient(
			ctx, grant, GrantTypeRefreshToken, DescRefreshTokenDenied,
		); err != nil {
			return nil, err
		}
		redeemed, err := s.issuer.RedeemRefreshToken(ctx, req.RefreshToken, req.ClientID, req.Scopes)
		if errors.Is(err, token.ErrScopeNotGranted) {
			return nil, deny(ErrorInvalidScope, DescScopeNotGranted)
		}
		if err := s.redeemFailure(err); err != nil {
			return nil, err
		}
		if redeemed != nil {
			grant.Upstream = redeemed.Upstream()
		}
	}

	principal, err := s.dispatcher.Dispatch(ctx, grant)
	if err != nil {
		return nil, err
	}

	set, err := s.issuer.Issue(ctx, principal, req.ClientID, nonce)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTokenIssued(token.TypeAccess)
	if set.IDToken != "" {
		s.metrics.RecordTokenIssued(token.TypeIdentity)
	}
	if set.RefreshToken != "" {
		s.metrics.RecordTokenIssued(token.TypeRefresh)
	}
	return set, nil
}

// redeemFailure keeps infrastructure faults and drops every verification
// failure. A rejected code or refresh token leaves the upstream principal
// empty and the dispatcher denies the grant.
func (s *TokenService) redeemFailure(err error) error {
	if errors.Is(err, token.ErrRevocationUnavailable) {
		return err
	}
	if err != nil {
		s.log.Debugw("token redemption rejected", "error", err)
	}
	return nil
}

// Revoke puts the token on the revocation list. Once the request is well
// formed it always succeeds, whether or not the token was valid.
func (s *TokenService) Revoke(ctx context.Context, raw, hint string) error {
	if raw == "" {
		return deny(ErrorInvalidRequest, DescTokenRequired)
	}
	if hint != "" &&
		!strings.EqualFold(hint, TokenTypeHintAccessToken) &&
		!strings.EqualFold(hint, TokenTypeHintRefreshToken) {
		return deny(ErrorUnsupportedTokenType, DescUnsupportedTokenType)
	}

	kind, err := s.issuer.Revoke(ctx, raw)
	if err != nil {
		s.log.Errorw("failed to record token revocation", "error", err)
		return nil
	}
	if kind != "" {
		s.metrics.RecordTokenRevoked(kind)
	}
	return nil
}

// ValidateBearer verifies an access token presented by a resource request.
func (s *TokenService) ValidateBearer(ctx context.Context, raw string) (*token.Grant, error) {
	if raw == "" {
		s.metrics.RecordTokenValidation("missing")
		return nil, deny(ErrorInvalidToken, DescInvalidAccessToken)
	}

	grant, err := s.issuer.ValidateAccessToken(ctx, raw)
	switch {
	case err == nil:
		s.metrics.RecordTokenValidation("valid")
		return grant, nil
	case errors.Is(err, token.ErrRevocationUnavailable):
		s.metrics.RecordTokenValidation("error")
		return nil, err
	case errors.Is(err, token.ErrExpiredToken):
		s.metrics.RecordTokenValidation("expired")
	case errors.Is(err, token.ErrRevokedToken):
		s.metrics.RecordTokenValidation("revoked")
	default:
		s.metrics.RecordTokenValidation("invalid")
	}
	return nil, deny(ErrorInvalidToken, DescInvalidAccessToken)
}
