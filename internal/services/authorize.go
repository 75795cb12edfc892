package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"
	"github.com/go-authgate/oidcgate/internal/token"
)

const responseTypeCode = "code"

// AuthorizeRequest is an interactive authorization request together with
// the login session that came with it.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scopes       []string
	State        string
	Nonce        string

	// SessionUserID is empty when the user agent has no login session.
	SessionUserID string

	// ReturnURL is the original path plus query (or encoded form payload),
	// replayed after login.
	ReturnURL string
}

// Challenge asks the user agent to log in and come back.
type Challenge struct {
	RedirectURI string

	// StaleSession is set when the session pointed at a user that no longer exists.
	StaleSession bool
}

// AuthorizeService resolves the interactive authorize flow.
type AuthorizeService struct {
	users     core.UserStore
	apps      core.ApplicationRegistry
	resources core.ResourceResolver
	issuer    *token.Issuer
	metrics   metrics.Recorder
	loginPath string
}

func NewAuthorizeService(
	users core.UserStore,
	apps core.ApplicationRegistry,
	resources core.ResourceResolver,
	issuer *token.Issuer,
	m metrics.Recorder,
	loginPath string,
) *AuthorizeService {
	return &AuthorizeService{
		users:     users,
		apps:      apps,
		resources: resources,
		issuer:    issuer,
		metrics:   m,
		loginPath: loginPath,
	}
}

// Authorize returns where the user agent goes next: the login page, or the
// client's redirect URI carrying the authorization code and state.
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (string, *Challenge, error) {
	principal, challenge, err := s.ResolveInteractive(ctx, req)
	if err != nil {
		var denial *Denial
		if errors.As(err, &denial) {
			s.metrics.RecordAuthorize(denial.Code)
		} else {
			s.metrics.RecordAuthorize(ErrorServerError)
		}
		return "", nil, err
	}
	if challenge != nil {
		s.metrics.RecordAuthorize("challenge")
		return challenge.RedirectURI, challenge, nil
	}

	code, err := s.issuer.IssueAuthorizationCode(ctx, principal, req.ClientID, req.RedirectURI, req.Nonce)
	if err != nil {
		return "", nil, err
	}

	location, err := url.Parse(req.RedirectURI)
	if err != nil {
		return "", nil, fmt.Errorf("parse redirect uri: %w", err)
	}
	query := location.Query()
	query.Set("code", code)
	if req.State != "" {
		query.Set("state", req.State)
	}
	location.RawQuery = query.Encode()

	s.metrics.RecordAuthorize("code")
	return location.String(), nil, nil
}

// ResolveInteractive validates the client and either challenges for login or
// returns the session user's principal: subject and name only, with the
// requested scopes and their resources.
func (s *AuthorizeService) ResolveInteractive(
	ctx context.Context,
	req AuthorizeRequest,
) (*claims.Principal, *Challenge, error) {
	if _, err := s.validateClient(ctx, req); err != nil {
		return nil, nil, err
	}

	if req.SessionUserID == "" {
		return nil, s.challenge(req, false), nil
	}

	user, err := s.users.FindByID(ctx, req.SessionUserID)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, s.challenge(req, true), nil
	}
	if err != nil {
		return nil, nil, err
	}

	principal := claims.NewInteractivePrincipal(user.ID, user.UserName)
	principal.SetScopes(req.Scopes)

	resources, err := s.resources.ListResources(ctx, principal.Scopes)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve resources: %w", err)
	}
	principal.SetResources(resources)
	principal.ApplyDestinations()

	return principal, nil, nil
}

func (s *AuthorizeService) validateClient(ctx context.Context, req AuthorizeRequest) (*models.Application, error) {
	if req.ClientID == "" {
		return nil, missingParameter("client_id")
	}
	if req.ResponseType == "" {
		return nil, missingParameter("response_type")
	}
	if req.ResponseType != responseTypeCode {
		return nil, deny(ErrorUnsupportedResponseType, DescResponseTypeNotSupported)
	}

	app, err := s.apps.FindByClientID(ctx, req.ClientID)
	if errors.Is(err, core.ErrApplicationNotFound) {
		return nil, deny(ErrorInvalidClient, DescClientNotFound)
	}
	if err != nil {
		return nil, err
	}

	if req.RedirectURI == "" {
		return nil, missingParameter("redirect_uri")
	}
	if !app.HasRedirectURI(req.RedirectURI) {
		return nil, deny(ErrorInvalidRequest, DescRedirectURIInvalid)
	}
	if !s.apps.HasPermission(app, models.GrantTypePermission(GrantTypeAuthorizationCode)) {
		return nil, deny(ErrorUnauthorizedClient, DescAuthorizationCodeDenied)
	}
	return app, nil
}

func (s *AuthorizeService) challenge(req AuthorizeRequest, stale bool) *Challenge {
	return &Challenge{
		RedirectURI:  s.loginPath + "?ReturnUrl=" + url.QueryEscape(req.ReturnURL),
		StaleSession: stale,
	}
}

