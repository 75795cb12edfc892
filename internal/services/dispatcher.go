package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/oidcgate/internal/claims"
	"github.com/go-authgate/oidcgate/internal/core"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"

	"go.uber.org/zap"
)

// Grant types handled by the token endpoint.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypePassword          = "password"
)

// GrantRequest describes one token endpoint request. It is not modified
// during dispatch.
type GrantRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scopes       []string

	// Upstream is the principal carried by a redeemed authorization code or
	// refresh token. Nil when redemption failed or for other grant types.
	Upstream *claims.Principal
}

// GrantDispatcher selects exactly one grant path per request and turns it
// into a fully projected principal or a *Denial.
type GrantDispatcher struct {
	users     core.UserStore
	apps      core.ApplicationRegistry
	resources core.ResourceResolver
	metrics   metrics.Recorder
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewGrantDispatcher(
	users core.UserStore,
	apps core.ApplicationRegistry,
	resources core.ResourceResolver,
	m metrics.Recorder,
	log *zap.SugaredLogger,
) *GrantDispatcher {
	return &GrantDispatcher{
		users:     users,
		apps:      apps,
		resources: resources,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Dispatch runs the grant path selected by req.GrantType. Expected failures
// are returned as *Denial; any other error is a store fault.
func (d *GrantDispatcher) Dispatch(ctx context.Context, req GrantRequest) (*claims.Principal, error) {
	start := time.Now()
	principal, err := d.dispatch(ctx, req)

	result := "success"
	var denial *Denial
	switch {
	case errors.As(err, &denial):
		result = denial.Code
	case err != nil:
		result = ErrorServerError
	}
	d.metrics.RecordGrant(req.GrantType, result, time.Since(start))

	return principal, err
}

func (d *GrantDispatcher) dispatch(ctx context.Context, req GrantRequest) (*claims.Principal, error) {
	switch req.GrantType {
	case GrantTypeAuthorizationCode, GrantTypeRefreshToken:
		return d.exchangeUpstream(ctx, req)
	case GrantTypeClientCredentials:
		return d.clientCredentials(ctx, req)
	case GrantTypePassword:
		return d.password(ctx, req)
	default:
		return nil, deny(ErrorUnsupportedGrantType, DescUnsupportedGrantType)
	}
}

// exchangeUpstream handles authorization_code and refresh_token. The claims
// of the upstream principal are never reused.
func (d *GrantDispatcher) exchangeUpstream(ctx context.Context, req GrantRequest) (*claims.Principal, error) {
	if req.Upstream == nil || req.Upstream.Subject == "" {
		return nil, deny(ErrorInvalidGrant, DescTokenNoLongerValid)
	}

	user, err := d.users.FindByID(ctx, req.Upstream.Subject)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, deny(ErrorInvalidGrant, DescTokenNoLongerValid)
	}
	if err != nil {
		return nil, err
	}

	scopes, err := narrowScopes(req.Upstream.Scopes, req.Scopes)
	if err != nil {
		return nil, err
	}

	principal, err := d.rebuildPrincipal(ctx, user)
	if err != nil {
		return nil, err
	}
	return d.finalize(ctx, principal, scopes)
}

// narrowScopes returns the upstream scopes, or the requested subset of them.
// Asking for a scope that was never granted is rejected.
func narrowScopes(granted, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return granted, nil
	}
	allowed := claims.NewScopeSet(granted)
	for _, scope := range requested {
		if !allowed[scope] {
			return nil, deny(ErrorInvalidScope, DescScopeNotGranted)
		}
	}
	return requested, nil
}

func (d *GrantDispatcher) clientCredentials(ctx context.Context, req GrantRequest) (*claims.Principal, error) {
	if req.ClientID == "" {
		return nil, deny(ErrorInvalidClient, DescClientNotFound)
	}
	app, err := d.authenticateClient(ctx, req, GrantTypeClientCredentials, DescClientCredentialsDenied)
	if err != nil {
		return nil, err
	}

	principal := claims.NewClientPrincipal(app.ClientID, app.DisplayName)
	return d.finalize(ctx, principal, req.Scopes)
}

func (d *GrantDispatcher) password(ctx context.Context, req GrantRequest) (*claims.Principal, error) {
	// Client authentication is optional here only when client_id is omitted.
	if req.ClientID != "" {
		if _, err := d.authenticateClient(ctx, req, GrantTypePassword, DescPasswordDenied); err != nil {
			return nil, err
		}
	}

	user, err := verifyPassword(ctx, d.users, d.log, d.now(), req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	principal, err := d.rebuildPrincipal(ctx, user)
	if err != nil {
		return nil, err
	}
	return d.finalize(ctx, principal, req.Scopes)
}

// authenticateClient resolves the application, checks its secret and the
// permission for grantType. Unknown client and wrong secret share one denial.
func (d *GrantDispatcher) authenticateClient(
	ctx context.Context,
	req GrantRequest,
	grantType, deniedDescription string,
) (*models.Application, error) {
	app, err := d.apps.FindByClientID(ctx, req.ClientID)
	if errors.Is(err, core.ErrApplicationNotFound) {
		return nil, deny(ErrorInvalidClient, DescClientNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !d.apps.ValidateClientSecret(app, req.ClientSecret) {
		return nil, deny(ErrorInvalidClient, DescClientNotFound)
	}

	if !d.apps.HasPermission(app, models.GrantTypePermission(grantType)) {
		return nil, deny(ErrorUnauthorizedClient, deniedDescription)
	}
	return app, nil
}

// rebuildPrincipal builds a minimal principal from the current user record:
// subject, name, email, custom attributes and one claim per role. It is the
// only way user claims enter a token, so profile or role changes made after
// a code or refresh token was issued are always reflected.
func (d *GrantDispatcher) rebuildPrincipal(ctx context.Context, user *models.User) (*claims.Principal, error) {
	roles, err := d.users.GetRoles(ctx, user)
	if err != nil {
		return nil, err
	}
	return claims.NewUserPrincipal(claims.UserProfile{
		ID:         user.ID,
		UserName:   user.UserName,
		Email:      user.Email,
		Attributes: user.Attributes,
		Roles:      roles,
	}), nil
}

// finalize attaches scopes and resources and runs the projector over every claim.
func (d *GrantDispatcher) finalize(
	ctx context.Context,
	principal *claims.Principal,
	scopes []string,
) (*claims.Principal, error) {
	principal.SetScopes(scopes)

	resources, err := d.resources.ListResources(ctx, principal.Scopes)
	if err != nil {
		return nil, fmt.Errorf("resolve resources: %w", err)
	}
	principal.SetResources(resources)

	principal.ApplyDestinations()
	for _, c := range principal.Claims {
		d.log.Debugw("claim projected",
			"subject", principal.Subject,
			"kind", c.Kind.String(),
			"type", c.Type,
			"destinations", c.Destinations.Strings(),
		)
	}
	return principal, nil
}
