package bootstrap

import (
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/handlers"

	"go.uber.org/zap"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth          *handlers.AuthHandler
	authorization *handlers.AuthorizationHandler
	token         *handlers.TokenHandler
	oidc          *handlers.OIDCHandler
	api           *handlers.APIHandler
	health        *handlers.HealthHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	s serviceSet,
	checks map[string]handlers.HealthChecker,
	log *zap.SugaredLogger,
) handlerSet {
	return handlerSet{
		auth:          handlers.NewAuthHandler(s.sessions, cfg.BaseURL, log),
		authorization: handlers.NewAuthorizationHandler(s.authorize, log),
		token:         handlers.NewTokenHandler(s.tokens, log),
		oidc:          handlers.NewOIDCHandler(s.sessions, s.scopes, cfg, log),
		api:           handlers.NewAPIHandler(),
		health:        handlers.NewHealthHandler(checks, healthCheckTimeout, log),
	}
}

// healthChecks lists the dependencies /health probes
func (app *Application) healthChecks() map[string]handlers.HealthChecker {
	checks := map[string]handlers.HealthChecker{"database": app.DB}
	if app.RevocationCache != nil {
		checks["revocation_cache"] = app.RevocationCache
	}
	return checks
}
