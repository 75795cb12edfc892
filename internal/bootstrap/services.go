package bootstrap

import (
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/services"
	"github.com/go-authgate/oidcgate/internal/store"
	"github.com/go-authgate/oidcgate/internal/token"

	"go.uber.org/zap"
)

// serviceSet holds every business service
type serviceSet struct {
	users      *services.UserService
	clients    *services.ClientService
	scopes     *services.ScopeService
	dispatcher *services.GrantDispatcher
	tokens     *services.TokenService
	authorize  *services.AuthorizeService
	sessions   *services.SessionService
}

// initializeServices wires the services on top of the store and the token issuer
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	issuer *token.Issuer,
	m metrics.Recorder,
	log *zap.SugaredLogger,
) serviceSet {
	users := services.NewUserService(db, services.LockoutPolicy{
		MaxFailedAttempts: cfg.LockoutMaxFailedAttempts,
		Duration:          cfg.LockoutDuration,
	}, m)
	clients := services.NewClientService(db, m)
	scopes := services.NewScopeService(db, m)
	dispatcher := services.NewGrantDispatcher(users, clients, scopes, m, log)

	return serviceSet{
		users:      users,
		clients:    clients,
		scopes:     scopes,
		dispatcher: dispatcher,
		tokens:     services.NewTokenService(dispatcher, issuer, m, log),
		authorize:  services.NewAuthorizeService(users, clients, scopes, issuer, m, cfg.LoginPath),
		sessions:   services.NewSessionService(users, clients, m, log),
	}
}
