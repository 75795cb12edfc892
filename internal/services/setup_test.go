package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/oidcgate/internal/cache"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/logger"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/models"
	"github.com/go-authgate/oidcgate/internal/store"
	"github.com/go-authgate/oidcgate/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testUserName     = "vipwan@sina.com"
	testPassword     = "123456"
	testClientID     = "client_id"
	testClientSecret = "client_secret"
	testRedirectURI  = "http://localhost:7125/signin-oidc"
	testLogoutURI    = "http://localhost:7125/signout-callback-oidc"
)

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:                      "http://localhost:8080",
		JWTSecret:                    "test-secret-key-for-jwt-signing",
		AccessTokenExpiration:        time.Hour,
		IDTokenExpiration:            time.Hour,
		RefreshTokenExpiration:       24 * time.Hour,
		AuthorizationCodeExpiration:  5 * time.Minute,
		LoginPath:                    "/account/login",
		LockoutMaxFailedAttempts:     5,
		LockoutDuration:              5 * time.Minute,
		SeedDefaultData:              true,
		DefaultUser:                  testUserName,
		DefaultPassword:              testPassword,
		DefaultClientID:              testClientID,
		DefaultClientSecret:          testClientSecret,
		DefaultRedirectURI:           testRedirectURI,
		DefaultPostLogoutRedirectURI: testLogoutURI,
	}
}

// setupTestStore opens a seeded in-memory database.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:", testConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

type fixture struct {
	store      *store.Store
	users      *UserService
	clients    *ClientService
	scopes     *ScopeService
	issuer     *token.Issuer
	dispatcher *GrantDispatcher
	tokens     *TokenService
	authorize  *AuthorizeService
	sessions   *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	s := setupTestStore(t)
	m := metrics.NewNoopMetrics()
	log := logger.Nop()

	users := NewUserService(s, LockoutPolicy{
		MaxFailedAttempts: cfg.LockoutMaxFailedAttempts,
		Duration:          cfg.LockoutDuration,
	}, m)
	clients := NewClientService(s, m)
	scopes := NewScopeService(s, m)
	issuer := token.NewIssuer(cfg, cache.NewMemoryCache[bool]())
	dispatcher := NewGrantDispatcher(users, clients, scopes, m, log)

	return &fixture{
		store:      s,
		users:      users,
		clients:    clients,
		scopes:     scopes,
		issuer:     issuer,
		dispatcher: dispatcher,
		tokens:     NewTokenService(dispatcher, issuer, m, log),
		authorize:  NewAuthorizeService(users, clients, scopes, issuer, m, cfg.LoginPath),
		sessions:   NewSessionService(users, clients, m, log),
	}
}

func (f *fixture) seededUser(t *testing.T) *models.User {
	t.Helper()
	user, err := f.store.GetUserByUsername(context.Background(), testUserName)
	require.NoError(t, err)
	return user
}

// createApp registers an extra application with the given grant permissions.
func (f *fixture) createApp(t *testing.T, clientID, clientType string, grantTypes ...string) *models.Application {
	t.Helper()
	app := &models.Application{
		ClientID:     clientID,
		DisplayName:  clientID + " app",
		ClientType:   clientType,
		RedirectURIs: models.StringArray{"http://localhost:9000/callback"},
	}
	for _, gt := range grantTypes {
		app.Permissions = append(app.Permissions, models.GrantTypePermission(gt))
	}
	if clientType == models.ClientTypeConfidential {
		require.NoError(t, app.SetClientSecret(clientID+"-secret"))
	}
	require.NoError(t, f.store.CreateApplication(context.Background(), app))
	return app
}

func decodeToken(t *testing.T, raw string) jwt.MapClaims {
	t.Helper()
	mc := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, mc)
	require.NoError(t, err)
	return mc
}

func requireDenial(t *testing.T, err error, code string) *Denial {
	t.Helper()
	require.Error(t, err)
	denial, ok := err.(*Denial)
	require.Truef(t, ok, "expected *Denial, got %T: %v", err, err)
	require.Equal(t, code, denial.Code)
	return denial
}
