package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/oidcgate/internal/cache"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/logger"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/middleware"
	"github.com/go-authgate/oidcgate/internal/services"
	"github.com/go-authgate/oidcgate/internal/store"
	"github.com/go-authgate/oidcgate/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
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

type testServer struct {
	router *gin.Engine
	store  *store.Store
	jar    map[string]*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
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
	log := logger.Nop()
	m := metrics.NewNoopMetrics()

	s, err := store.New(context.Background(), "sqlite", ":memory:", cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	users := services.NewUserService(s, services.LockoutPolicy{
		MaxFailedAttempts: cfg.LockoutMaxFailedAttempts,
		Duration:          cfg.LockoutDuration,
	}, m)
	clients := services.NewClientService(s, m)
	scopes := services.NewScopeService(s, m)
	issuer := token.NewIssuer(cfg, cache.NewMemoryCache[bool]())
	dispatcher := services.NewGrantDispatcher(users, clients, scopes, m, log)
	tokens := services.NewTokenService(dispatcher, issuer, m, log)
	sessionService := services.NewSessionService(users, clients, m, log)

	authHandler := NewAuthHandler(sessionService, cfg.BaseURL, log)
	authorizationHandler := NewAuthorizationHandler(
		services.NewAuthorizeService(users, clients, scopes, issuer, m, cfg.LoginPath), log)
	tokenHandler := NewTokenHandler(tokens, log)
	oidcHandler := NewOIDCHandler(sessionService, scopes, cfg, log)
	apiHandler := NewAPIHandler()
	healthHandler := NewHealthHandler(map[string]HealthChecker{"database": s}, time.Second, log)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(sessions.Sessions("oidcgate_session", cookie.NewStore([]byte("session-secret"))))

	r.GET("/", authHandler.Home)
	r.GET("/health", healthHandler.Health)
	r.GET("/.well-known/openid-configuration", oidcHandler.Discovery)

	account := r.Group("/account", middleware.CSRFMiddleware())
	account.GET("/login", authHandler.LoginPage)
	account.POST("/login", authHandler.Login)

	bearer := middleware.RequireBearer(tokens, log)
	connect := r.Group("/connect")
	connect.GET("/authorize", authorizationHandler.Authorize)
	connect.POST("/authorize", authorizationHandler.Authorize)
	connect.POST("/token", tokenHandler.Token)
	connect.POST("/revoke", tokenHandler.Revoke)
	connect.GET("/userinfo", bearer, oidcHandler.UserInfo)
	connect.POST("/userinfo", bearer, oidcHandler.UserInfo)
	connect.GET("/logout", authHandler.Logout)
	connect.POST("/logout", authHandler.Logout)

	api := r.Group("/api/test")
	api.GET("/secure", bearer, apiHandler.Secure)
	api.GET("/scoped", middleware.RequireBearer(tokens, log, "api"), apiHandler.Scoped)

	return &testServer{router: r, store: s, jar: map[string]*http.Cookie{}}
}

// do sends a request carrying and collecting cookies like a browser would.
func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range ts.jar {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(ts.jar, c.Name)
			continue
		}
		ts.jar[c.Name] = c
	}
	return w
}

func (ts *testServer) get(target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return ts.do(req)
}

func (ts *testServer) postForm(target string, form url.Values, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return ts.do(req)
}
