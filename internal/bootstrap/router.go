package bootstrap

import (
	"net/http"
	"time"

	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/logger"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	sessionCookieName  = "oidcgate_session"
	healthCheckTimeout = 3 * time.Second
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	s serviceSet,
	recorder metrics.Recorder,
	rateLimitRedisClient *redis.Client,
	log *zap.SugaredLogger,
) (*gin.Engine, error) {
	setupGinMode(cfg, log)
	r := gin.New()

	// Setup middleware
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log), gin.Recovery())
	r.Use(metrics.HTTPMetricsMiddleware(recorder))

	// Setup session middleware
	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", h.health.Health)

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg, log)

	// Setup rate limiting
	rateLimiters, err := setupRateLimiting(cfg, rateLimitRedisClient, log)
	if err != nil {
		return nil, err
	}

	// Setup all routes
	setupAllRoutes(r, h, s, rateLimiters, log)

	logServerStartup(cfg, log)
	return r, nil
}

// setupSessionMiddleware configures the login cookie
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, log *zap.SugaredLogger) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Info("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	s serviceSet,
	rateLimiters rateLimitMiddlewares,
	log *zap.SugaredLogger,
) {
	bearer := middleware.RequireBearer(s.tokens, log)

	// Public routes
	r.GET("/", h.auth.Home)
	r.GET("/.well-known/openid-configuration", h.oidc.Discovery)

	// Login form (browser, CSRF protected)
	account := r.Group("/account")
	account.Use(middleware.CSRFMiddleware())
	{
		account.GET("/login", h.auth.LoginPage)
		account.POST("/login", rateLimiters.login, h.auth.Login)
	}

	// OpenID Connect endpoints
	connect := r.Group("/connect")
	{
		connect.GET("/authorize", h.authorization.Authorize)
		connect.POST("/authorize", h.authorization.Authorize)
		connect.POST("/token", rateLimiters.token, h.token.Token)
		connect.POST("/revoke", h.token.Revoke)
		connect.GET("/userinfo", bearer, h.oidc.UserInfo)
		connect.POST("/userinfo", bearer, h.oidc.UserInfo)
		connect.GET("/logout", h.auth.Logout)
		connect.POST("/logout", h.auth.Logout)
	}

	// Protected test resource
	api := r.Group("/api/test")
	{
		api.GET("/secure", bearer, h.api.Secure)
		api.GET("/scoped", middleware.RequireBearer(s.tokens, log, "api"), h.api.Scoped)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config, log *zap.SugaredLogger) {
	mode := ginModeMap[cfg.IsProduction()]
	gin.SetMode(mode)
	log.Infow("Gin mode", "mode", mode)
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config, log *zap.SugaredLogger) {
	log.Infow("OpenID Connect server starting",
		"addr", cfg.ServerAddr,
		"issuer", cfg.BaseURL,
		"discovery", cfg.BaseURL+"/.well-known/openid-configuration",
	)
}
