package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/oidcgate/internal/cache"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/metrics"
	"github.com/go-authgate/oidcgate/internal/store"
	"github.com/go-authgate/oidcgate/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Log    *zap.SugaredLogger

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	RevocationCache      cache.Cache[bool]
	RateLimitRedisClient *redis.Client

	// Business layer
	Issuer   *token.Issuer
	Services serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config, log *zap.SugaredLogger) error {
	app := &Application{
		Config: cfg,
		Log:    log,
	}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	ctx := context.Background()
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, the revocation cache
// and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config, app.Log)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config, app.Log)

	// Revocation list
	app.RevocationCache, err = initializeRevocationCache(ctx, app.Config, app.Log)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config, app.Log)
	if err != nil {
		return err
	}

	return nil
}

// closeInfrastructure releases whatever initializeInfrastructure opened
// before a later phase failed.
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	if app.RevocationCache != nil {
		_ = app.RevocationCache.Close()
	}
	if app.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.Config.DBCloseTimeout)
		defer cancel()
		_ = app.DB.Close(ctx)
	}
}

// initializeBusinessLayer sets up the token issuer and services
func (app *Application) initializeBusinessLayer() {
	app.Issuer = token.NewIssuer(app.Config, app.RevocationCache)
	app.Services = initializeServices(
		app.Config,
		app.DB,
		app.Issuer,
		app.MetricsRecorder,
		app.Log,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.Config, app.Services, app.healthChecks(), app.Log)

	router, err := setupRouter(
		app.Config,
		app.HandlerSet,
		app.Services,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
		app.Log,
	)
	if err != nil {
		return err
	}
	app.Router = router

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server, app.Log)
	addServerShutdownJob(m, app.Server, app.Config, app.Log)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient, app.Log)
	addRevocationCacheShutdownJob(m, app.RevocationCache, app.Log)
	addDatabaseShutdownJob(m, app.DB, app.Config, app.Log)

	// Wait for graceful shutdown
	<-m.Done()
}
