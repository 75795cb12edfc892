package bootstrap

import (
	"fmt"
	"time"

	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitCleanupInterval = 5 * time.Minute

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login gin.HandlerFunc
	token gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// redisClient is nil unless the redis store is selected.
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
	log *zap.SugaredLogger,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOp := func(c *gin.Context) { c.Next() }
		return rateLimitMiddlewares{login: noOp, token: noOp}, nil
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	if storeType == middleware.RateLimitStoreRedis {
		log.Info("Rate limiting enabled (store: redis)")
	} else {
		log.Info("Rate limiting enabled (store: memory, single instance only)")
	}

	createLimiter := func(requestsPerMinute int, endpoint string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			CleanupInterval:   rateLimitCleanupInterval,
			StoreType:         storeType,
			RedisClient:       redisClient,
			Endpoint:          endpoint,
			Logger:            log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter for %s: %w", endpoint, err)
		}
		return limiter, nil
	}

	login, err := createLimiter(cfg.LoginRateLimit, "/account/login")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	tokenLimiter, err := createLimiter(cfg.TokenRateLimit, "/connect/token")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	return rateLimitMiddlewares{login: login, token: tokenLimiter}, nil
}
