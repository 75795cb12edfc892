package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/oidcgate/internal/cache"
	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/metrics"

	"go.uber.org/zap"
)

const revocationKeyPrefix = "oidcgate:revoked:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config, log *zap.SugaredLogger) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Info("Prometheus metrics initialized")
	} else {
		log.Info("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeRevocationCache builds the list of revoked token ids and
// redeemed authorization codes. Redis shares it between replicas; memory
// only works for a single instance.
func initializeRevocationCache(
	ctx context.Context,
	cfg *config.Config,
	log *zap.SugaredLogger,
) (cache.Cache[bool], error) {
	switch cfg.RevocationCacheType {
	case config.RevocationCacheTypeRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
		defer cancel()

		c, err := cache.NewRueidisCache[bool](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			revocationKeyPrefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis revocation cache: %w", err)
		}
		log.Infow("Revocation cache: redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return c, nil

	default: // memory
		log.Info("Revocation cache: memory (single instance only)")
		return cache.NewMemoryCache[bool](), nil
	}
}
