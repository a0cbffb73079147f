package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"rewards/internal/amqp"
	"rewards/internal/backend"
	"rewards/internal/cache"
	"rewards/internal/cli"
	"rewards/internal/config"
	"rewards/internal/core"
	apphttp "rewards/internal/http"
	"rewards/internal/log"
	"rewards/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Warn("Ignoring unreadable .env file", log.FieldError, err)
	}

	bootLogger := cli.SetupLogger("info", "text")
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("Rewards server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}

	opts := []services.Option{services.WithLogger(logger)}

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	var rewardCache *cache.LRUCache[core.RewardResponse]
	if cfg.CacheEnabled() {
		rewardCache = cache.NewLRUCache[core.RewardResponse](cfg.CacheSize, cfg.CacheTTL)
		cacheManager.Register(rewardCache)
		opts = append(opts, services.WithCache(rewardCache))
		logger.Info("Reward cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
		if err != nil {
			// Rewards are still served without the event stream.
			logger.Warn("AMQP unavailable, reward updates will not be published", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(client))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewRewardService(result.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithReadinessCheck(func(ctx context.Context) error {
			_, err := result.Store.CustomerIDs(ctx)
			return err
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting rewards server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := cacheManager.Run(gctx, time.Minute); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.Shutdown(logger, cfg.ShutdownTimeout,
			srv.Shutdown,
			func(context.Context) error { return svc.Close() },
			func(context.Context) error {
				if rewardCache != nil {
					st := rewardCache.Stats()
					logger.Info("Reward cache stats", "hits", st.Hits, "misses", st.Misses, "size", st.Size)
				}
				return nil
			},
		)
	})

	return g.Wait()
}
