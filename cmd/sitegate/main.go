package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/buildright/sitegate/pkg/api"
	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/config"
	"github.com/buildright/sitegate/pkg/observability"
	"github.com/buildright/sitegate/pkg/ratelimit"
	"github.com/buildright/sitegate/pkg/routes"
	"github.com/buildright/sitegate/pkg/store"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger("info", os.Stderr).WithError(err).Fatal("invalid configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	// Route rules: compiled-in defaults, optionally overridden from YAML.
	rules := routes.DefaultRules()
	if cfg.Routes.RulesFile != "" {
		rules, err = routes.LoadRules(cfg.Routes.RulesFile)
		if err != nil {
			logger.WithError(err).Fatal("failed to load route rules")
		}
		logger.WithField("file", cfg.Routes.RulesFile).Info("route rules loaded")
	}

	sessions, err := auth.NewSessionManager([]byte(cfg.Session.Secret), cfg.Session.TTL, cfg.Session.Secure)
	if err != nil {
		logger.WithError(err).Fatal("failed to create session manager")
	}

	// Limiter store. Missing configuration was already rejected at config
	// validation unless limiting is explicitly disabled.
	var redisClient *redis.Client
	var apiLimiter, loginEmailLimiter, loginIPLimiter, signupIPLimiter ratelimit.Limiter
	if !cfg.RateLimit.Disabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisURL,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.WithError(err).Fatal("limiter store unreachable; set SITEGATE_RATELIMIT_DISABLED=true to run without rate limiting")
		}
		cancel()

		mustLimiter := func(scope ratelimit.Scope, limiterCfg ratelimit.Config) ratelimit.Limiter {
			limiter, err := ratelimit.NewRedisLimiter(redisClient, scope, limiterCfg)
			if err != nil {
				logger.WithError(err).WithField("scope", scope).Fatal("failed to create limiter")
			}
			return limiter
		}
		apiLimiter = mustLimiter(ratelimit.ScopeGlobalAPI, ratelimit.GlobalAPIConfig())
		loginEmailLimiter = mustLimiter(ratelimit.ScopeLoginEmail, ratelimit.LoginEmailConfig())
		loginIPLimiter = mustLimiter(ratelimit.ScopeLoginIP, ratelimit.LoginIPConfig())
		signupIPLimiter = mustLimiter(ratelimit.ScopeSignupIP, ratelimit.SignupIPConfig())
		logger.Info("rate limiting enabled")
	} else {
		logger.Warn("rate limiting explicitly disabled")
	}

	// Document store.
	var dataStore store.Store
	var mongoClient *mongo.Client
	if cfg.Store.UseMemory {
		dataStore = store.NewMemoryStore()
		logger.Warn("using in-memory store; data is not persisted")
	} else {
		mongoStore, err := store.NewMongoStore(context.Background(),
			cfg.Store.MongoURL, cfg.Store.MongoDatabase, cfg.Store.MongoTimeout)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to document store")
		}
		dataStore = mongoStore
		mongoClient = mongoStore.Client()
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	server, err := api.NewServer(api.Options{
		Store:             dataStore,
		Sessions:          sessions,
		Rules:             rules,
		Logger:            logger,
		Metrics:           metrics,
		APILimiter:        apiLimiter,
		LoginEmailLimiter: loginEmailLimiter,
		LoginIPLimiter:    loginIPLimiter,
		SignupIPLimiter:   signupIPLimiter,
		FailOpen:          cfg.RateLimit.FailurePolicy == config.FailOpen,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to build server")
	}

	appServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes and scraping.
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(redisClient, mongoClient))
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, appServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return dataStore.Close(ctx)
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", appServer.Addr).Info("gateway listening")
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return shutdown.WaitForShutdown()
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}
