package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/avatarctic/contract-admin/configs"
	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/application/services"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/infrastructure/health"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpclient"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver"
	"github.com/avatarctic/contract-admin/internal/infrastructure/metrics"
	"github.com/avatarctic/contract-admin/internal/infrastructure/redis"
	"github.com/avatarctic/contract-admin/internal/infrastructure/sessionstore"
	"github.com/avatarctic/contract-admin/internal/query"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("Starting contract admin console...")

	// Durable session
	sessionStore, err := sessionstore.Open(cfg.Session.Path)
	if err != nil {
		logger.Fatal("Failed to open session store:", err)
	}
	defer sessionStore.Close()

	// API transport. The token source reads the session service, which is
	// wired below.
	var sessions ports.SessionService
	clientOpts := httpclient.ClientOptions{
		BaseURL: cfg.API.BaseURL,
		Client:  &http.Client{Timeout: cfg.API.Timeout},
		Logger:  logger,
	}
	if cfg.API.AttachToken {
		clientOpts.TokenSource = func(ctx context.Context) (string, error) {
			if sessions == nil {
				return "", nil
			}
			return sessions.Token(ctx)
		}
	}
	apiClient, err := httpclient.NewClient(clientOpts)
	if err != nil {
		logger.Fatal("Failed to create API client:", err)
	}

	queryMetrics, err := metrics.NewQueryMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to register query metrics:", err)
	}

	storeOpts := []query.Option{
		query.WithStaleTime(cfg.Query.StaleTime),
		query.WithGCTime(cfg.Query.GCTime),
		query.WithRetry(cfg.Query.Retry, cfg.Query.RetryDelay),
		query.WithMaxIdleEntries(cfg.Query.MaxIdleEntries),
		query.WithLogger(logger),
		query.WithMetrics(queryMetrics),
	}

	healthCheckers := []ports.HealthChecker{health.NewAPIHealthChecker(apiClient, "/")}

	// Optional persistence tier for last-known values
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")

		storeOpts = append(storeOpts, query.WithPersister(redis.NewRedisCache(redisClient, cfg.Redis.Prefix), cfg.Query.PersistTTL))
		healthCheckers = append(healthCheckers, health.NewRedisHealthChecker(redisClient))
	}

	store := query.New(storeOpts...)
	defer store.Close()

	sessions = services.NewSessionService(sessionStore, apiClient, store, logger)
	if sess, err := sessions.Init(context.Background()); err != nil {
		logger.Fatal("Failed to restore session:", err)
	} else if sess == nil {
		logger.Info("No stored session, login required")
	}

	res := resources.New(apiClient, store, resources.WithPollInterval(cfg.Query.PollInterval))

	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		Sessions:       sessions,
		Resources:      res,
		Store:          store,
		HealthCheckers: healthCheckers,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.WithFields(logrus.Fields{"addr": cfg.Server.Addr(), "api": cfg.API.BaseURL}).Info("Console started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down console...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Console forced to shutdown: ", err)
	}

	logger.Info("Console exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}
