package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/api/handler"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/api/router"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/ingest"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/database"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/jwt"
	applogger "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/logger"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/mqtt"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/redis"
)

const (
	shutdownTimeout = 10 * time.Second
	drainTimeout    = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./config/config.yaml)")
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("mqtt", cfg.MQTT.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return err
		}
	}

	// 4. redis, optional: coalescing falls back to in-process claims
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without it", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// 5. mqtt, optional
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient = mqtt.NewClient(&cfg.MQTT, applogger.Component(logger, "mqtt"))
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := mqttClient.Connect(connectCtx)
		cancel()
		if err != nil {
			logger.Warn("mqtt unavailable, notifications will only be logged", zap.Error(err))
			mqttClient = nil
		} else {
			defer mqttClient.Close()
		}
	}

	// 6. wiring: repository -> service -> handler
	repo := repository.NewRepository(db)
	jwtMgr := jwt.NewManager(&cfg.Auth)

	var (
		coalescer service.Coalescer = service.NewMemoryCoalescer()
		blacklist service.TokenBlacklist
		notifier  service.Notifier
		publisher service.StatusPublisher
	)
	if rdb != nil {
		coalescer = rdb
		blacklist = rdb
	}
	if mqttClient != nil {
		n := service.NewMQTTNotifier(mqttClient)
		notifier, publisher = n, n
	} else {
		n := service.NewLogNotifier(applogger.Component(logger, "notify"))
		notifier, publisher = n, n
	}

	svc := service.NewService(cfg, repo, coalescer, notifier, publisher, blacklist, jwtMgr, logger)
	h := handler.NewHandler(svc)

	var sub *ingest.Subscriber
	if mqttClient != nil {
		sub = ingest.NewSubscriber(mqttClient, svc.Request, svc.Device, applogger.Component(logger, "ingest"))
		if err := sub.Start(ctx); err != nil {
			return fmt.Errorf("start mqtt ingest: %w", err)
		}
	}

	// 7. router
	checks := map[string]router.Checker{"database": repo}
	if rdb != nil {
		checks["redis"] = rdb
	}
	if mqttClient != nil {
		checks["mqtt"] = mqttProbe{mqttClient}
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, checks, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	// stop intake first, then let in-flight dispatches finish before the
	// clients close
	drained := make(chan struct{})
	go func() {
		if sub != nil {
			sub.Stop()
		}
		svc.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
		logger.Warn("background dispatch still running at shutdown")
	}

	logger.Info("server stopped")
	return nil
}

// mqttProbe adapts the MQTT connection state to a health check.
type mqttProbe struct {
	c *mqtt.Client
}

func (p mqttProbe) Ping(context.Context) error {
	if !p.c.IsConnected() {
		return mqtt.ErrNotConnected
	}
	return nil
}
