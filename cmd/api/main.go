package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zaikoworks/zaiko-backend/api/controllers"
	"github.com/zaikoworks/zaiko-backend/api/routes"
	"github.com/zaikoworks/zaiko-backend/internal/auth"
	"github.com/zaikoworks/zaiko-backend/internal/groups"
	"github.com/zaikoworks/zaiko-backend/internal/history"
	"github.com/zaikoworks/zaiko-backend/internal/notifications"
	"github.com/zaikoworks/zaiko-backend/internal/orders"
	"github.com/zaikoworks/zaiko-backend/internal/stocks"
	"github.com/zaikoworks/zaiko-backend/internal/users"
	"github.com/zaikoworks/zaiko-backend/pkg/auth/session"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/env"
	"github.com/zaikoworks/zaiko-backend/pkg/logger"
	"github.com/zaikoworks/zaiko-backend/pkg/metrics"
	"github.com/zaikoworks/zaiko-backend/pkg/migrate"
	"github.com/zaikoworks/zaiko-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	inventoryMetrics := metrics.NewInventoryMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	conn := dbClient.DB()

	notificationsService, err := notifications.NewService(notifications.NewRepository(conn), logg)
	exitOnError(logg, "notifications service", err)

	historyService, err := history.NewService(history.NewRepository(conn), dbClient, inventoryMetrics)
	exitOnError(logg, "history service", err)

	stocksService, err := stocks.NewService(
		stocks.NewRepository(conn),
		dbClient,
		historyService,
		notificationsService,
		inventoryMetrics,
		cfg.Inventory,
	)
	exitOnError(logg, "stocks service", err)

	ordersService, err := orders.NewService(
		orders.NewRepository(conn),
		dbClient,
		stocksService,
		historyService,
		inventoryMetrics,
	)
	exitOnError(logg, "orders service", err)

	groupsService, err := groups.NewService(groups.NewRepository(conn), dbClient)
	exitOnError(logg, "groups service", err)

	usersService, err := users.NewService(users.NewRepository(conn), cfg.Password)
	exitOnError(logg, "users service", err)

	authService, err := auth.NewService(users.NewRepository(conn), sessionManager, redisClient, cfg.JWT)
	exitOnError(logg, "auth service", err)

	handler := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Sessions: sessionManager,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		HTTPMetrics:     httpMetrics,
		MetricsGatherer: registry,
		Auth:            authService,
		Stocks:          stocksService,
		Groups:          groupsService,
		Orders:          ordersService,
		History:         historyService,
		Users:           usersService,
		Notifications:   notificationsService,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
