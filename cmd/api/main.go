package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/vivetti/salesdesk-backend/api"
	"github.com/vivetti/salesdesk-backend/api/controllers"
	"github.com/vivetti/salesdesk-backend/api/routes"
	"github.com/vivetti/salesdesk-backend/internal/auth"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	"github.com/vivetti/salesdesk-backend/internal/quotes"
	"github.com/vivetti/salesdesk-backend/internal/quotes/render"
	"github.com/vivetti/salesdesk-backend/internal/sales"
	"github.com/vivetti/salesdesk-backend/internal/users"
	"github.com/vivetti/salesdesk-backend/pkg/auth/session"
	"github.com/vivetti/salesdesk-backend/pkg/bigquery"
	"github.com/vivetti/salesdesk-backend/pkg/config"
	"github.com/vivetti/salesdesk-backend/pkg/db"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	"github.com/vivetti/salesdesk-backend/pkg/metrics"
	"github.com/vivetti/salesdesk-backend/pkg/migrate"
	"github.com/vivetti/salesdesk-backend/pkg/pagination"
	"github.com/vivetti/salesdesk-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	var closers []io.Closer
	defer func() {
		if err := closeAll(closers); err != nil {
			logg.Error(ctx, "error releasing resources", err)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	closers = append(closers, dbClient)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	closers = append(closers, redisClient)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	quoteMetrics := metrics.NewQuoteMetrics(registry)
	cacheMetrics := metrics.NewCacheMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:        catalog.NewRepository(dbClient.DB()),
		Cache:       redisClient,
		CacheTTL:    cfg.Cache.CatalogTTL,
		SearchLimit: cfg.Quotes.SearchLimit,
		Metrics:     cacheMetrics,
		Logger:      logg,
	})
	requireResource(ctx, logg, "catalog service", err)

	draftStore, err := quotes.NewDraftStore(redisClient, cfg.Quotes.DraftTTL)
	requireResource(ctx, logg, "draft store", err)

	quoteService, err := quotes.NewService(quotes.ServiceParams{
		Articles:  catalogService,
		Customers: catalogService,
		Repo:      quotes.NewRepository(dbClient.DB()),
		Drafts:    draftStore,
		Renderer:  render.NewPDF(cfg.Quotes.LogoPath),
		Metrics:   quoteMetrics,
		Logger:    logg,
	})
	requireResource(ctx, logg, "quote service", err)

	var source sales.Source = sales.NewGormSource(dbClient.DB(), pagination.Window{
		PageSize: cfg.Sales.PageSize,
		MaxRows:  cfg.Sales.MaxRows,
	})
	var warehouse controllers.Pinger
	if cfg.Sales.UsesBigQuery() {
		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		requireResource(ctx, logg, "bigquery client", err)
		closers = append(closers, bqClient)
		warehouse = bqClient

		source, err = sales.NewBigQuerySource(bqClient, cfg.Sales.MaxRows)
		requireResource(ctx, logg, "bigquery sales source", err)
	}
	cachedSource, err := sales.NewCachedSource(source, redisClient, cfg.Cache.SalesTTL, cacheMetrics, logg)
	requireResource(ctx, logg, "sales cache", err)

	salesService, err := sales.NewService(sales.ServiceParams{
		Source:         cachedSource,
		Target:         decimal.NewFromFloat(cfg.Sales.TargetRevenue),
		ExcludedMarker: cfg.Sales.ExcludedMarker,
	})
	requireResource(ctx, logg, "sales service", err)

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Warehouse: warehouse,
		Sessions:  sessionManager,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Auth:      authService,
		Catalog:   catalogService,
		Quotes:    quoteService,
		Sales:     salesService,
	})

	server := api.NewServer(cfg.App, os.Getenv("PORT"), router)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         server.Addr,
		"sales_source": cfg.Sales.Source,
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
		}
	case <-runCtx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown failed", err)
		}
	}
}

// closeAll releases resources in reverse acquisition order.
func closeAll(closers []io.Closer) error {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	return err
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
