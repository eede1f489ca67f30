package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aryankapoor/zapkart-backend/api/routes"
	"github.com/aryankapoor/zapkart-backend/internal/address"
	"github.com/aryankapoor/zapkart-backend/internal/analytics"
	"github.com/aryankapoor/zapkart-backend/internal/orders"
	"github.com/aryankapoor/zapkart-backend/internal/products"
	"github.com/aryankapoor/zapkart-backend/internal/session"
	"github.com/aryankapoor/zapkart-backend/pkg/config"
	"github.com/aryankapoor/zapkart-backend/pkg/db"
	"github.com/aryankapoor/zapkart-backend/pkg/docstore"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/maps"
	"github.com/aryankapoor/zapkart-backend/pkg/metrics"
	"github.com/aryankapoor/zapkart-backend/pkg/migrate"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
	"github.com/aryankapoor/zapkart-backend/pkg/pubsub"
	"github.com/aryankapoor/zapkart-backend/pkg/redis"
)

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

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	documentStore, closeDocs, err := newDocumentStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap document store", err)
		os.Exit(1)
	}
	defer closeDocs()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncMetrics(registry)

	sessionManager := session.NewManager(session.Options{
		Store: documentStore,
		Cache: redisClient,
		Collections: session.Collections{
			Cart:     cfg.Docstore.CartCollection,
			Wishlist: cfg.Docstore.WishlistCollection,
		},
		CacheTTL: cfg.Cache.SnapshotTTL,
		Logger:   logg,
		Metrics:  syncMetrics,
	})

	placesClient := maps.NewClient(cfg.GoogleMaps)
	if placesClient == nil {
		logg.Warn(context.Background(), "google maps api key not set, address suggestions disabled")
	}
	addressService := address.NewService(documentStore, cfg.Docstore.AddressCollection, placesClient, logg)

	productRepo := products.NewRepository(dbClient.DB())
	productService := products.NewService(productRepo)

	analyticsService := analytics.NewService()
	publisher := orders.FanoutPublisher{analyticsService}
	if psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub); err != nil {
		logg.Warn(context.Background(), "pubsub unavailable, order events stay local: "+err.Error())
	} else {
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		streamPublisher := orders.NewPubSubPublisher(psClient.OrdersPublisher(), logg)
		if sub := psClient.OrdersSubscription(); sub != nil {
			// Analytics consumes the stream like any other subscriber. Keeping
			// it out of the local fanout avoids counting each order twice.
			publisher = orders.FanoutPublisher{streamPublisher}
			consumer := analytics.NewConsumer(analyticsService, logg)
			go func() {
				if err := consumer.Run(context.Background(), sub); err != nil {
					logg.Error(context.Background(), "order event consumer stopped", err)
				}
			}()
		} else {
			publisher = append(publisher, streamPublisher)
		}
	}

	orderService := orders.NewService(
		dbClient.DB(),
		orders.NewRepository(dbClient.DB()),
		productRepo,
		addressService,
		pricingConfig(cfg.Pricing),
		publisher,
		logg,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.New(routes.Dependencies{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Sessions:  sessionManager,
			Products:  productService,
			Orders:    orderService,
			Addresses: addressService,
			Analytics: analyticsService,
			Pricing:   pricingConfig(cfg.Pricing),
			Registry:  registry,
		}),
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
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error shutting down http server", err)
		}
		if err := sessionManager.Close(shutdownCtx); err != nil {
			logg.Error(ctx, "error closing sessions", err)
		}
	}
}

func newDocumentStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (docstore.Store, func(), error) {
	if strings.EqualFold(cfg.Docstore.Backend, "memory") {
		logg.Warn(ctx, "using in-memory document store, state will not survive restarts")
		return docstore.NewMemory(), func() {}, nil
	}

	fs, err := docstore.NewFirestore(ctx, cfg.GCP)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {
		if err := fs.Close(); err != nil {
			logg.Error(ctx, "error closing firestore", err)
		}
	}, nil
}

func pricingConfig(cfg config.PricingConfig) pricing.Config {
	return pricing.Config{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
	}
}
