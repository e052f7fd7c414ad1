package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/cache"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/projection"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	hashPassword := flag.Bool("hash-password", false, "read a password from stdin, print its bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword {
		hash, err := hashFrom(os.Stdin)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
	logger.Info("storefront stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	logger.Info("starting storefront",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("catalog", cfg.CatalogBaseURL),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
	)

	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore, logger)

	// Activity goes through Kafka when brokers are configured, otherwise straight to the projector
	var publisher store.Publisher = projection.NewDirectPublisher(projector)
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
	}

	var events store.EventStoreInterface = store.NewEventStore(publisher)
	if cfg.DatabaseURL != "" {
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pgStore := store.NewPostgresEventStore(db, publisher)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		events = pgStore
		logger.Info("activity log stored in PostgreSQL")
	}

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, catalog.WithLogger(logger))
	var lister catalog.Lister = catalogClient
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, "storefront")
		if err != nil {
			return err
		}
		defer redisCache.Close()
		lister = catalog.NewCachedLister(catalogClient, redisCache, cfg.CatalogCacheTTL, logger)
		logger.Info("product listing cached in Redis", zap.Duration("ttl", cfg.CatalogCacheTTL))
	}

	carts := session.NewRegistry(func(id string) *cart.Cart {
		return cart.New(cart.GetCartID(id), events, logger)
	})
	forms := session.NewRegistry(func(id string) *product.Form {
		return product.NewForm(product.GetFormID(id), catalogClient, events, logger,
			product.WithDismissAfter(cfg.AlertDismissAfter))
	})

	cmdHandler := command.NewHandler(carts, forms, catalogClient, logger)
	queryHandler := query.NewHandler(carts, forms, lister, readStore, logger)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenExpiry)
	credentials := auth.AdminCredentials{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set, admin login is disabled")
	}

	router := api.NewRouter(
		api.NewHandlers(cmdHandler, queryHandler, logger),
		api.NewAdminHandlers(credentials, jwtService, cmdHandler, queryHandler, query.NewActivityHandler(events, logger), logger),
		jwtService,
		logger,
		cfg.WebDir,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.KafkaEnabled() {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
		defer consumer.Close()

		g.Go(func() error {
			logger.Info("consuming activity", zap.String("topic", cfg.KafkaTopic))
			if err := consumer.Consume(gctx, projector.HandleEvent); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		sweepSessions(gctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout, logger, carts, forms)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type sweeper interface {
	Sweep(idle time.Duration) int
	Len() int
}

// sweepSessions drops carts and forms of visitors idle longer than idle until ctx is done
func sweepSessions(ctx context.Context, interval, idle time.Duration, logger *zap.Logger, registries ...sweeper) {
	if interval <= 0 || idle <= 0 {
		logger.Warn("session sweeping disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped, remaining := 0, 0
			for _, r := range registries {
				dropped += r.Sweep(idle)
				remaining += r.Len()
			}
			if dropped > 0 {
				logger.Info("swept idle sessions", zap.Int("dropped", dropped), zap.Int("remaining", remaining))
			}
		}
	}
}

func hashFrom(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return auth.HashPassword(strings.TrimRight(line, "\r\n"))
}
