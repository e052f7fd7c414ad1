package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/projection"
	"github.com/example/storefront/internal/query"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	reportInterval = 30 * time.Second
	reportLimit    = 5
)

// The projector consumes storefront activity from Kafka in its own consumer group
// and periodically logs the most popular products.
func main() {
	cfg, err := config.LoadWorker()
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

	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore, logger)
	popularity := query.NewHandler(nil, nil, nil, readStore, logger)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID+"-report", logger)
	defer consumer.Close()

	logger.Info("starting projector",
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := consumer.Consume(gctx, projector.HandleEvent); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				for i, p := range popularity.PopularProducts(reportLimit) {
					logger.Info("popular product",
						zap.Int("rank", i+1),
						zap.String("product_id", p.ProductID),
						zap.String("title", p.Title),
						zap.Int("units_added", p.UnitsAdded),
						zap.Int("times_removed", p.TimesRemoved),
					)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("projector stopped", zap.Error(err))
	}
	logger.Info("projector stopped")
}
