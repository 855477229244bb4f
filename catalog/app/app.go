package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/config"
	"github.com/Astemirdum/catalog-service/catalog/internal/events"
	"github.com/Astemirdum/catalog-service/catalog/internal/handler"
	"github.com/Astemirdum/catalog-service/catalog/internal/repository"
	"github.com/Astemirdum/catalog-service/catalog/internal/server"
	"github.com/Astemirdum/catalog-service/catalog/internal/service"
	"github.com/Astemirdum/catalog-service/catalog/migrations"
	"github.com/Astemirdum/catalog-service/pkg/kafka"
	"github.com/Astemirdum/catalog-service/pkg/logger"
	"github.com/Astemirdum/catalog-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "catalog")
	defer log.Sync() //nolint:errcheck

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	publisher, producer := newPublisher(cfg.Kafka, log)
	svc := service.NewService(repo, publisher, log)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if producer != nil {
		if err = producer.Close(); err != nil {
			log.Warn("producer.Close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

// newPublisher returns a Kafka publisher when brokers are configured.
// Without brokers, or when they cannot be reached at start, events are dropped.
func newPublisher(cfg kafka.Config, log *zap.Logger) (events.Publisher, sarama.SyncProducer) {
	if !cfg.Enabled() {
		log.Info("kafka disabled, book events are not published")
		return events.Nop{}, nil
	}
	if err := kafka.CreateTopics(cfg); err != nil {
		log.Warn("kafka.CreateTopics", zap.Error(err))
	}
	producer, err := kafka.NewSyncProducer(cfg)
	if err != nil {
		log.Error("kafka.NewSyncProducer", zap.Error(err))
		return events.Nop{}, nil
	}
	return events.NewKafkaPublisher(producer, cfg.BooksTopic, log), producer
}

// Migrate applies the embedded schema and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "catalog")
	defer log.Sync() //nolint:errcheck

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, nil)
	if err != nil {
		return errors.Wrap(err, "db init")
	}
	defer db.Close()

	if err = postgres.Migrate(db, migrations.MigrationFiles); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}
