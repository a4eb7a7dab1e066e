// Command server wires the signature verification service: PostgreSQL for
// customers, signatures, and the audit trail; the filesystem for signature
// artifacts; the external inference service for embeddings; and optional
// Redis caching and Kafka audit mirroring.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"signet/internal/audit"
	custservice "signet/internal/customer/service"
	custstore "signet/internal/customer/store"
	"signet/internal/embedding"
	"signet/internal/platform/config"
	"signet/internal/platform/httpserver"
	"signet/internal/platform/logger"
	"signet/internal/platform/metrics"
	"signet/internal/platform/redis"
	"signet/internal/signature/artifact"
	sigservice "signet/internal/signature/service"
	sigstore "signet/internal/signature/store"
	httptransport "signet/internal/transport/http"
	"signet/internal/verify"
	id "signet/pkg/domain"
	"signet/pkg/platform/tx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.AdminToken == "" {
		return errors.New("SIGNET_ADMIN_TOKEN is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	artifacts, err := artifact.NewFSStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	var provider embedding.Provider = embedding.Guard(
		embedding.NewServiceClient(cfg.EmbeddingURL, cfg.EmbeddingDim, cfg.EmbeddingTimeout), log)
	if cfg.EmbeddingSerialize {
		provider = embedding.Serialize(provider)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		provider = embedding.NewCached(provider, redisClient, cfg.Redis.TTL, log)
		log.Info("embedding cache enabled")
	}

	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("audit stream enabled", "topic", cfg.KafkaTopic)
	}

	m := metrics.New()
	runner := tx.NewSQLRunner(db)
	customers := custstore.NewPostgres(db)
	signatures := sigstore.NewPostgres(db)
	audits := audit.NewPostgres(db)

	signatureService := sigservice.NewService(customers, signatures, artifacts, provider, runner, log).
		WithMetrics(m)
	customerService := custservice.NewService(customers, signatures, audits, artifacts, runner, log).
		WithEnroller(signatureService).
		WithMetrics(m)
	verifyService := verify.NewService(customers, signatures, artifacts, audits, provider, runner, cfg.Threshold, log).
		WithMetrics(m)
	if publisher != nil {
		customerService.WithPublisher(publisher)
		verifyService.WithPublisher(publisher)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Customers:  customerService,
		Signatures: signatureService,
		Verifier:   verifyService,
		Metrics:    m,
		Logger:     log,
		AdminToken: cfg.AdminToken,
		AdminID:    id.AdminID(cfg.AdminID),
		Health: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "threshold", cfg.Threshold)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
