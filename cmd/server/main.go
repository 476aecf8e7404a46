// Command server runs the TrustBridge API: document ingestion, trust score
// computation, and credential issuance/verification.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trustbridge/internal/blob"
	credhandler "trustbridge/internal/credential/handler"
	credservice "trustbridge/internal/credential/service"
	"trustbridge/internal/credential/signing"
	credstore "trustbridge/internal/credential/store"
	dochandler "trustbridge/internal/document/handler"
	docservice "trustbridge/internal/document/service"
	docstore "trustbridge/internal/document/store"
	"trustbridge/internal/extraction"
	"trustbridge/internal/jwtauth"
	"trustbridge/internal/pipeline"
	"trustbridge/internal/platform/config"
	"trustbridge/internal/platform/httpserver"
	"trustbridge/internal/platform/logger"
	"trustbridge/internal/platform/metrics"
	"trustbridge/internal/platform/postgres"
	platformredis "trustbridge/internal/platform/redis"
	rephandler "trustbridge/internal/reputation/handler"
	repservice "trustbridge/internal/reputation/service"
	repstore "trustbridge/internal/reputation/store"
	"trustbridge/internal/transport/rest"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		documents    docstore.DocumentStore
		transactions docstore.TransactionStore
		claims       repstore.ClaimStore
		credentials  credstore.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		documents = docstore.NewPostgres(pool)
		transactions = docstore.NewPostgresTransactions(pool)
		claims = repstore.NewPostgres(pool)
		credentials = credstore.NewPostgres(pool)
		log.Info("using postgres stores")
	} else {
		documents = docstore.NewInMemory()
		transactions = docstore.NewInMemoryTransactions()
		claims = repstore.NewInMemory()
		credentials = credstore.NewInMemory()
		log.Warn("TB_DATABASE_URL not set, using in-memory stores")
	}

	var blobs blob.Store
	if cfg.BlobDir != "" {
		local, err := blob.NewLocal(cfg.BlobDir)
		if err != nil {
			return err
		}
		blobs = local
	} else {
		blobs = blob.NewMemory()
	}

	var gateway extraction.Gateway
	if cfg.ExtractorURL != "" {
		gateway = extraction.NewHTTPGateway(cfg.ExtractorURL, nil)
	} else {
		gateway = extraction.StaticGateway{}
		log.Warn("TB_EXTRACTOR_URL not set, using static extraction fixtures")
	}

	signer, err := signing.Load(cfg.PrivateKeyPath, cfg.PublicKeyPath)
	if err != nil {
		return err
	}

	repOpts := []repservice.Option{
		repservice.WithLogger(log),
		repservice.WithMetrics(m),
		repservice.WithBankHealthThreshold(cfg.BankHealthThresholdCents),
	}
	cache, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		repOpts = append(repOpts, repservice.WithProfileCache(
			repservice.NewRedisProfileCache(cache.Client, cfg.ProfileCacheTTL)))
		log.Info("profile cache enabled")
	}
	reputationSvc := repservice.New(claims, documents, transactions, repOpts...)

	orchestrator := pipeline.New(documents, transactions, blobs, gateway, reputationSvc,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
		pipeline.WithWorkers(cfg.WorkerCount),
		pipeline.WithQueueSize(cfg.QueueSize),
		pipeline.WithExtractionTimeout(cfg.ExtractionTimeout),
	)
	orchestrator.Start(ctx)

	documentSvc := docservice.New(documents, transactions, blobs, orchestrator,
		docservice.WithLogger(log))
	credentialSvc := credservice.New(credentials, claims, signer, cfg.Issuer,
		credservice.WithLogger(log),
		credservice.WithMetrics(m),
		credservice.WithFrontendBaseURL(cfg.FrontendBaseURL),
	)

	router := rest.New(rest.Deps{
		Logger:      log,
		Auth:        jwtauth.New(cfg.JWTSecret),
		Documents:   dochandler.New(documentSvc),
		Reputation:  rephandler.New(reputationSvc),
		Credentials: credhandler.New(credentialSvc),
	})

	server := httpserver.New(cfg.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Drain in-flight documents before releasing the stores.
	orchestrator.Stop()
	return nil
}
