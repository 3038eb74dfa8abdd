package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tesisflow/internal/api"
	"tesisflow/internal/app"
	"tesisflow/internal/config"
	"tesisflow/internal/logging"
	"tesisflow/internal/metrics"
	"tesisflow/internal/storage"
	"tesisflow/internal/util"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := util.EnsureDir(cfg.UploadDir); err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(dbCtx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(dbCtx); err != nil {
		return err
	}

	rec := metrics.New(prometheus.DefaultRegisterer)
	comps, err := app.Build(cfg, logger, rec)
	if err != nil {
		return err
	}
	consultations := storage.NewConsultationRepo(db)
	questions := storage.NewQuestionRepo(db)

	srv := api.NewServer(cfg, api.Deps{
		Consultations: consultations,
		Questions:     questions,
		Processor:     comps.Pipeline,
		Answerer:      comps.QueryService(cfg, consultations, logger, rec),
		Metrics:       rec,
		Gatherer:      prometheus.DefaultGatherer,
		Log:           logger,
	})
	logger.Info("tesis api listening",
		zap.String("addr", cfg.APIAddr),
		zap.String("qa_providers", cfg.QAProviders),
		zap.String("upload_dir", cfg.UploadDir),
	)
	return srv.ListenAndServe(ctx)
}
