// Package bootstrap wires the pipeline components shared by the API server and
// the etl command.
package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/repository"
	"github.com/noah-isme/registration-etl/internal/service"
	"github.com/noah-isme/registration-etl/internal/source"
	"github.com/noah-isme/registration-etl/pkg/cache"
	"github.com/noah-isme/registration-etl/pkg/config"
	"github.com/noah-isme/registration-etl/pkg/storage"
)

// Cache connects the registration lookup cache. A disabled or unreachable
// Redis yields a disabled cache service, never an error.
func Cache(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logger *zap.Logger) (*service.CacheService, func()) {
	noop := func() {}
	if !cfg.Registration.CacheEnabled {
		return service.NewCacheService(nil, metrics, cfg.Registration.CacheTTL, logger, false), noop
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("registration cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.Registration.CacheTTL, logger, false), noop
	}
	repo := repository.NewCacheRepository(client, logger)
	closeFn := func() { _ = repo.Close() }
	return service.NewCacheService(repo, metrics, cfg.Registration.CacheTTL, logger, true), closeFn
}

// Reports builds the report writer for ETL_REPORT_DIR.
func Reports(cfg *config.Config, logger *zap.Logger) (*service.ReportService, error) {
	store, err := storage.NewLocalStorage(cfg.ETL.ReportDir)
	if err != nil {
		return nil, err
	}
	return service.NewReportService(store, service.ReportServiceConfig{
		Formats:   cfg.ETL.ReportFormats,
		Retention: cfg.ETL.ReportRetention,
	}, logger), nil
}

// ETL assembles the batch pipeline for the configured source.
func ETL(ctx context.Context, cfg *config.Config, db *sqlx.DB, cacheSvc *service.CacheService, metrics *service.MetricsService, logger *zap.Logger) (*service.ETLService, error) {
	etlCfg, err := etl.FromSettings(cfg.ETL)
	if err != nil {
		return nil, err
	}
	src, err := source.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	reports, err := Reports(cfg, logger)
	if err != nil {
		return nil, err
	}
	loader := repository.NewLoadRepository(db, cfg.ETL.BatchSize)
	return service.NewETLService(src, loader, reports, cacheSvc, metrics, etlCfg, logger), nil
}
