package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/models"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

type recordSource interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

type entityLoader interface {
	Load(ctx context.Context, entities models.Entities, sink etl.EventSink) (models.LoadCounts, error)
}

type reportWriter interface {
	Write(report models.RunReport) ([]string, error)
}

type registrationInvalidator interface {
	InvalidateRegistrations(ctx context.Context) error
}

// ETLService runs the extract, transform and load pipeline end to end.
type ETLService struct {
	source  recordSource
	loader  entityLoader
	reports reportWriter
	cache   registrationInvalidator
	metrics *MetricsService
	cfg     etl.Config
	logger  *zap.Logger
}

// NewETLService wires the pipeline. reports and cache may be nil.
func NewETLService(source recordSource, loader entityLoader, reports reportWriter, cache registrationInvalidator, metrics *MetricsService, cfg etl.Config, logger *zap.Logger) *ETLService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ETLService{
		source:  source,
		loader:  loader,
		reports: reports,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes one batch run. The report is returned, and written, whether or
// not the run succeeded; a non-nil error is always run-scoped.
func (s *ETLService) Run(ctx context.Context, runID string, extra etl.EventSink) (models.RunReport, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := s.logger.With(zap.String("run_id", runID))
	collector := etl.NewCollector(runID, s.source.Name())
	sink := etl.MultiSink{collector, etl.NewZapSink(logger), extra}
	if s.metrics != nil {
		sink = append(sink, s.metrics)
	}

	etl.Emit(sink, etl.PhaseExtract, etl.EventRunStarted, "Starting ETL process", map[string]interface{}{
		etl.KeyRunID: runID,
	})

	runErr := s.execute(ctx, sink, logger)
	report := collector.Finish(runErr)

	if s.reports != nil {
		files, err := s.reports.Write(report)
		if err != nil {
			logger.Warn("failed to write run report", zap.Error(err))
		}
		report.Files = files
	}

	finished := map[string]interface{}{
		etl.KeyStatus:   string(report.Status),
		etl.KeyDuration: report.FinishedAt.Sub(report.StartedAt),
		etl.KeySummary:  report.Summary,
	}
	message := "ETL process completed"
	if runErr != nil {
		finished[etl.KeyError] = runErr.Error()
		message = "ETL process failed"
		logger.Error("etl run failed", zap.Error(runErr))
	}
	etl.Emit(sink, etl.PhaseLoad, etl.EventRunFinished, message, finished)

	return report, runErr
}

func (s *ETLService) execute(ctx context.Context, sink etl.EventSink, logger *zap.Logger) error {
	records, err := s.source.Fetch(ctx)
	if err != nil {
		var extractErr *appErrors.ExtractionError
		if !errors.As(err, &extractErr) {
			err = &appErrors.ExtractionError{Source: s.source.Name(), Err: err}
		}
		return err
	}
	etl.Emit(sink, etl.PhaseExtract, etl.EventRowsExtracted, fmt.Sprintf("Extracted %d rows", len(records)), map[string]interface{}{
		etl.KeyCount: len(records),
	})

	result := etl.Transform(records, s.cfg, sink)
	if len(result.Valid) == 0 {
		etl.Emit(sink, etl.PhaseWarn, etl.EventProgress, "No valid records; the load will leave the tables empty", map[string]interface{}{
			etl.KeyCount: len(records),
		})
	}

	if _, err := s.loader.Load(ctx, result.Entities, sink); err != nil {
		var loadErr *appErrors.LoadError
		if !errors.As(err, &loadErr) {
			err = &appErrors.LoadError{Stage: "load", Err: err}
		}
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRegistrations(ctx); err != nil {
			logger.Warn("failed to invalidate registration cache", zap.Error(err))
		}
	}
	return nil
}
