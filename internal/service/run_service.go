package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/models"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
	"github.com/noah-isme/registration-etl/pkg/jobs"
)

const jobTypeETLRun = "etl.run"

// DefaultRunHistory is the number of finished runs kept for status lookups.
const DefaultRunHistory = 50

type etlRunner interface {
	Run(ctx context.Context, runID string, extra etl.EventSink) (models.RunReport, error)
}

// RunServiceConfig tunes the background run queue.
type RunServiceConfig struct {
	Retries    int
	RetryDelay time.Duration
	BufferSize int
	// History caps the finished runs kept in memory; the oldest are evicted first.
	History    int
}

// RunService queues batch runs on a single worker and tracks their state.
type RunService struct {
	runner etlRunner
	queue  *jobs.Queue
	logger *zap.Logger

	mu       sync.RWMutex
	runs     map[string]*models.RunState
	finished []string
	history  int
}

// NewRunService builds the tracker and its queue. Call Start before Enqueue.
func NewRunService(runner etlRunner, cfg RunServiceConfig, logger *zap.Logger) *RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	history := cfg.History
	if history <= 0 {
		history = DefaultRunHistory
	}
	s := &RunService{runner: runner, logger: logger, runs: make(map[string]*models.RunState), history: history}
	s.queue = jobs.NewQueue("etl-runs", s.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		OnFailure:  s.markFailed,
		Logger:     logger,
	})
	return s
}

// Start launches the worker.
func (s *RunService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the worker to exit.
func (s *RunService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a batch run and returns its queued state.
func (s *RunService) Enqueue() (*models.RunState, error) {
	now := time.Now().UTC()
	state := &models.RunState{
		RunID:     uuid.NewString(),
		Status:    models.RunStatusQueued,
		QueuedAt:  now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.runs[state.RunID] = state
	snapshot := *state
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: state.RunID, Type: jobTypeETLRun}); err != nil {
		s.mu.Lock()
		delete(s.runs, state.RunID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "run queue unavailable")
	}
	return &snapshot, nil
}

// Get returns a copy of the tracked state of runID.
func (s *RunService) Get(runID string) (*models.RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.runs[runID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found")
	}
	snapshot := *state
	return &snapshot, nil
}

func (s *RunService) handle(ctx context.Context, job jobs.Job) error {
	s.update(job.ID, models.RunStatusRunning, nil)
	report, err := s.runner.Run(ctx, job.ID, nil)
	if err != nil {
		s.update(job.ID, models.RunStatusFailed, &report)
		return err
	}
	s.update(job.ID, models.RunStatusSucceeded, &report)
	return nil
}

func (s *RunService) markFailed(job jobs.Job, err error) {
	s.logger.Warn("etl run gave up", zap.String("run_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	s.update(job.ID, models.RunStatusFailed, nil)
}

func (s *RunService) update(runID string, status models.RunStatus, report *models.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.runs[runID]
	if !ok {
		return
	}
	state.Status = status
	state.UpdatedAt = time.Now().UTC()
	if report != nil {
		state.Report = report
	}
	if status == models.RunStatusSucceeded || status == models.RunStatusFailed {
		s.retire(runID)
	}
}

// retire records a finished run and evicts the oldest ones past the history
// cap. Callers hold s.mu.
func (s *RunService) retire(runID string) {
	for _, id := range s.finished {
		if id == runID {
			return
		}
	}
	s.finished = append(s.finished, runID)
	for len(s.finished) > s.history {
		delete(s.runs, s.finished[0])
		s.finished = s.finished[1:]
	}
}
