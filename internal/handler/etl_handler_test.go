package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/internal/service"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

type runServiceMock struct {
	state *models.RunState
	err   error
	asked string
}

func (m *runServiceMock) Enqueue() (*models.RunState, error) {
	return m.state, m.err
}

func (m *runServiceMock) Get(runID string) (*models.RunState, error) {
	m.asked = runID
	return m.state, m.err
}

func TestETLHandlerStartRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runs := &runServiceMock{state: &models.RunState{RunID: "run-1", Status: models.RunStatusQueued, QueuedAt: time.Now()}}
	handler := NewETLHandler(runs)

	c, w := newGinContext(http.MethodPost, "/api/etl/runs", nil)
	handler.StartRun(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "run-1", env.Data["run_id"])
	assert.Equal(t, "queued", env.Data["status"])
}

func TestETLHandlerStartRunQueueFull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runs := &runServiceMock{err: appErrors.Wrap(errors.New("full"), appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "run queue unavailable")}
	handler := NewETLHandler(runs)

	c, w := newGinContext(http.MethodPost, "/api/etl/runs", nil)
	handler.StartRun(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestETLHandlerGetRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &models.RunReport{RunID: "run-1", Status: models.RunStatusSucceeded, Summary: models.RunSummary{Extracted: 5}}
	runs := &runServiceMock{state: &models.RunState{RunID: "run-1", Status: models.RunStatusSucceeded, Report: report}}
	handler := NewETLHandler(runs)

	c, w := newGinContext(http.MethodGet, "/api/etl/runs/run-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}
	handler.GetRun(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run-1", runs.asked)
	env := decodeEnvelope(t, w)
	reportJSON, ok := env.Data["report"].(map[string]interface{})
	require.True(t, ok)
	summary := reportJSON["summary"].(map[string]interface{})
	assert.Equal(t, float64(5), summary["extracted"])
}

func TestETLHandlerGetRunNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewETLHandler(&runServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "run not found")})

	c, w := newGinContext(http.MethodGet, "/api/etl/runs/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.GetRun(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestMetricsHandlerEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.ObserveRegistration(models.RegistrationCreated)

	healthy := NewMetricsHandler(metrics, pingerFunc(func(context.Context) error { return nil }))
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/health", nil)
	healthy.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	healthy.Prometheus(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "registrations_total")

	down := NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	down.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	down.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsHandlerUnavailableThroughRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", NewMetricsHandler(nil, nil).Prometheus)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Body.String())
}
