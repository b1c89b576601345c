package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/response"
)

type runService interface {
	Enqueue() (*models.RunState, error)
	Get(runID string) (*models.RunState, error)
}

// ETLHandler triggers and inspects batch runs.
type ETLHandler struct {
	runs runService
}

// NewETLHandler constructs the handler.
func NewETLHandler(runs runService) *ETLHandler {
	return &ETLHandler{runs: runs}
}

// StartRun godoc
// @Summary Queue a full extract, transform and load run
// @Tags ETL
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /etl/runs [post]
func (h *ETLHandler) StartRun(c *gin.Context) {
	state, err := h.runs.Enqueue()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, state)
}

// GetRun godoc
// @Summary Run status and report
// @Tags ETL
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /etl/runs/{id} [get]
func (h *ETLHandler) GetRun(c *gin.Context) {
	state, err := h.runs.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state)
}
