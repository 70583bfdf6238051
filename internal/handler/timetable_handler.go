package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, session models.Session, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Get(ctx context.Context, sessionID string) (*dto.TimetableResponse, error)
	ListRuns(ctx context.Context, sessionID string, query dto.GenerationRunQuery) ([]models.GenerationRun, error)
}

// TimetableHandler exposes generation and the stored result.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable
// @Description Runs the external generator against the session dataset, simulated when a scenario is active.
// @Description Generator failures are reported with success=false and HTTP 200.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Programs and days"
// @Success 200 {object} dto.GenerateTimetableResponse
// @Failure 409 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid generation payload") {
		return
	}

	res, err := h.service.Generate(c.Request.Context(), *session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, res)
}

// Get godoc
// @Summary Current timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.Get(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListRuns godoc
// @Summary Generation history
// @Tags Timetable
// @Produce json
// @Param limit query int false "Maximum runs"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs [get]
func (h *TimetableHandler) ListRuns(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.GenerationRunQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	runs, err := h.service.ListRuns(c.Request.Context(), session.ID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}
