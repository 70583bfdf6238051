package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

const maxCSVUploadBytes = 5 << 20

type workspaceService interface {
	Get(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error)
	ReplaceDataset(ctx context.Context, sessionID string, dataset models.Dataset) (*models.DatasetSummary, error)
	ImportCSV(ctx context.Context, sessionID string, kind models.DatasetKind, r io.Reader) (*dto.DatasetImportResponse, error)
	GetScenario(ctx context.Context, sessionID string) (*dto.ScenarioResponse, error)
	UpdateScenario(ctx context.Context, sessionID string, scenario models.Scenario) (*dto.ScenarioResponse, error)
	ResetScenario(ctx context.Context, sessionID string) (*dto.ScenarioResponse, error)
	GetConstraints(ctx context.Context, sessionID string) (*dto.ConstraintsResponse, error)
	UpdateConstraints(ctx context.Context, sessionID string, raw []byte) (*dto.ConstraintsResponse, error)
}

// WorkspaceHandler exposes the session dataset, scenario and constraints.
type WorkspaceHandler struct {
	service workspaceService
}

// NewWorkspaceHandler constructs the handler.
func NewWorkspaceHandler(svc workspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: svc}
}

// Get godoc
// @Summary Workspace overview
// @Tags Workspace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspace [get]
func (h *WorkspaceHandler) Get(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ReplaceDataset godoc
// @Summary Replace the session dataset
// @Tags Workspace
// @Accept json
// @Produce json
// @Param payload body models.Dataset true "Dataset"
// @Success 200 {object} response.Envelope
// @Router /workspace/dataset [put]
func (h *WorkspaceHandler) ReplaceDataset(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var dataset models.Dataset
	if !bindJSON(c, &dataset, "invalid dataset payload") {
		return
	}
	summary, err := h.service.ReplaceDataset(c.Request.Context(), session.ID, dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ImportCSV godoc
// @Summary Import one dataset collection from CSV
// @Description Accepts a multipart "file" field or a raw text/csv body
// @Tags Workspace
// @Accept mpfd
// @Produce json
// @Param kind path string true "students, faculty, courses or rooms"
// @Param file formData file false "CSV file"
// @Success 200 {object} response.Envelope
// @Router /workspace/dataset/{kind}/csv [post]
func (h *WorkspaceHandler) ImportCSV(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}

	var reader io.Reader
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxCSVUploadBytes {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "csv file too large"))
			return
		}
		opened, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read csv upload"))
			return
		}
		defer opened.Close()
		reader = opened
	} else {
		reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxCSVUploadBytes)
	}

	res, err := h.service.ImportCSV(c.Request.Context(), session.ID, models.DatasetKind(c.Param("kind")), reader)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// GetScenario godoc
// @Summary Current what-if scenario
// @Tags Workspace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspace/scenario [get]
func (h *WorkspaceHandler) GetScenario(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.GetScenario(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpdateScenario godoc
// @Summary Replace the what-if scenario
// @Tags Workspace
// @Accept json
// @Produce json
// @Param payload body models.Scenario true "Scenario"
// @Success 200 {object} response.Envelope
// @Router /workspace/scenario [put]
func (h *WorkspaceHandler) UpdateScenario(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var scenario models.Scenario
	if !bindJSON(c, &scenario, "invalid scenario payload") {
		return
	}
	view, err := h.service.UpdateScenario(c.Request.Context(), session.ID, scenario)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ResetScenario godoc
// @Summary Reset the what-if scenario
// @Tags Workspace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspace/scenario [delete]
func (h *WorkspaceHandler) ResetScenario(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.ResetScenario(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// GetConstraints godoc
// @Summary Current scheduling constraints
// @Tags Workspace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspace/constraints [get]
func (h *WorkspaceHandler) GetConstraints(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.GetConstraints(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpdateConstraints godoc
// @Summary Replace scheduling constraints
// @Description The body is an arbitrary JSON object forwarded verbatim to the generator
// @Tags Workspace
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspace/constraints [put]
func (h *WorkspaceHandler) UpdateConstraints(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read constraints"))
		return
	}
	view, err := h.service.UpdateConstraints(c.Request.Context(), session.ID, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
