package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/service"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, sessionID string, format models.ExportFormat) (*dto.ExportFile, error)
	Materials(ctx context.Context, sessionID string, query dto.MaterialsQuery) (*dto.ExportFile, error)
}

type exportJobService interface {
	CreateJob(ctx context.Context, sessionID string, req dto.ExportJobRequest) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, sessionID, id string) (*dto.ExportJobResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler serves synchronous downloads and the async export queue.
type ExportHandler struct {
	exports exportService
	jobs    exportJobService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService, jobs exportJobService) *ExportHandler {
	return &ExportHandler{exports: exports, jobs: jobs}
}

// Export godoc
// @Summary Download the timetable
// @Description Renders the stored timetable as pdf, xlsx, csv or ics
// @Tags Exports
// @Produce octet-stream
// @Param format path string true "pdf, xlsx, csv or ics"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/export/{format} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	file, err := h.exports.Export(c.Request.Context(), session.ID, models.ExportFormat(c.Param("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// Materials godoc
// @Summary Download lecture notes or slides for a class
// @Tags Exports
// @Produce application/pdf
// @Param day query string true "Day"
// @Param time query string true "Time slot label"
// @Param kind query string true "notes or slides"
// @Success 200 {file} file
// @Router /timetable/materials [get]
func (h *ExportHandler) Materials(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.MaterialsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exports.Materials(c.Request.Context(), session.ID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// CreateJob godoc
// @Summary Queue an export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportJobRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.ExportJobRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), session.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// JobStatus godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) JobStatus(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	job, err := h.jobs.GetStatus(c.Request.Context(), session.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description The signed token in the path is the only credential
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Body.Close()

	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, -1, download.ContentType, download.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, download.Filename),
	})
}
