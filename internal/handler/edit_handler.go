package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

type editService interface {
	Begin(ctx context.Context, sessionID string) (*dto.EditSessionResponse, error)
	Get(ctx context.Context, sessionID string) (*dto.EditSessionResponse, error)
	UpdateEntry(ctx context.Context, sessionID string, req dto.UpdateEntryRequest) (*dto.EditSessionResponse, error)
	SuggestFaculty(ctx context.Context, sessionID string, req dto.CellRequest) (*dto.SuggestionResponse, error)
	ApplySuggestion(ctx context.Context, sessionID string, req dto.CellRequest) (*dto.EditSessionResponse, string, error)
	Save(ctx context.Context, session models.Session) (*dto.SaveEditResponse, error)
	Cancel(ctx context.Context, sessionID string) (*dto.EditSessionResponse, error)
	MarkAttendance(ctx context.Context, session models.Session, req dto.CellRequest) (*dto.AttendanceResponse, error)
}

// EditHandler exposes manual overrides of the generated timetable.
type EditHandler struct {
	service editService
}

// NewEditHandler constructs the handler.
func NewEditHandler(svc editService) *EditHandler {
	return &EditHandler{service: svc}
}

// Begin godoc
// @Summary Start editing the timetable
// @Tags Timetable Edit
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/edit [post]
func (h *EditHandler) Begin(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Begin(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Get godoc
// @Summary Current edit session
// @Tags Timetable Edit
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/edit [get]
func (h *EditHandler) Get(c *gin.Context) {
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

// UpdateEntry godoc
// @Summary Change one cell of the working copy
// @Tags Timetable Edit
// @Accept json
// @Produce json
// @Param payload body dto.UpdateEntryRequest true "Cell change"
// @Success 200 {object} response.Envelope
// @Router /timetable/edit/entry [patch]
func (h *EditHandler) UpdateEntry(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateEntryRequest
	if !bindJSON(c, &req, "invalid entry payload") {
		return
	}
	view, err := h.service.UpdateEntry(c.Request.Context(), session.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Suggest godoc
// @Summary Ask the generator for a faculty replacement
// @Tags Timetable Edit
// @Accept json
// @Produce json
// @Param payload body dto.CellRequest true "Cell"
// @Success 200 {object} response.Envelope
// @Router /timetable/edit/suggestions [post]
func (h *EditHandler) Suggest(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.CellRequest
	if !bindJSON(c, &req, "invalid cell payload") {
		return
	}
	res, err := h.service.SuggestFaculty(c.Request.Context(), session.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ApplySuggestion godoc
// @Summary Apply the stored suggestion to the working copy
// @Tags Timetable Edit
// @Accept json
// @Produce json
// @Param payload body dto.CellRequest true "Cell"
// @Success 200 {object} response.Envelope
// @Router /timetable/edit/suggestions/apply [post]
func (h *EditHandler) ApplySuggestion(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.CellRequest
	if !bindJSON(c, &req, "invalid cell payload") {
		return
	}
	view, message, err := h.service.ApplySuggestion(c.Request.Context(), session.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil, map[string]interface{}{"message": message})
}

// Save godoc
// @Summary Commit the working copy
// @Description Writes an audit entry listing every faculty and room change
// @Tags Timetable Edit
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/edit/save [post]
func (h *EditHandler) Save(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.Save(c.Request.Context(), *session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Cancel godoc
// @Summary Discard the working copy
// @Tags Timetable Edit
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/edit/cancel [post]
func (h *EditHandler) Cancel(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Cancel(c.Request.Context(), session.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// MarkAttendance godoc
// @Summary Record attendance for a class
// @Tags Timetable Edit
// @Accept json
// @Produce json
// @Param payload body dto.CellRequest true "Cell"
// @Success 201 {object} response.Envelope
// @Router /timetable/attendance [post]
func (h *EditHandler) MarkAttendance(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.CellRequest
	if !bindJSON(c, &req, "invalid cell payload") {
		return
	}
	res, err := h.service.MarkAttendance(c.Request.Context(), *session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}
