package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anubhav0108/timetable-ace-api/internal/dto"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
)

type workspaceServiceStub struct {
	constraintsRaw []byte
	importedKind   models.DatasetKind
	importedBody   string
}

func (s *workspaceServiceStub) Get(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error) {
	return &dto.WorkspaceResponse{Session: models.Session{ID: sessionID}}, nil
}

func (s *workspaceServiceStub) ReplaceDataset(ctx context.Context, sessionID string, dataset models.Dataset) (*models.DatasetSummary, error) {
	summary := dataset.Summary()
	return &summary, nil
}

func (s *workspaceServiceStub) ImportCSV(ctx context.Context, sessionID string, kind models.DatasetKind, r io.Reader) (*dto.DatasetImportResponse, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.importedKind = kind
	s.importedBody = string(body)
	return &dto.DatasetImportResponse{Kind: kind, Imported: 1}, nil
}

func (s *workspaceServiceStub) GetScenario(ctx context.Context, sessionID string) (*dto.ScenarioResponse, error) {
	return &dto.ScenarioResponse{}, nil
}

func (s *workspaceServiceStub) UpdateScenario(ctx context.Context, sessionID string, scenario models.Scenario) (*dto.ScenarioResponse, error) {
	return &dto.ScenarioResponse{Scenario: scenario, Active: scenario.Active()}, nil
}

func (s *workspaceServiceStub) ResetScenario(ctx context.Context, sessionID string) (*dto.ScenarioResponse, error) {
	return &dto.ScenarioResponse{}, nil
}

func (s *workspaceServiceStub) GetConstraints(ctx context.Context, sessionID string) (*dto.ConstraintsResponse, error) {
	return &dto.ConstraintsResponse{}, nil
}

func (s *workspaceServiceStub) UpdateConstraints(ctx context.Context, sessionID string, raw []byte) (*dto.ConstraintsResponse, error) {
	s.constraintsRaw = raw
	return &dto.ConstraintsResponse{}, nil
}

func TestWorkspaceHandlerForwardsRawConstraints(t *testing.T) {
	stub := &workspaceServiceStub{}
	h := NewWorkspaceHandler(stub)

	raw := `{"maxHoursPerDay":6,"custom":{"nested":true}}`
	c, w := newGinContext(http.MethodPut, "/workspace/constraints", []byte(raw))
	withSession(c, models.RoleAdmin)
	h.UpdateConstraints(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, raw, string(stub.constraintsRaw))
}

func TestWorkspaceHandlerImportCSVMultipart(t *testing.T) {
	stub := &workspaceServiceStub{}
	h := NewWorkspaceHandler(stub)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "rooms.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("id,name,capacity\nR9,LH-9,40\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/workspace/dataset/rooms/csv", buf.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "kind", Value: "rooms"}}
	withSession(c, models.RoleAdmin)
	h.ImportCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DatasetRooms, stub.importedKind)
	assert.Contains(t, stub.importedBody, "LH-9")
}

func TestWorkspaceHandlerImportCSVRawBody(t *testing.T) {
	stub := &workspaceServiceStub{}
	h := NewWorkspaceHandler(stub)

	c, w := newGinContext(http.MethodPost, "/workspace/dataset/students/csv", []byte("id,name,program\nS1,Asha,B.Ed\n"))
	c.Request.Header.Set("Content-Type", "text/csv")
	c.Params = gin.Params{{Key: "kind", Value: "students"}}
	withSession(c, models.RoleAdmin)
	h.ImportCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DatasetStudents, stub.importedKind)
	assert.Contains(t, stub.importedBody, "Asha")
}

func TestWorkspaceHandlerScenarioBindError(t *testing.T) {
	h := NewWorkspaceHandler(&workspaceServiceStub{})

	c, w := newGinContext(http.MethodPut, "/workspace/scenario", []byte(`{"facultyOnLeave":"F1"}`))
	withSession(c, models.RoleAdmin)
	h.UpdateScenario(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrValidation.Code)
}
