package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Error(), "boom")
}

func TestFromErrorKeepsTyped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrValidation, "bad day"))
	appErr := FromError(wrapped)
	assert.Equal(t, "bad day", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrGenerationInProgress, "busy")
	assert.True(t, stdErrors.Is(err, ErrGenerationInProgress))
	assert.False(t, stdErrors.Is(err, ErrConflict))
	assert.Equal(t, "a timetable generation is already running for this session", ErrGenerationInProgress.Message)
}
