package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhav0108/timetable-ace-api/internal/middleware"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	appErrors "github.com/anubhav0108/timetable-ace-api/pkg/errors"
	"github.com/anubhav0108/timetable-ace-api/pkg/response"
)

// sessionFromContext aborts with 401 when the JWT middleware did not run.
func sessionFromContext(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	session, ok := value.(*models.Session)
	if !ok || session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return session, true
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
