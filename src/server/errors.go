package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	app "recipeserv/src/app"
	"recipeserv/src/logging"
)

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": "error", "error": message})
}

// respondError maps store errors onto status codes. Unexpected errors are logged and
// reported without detail.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	var validation *app.ValidationError
	switch {
	case errors.As(err, &validation):
		abortWithError(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, app.ErrConflict):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		abortWithError(c, http.StatusBadRequest, app.ErrInvalidCredentials.Error())
	case errors.Is(err, app.ErrNotFound):
		abortWithError(c, http.StatusNotFound, app.ErrNotFound.Error())
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}
