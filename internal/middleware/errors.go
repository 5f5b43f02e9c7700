package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/itchpulse/internal/domain/dto"
	"github.com/guttosm/itchpulse/internal/logger"
)

// ErrorHandler converts errors attached to the Gin context via c.Error into a
// standardized 500 JSON body. Handlers that already wrote a response are left
// untouched.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	logger.L().Error().Err(err).
		Str("path", c.Request.URL.Path).
		Msg("unhandled request error")

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", err))
}

// AbortWithError stops the handler chain and writes a standardized error body
// with the given status code.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
