package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

// ErrorHandler renders the last error recorded with c.Error as {"error": msg}.
// Errors without a StatusCode become a 500 whose cause is logged, not returned.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		if err, ok := lastErr.Err.(interface{ StatusCode() int }); ok {
			status = err.StatusCode()
		}

		message := lastErr.Error()
		if status >= http.StatusInternalServerError {
			log.Error(lastErr.Err, "request failed",
				"request_id", c.GetString(ContextRequestID),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			message = "internal server error"
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, handler.NewErrorResponse(message))
	}
}
