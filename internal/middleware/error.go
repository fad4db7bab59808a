package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/logger"
)

// ErrorHandler renders the last error attached with c.Error as the JSON error
// envelope, unless a handler already wrote a response. Internal causes are
// logged with the request ID and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			logger.Get().Errorw("unexpected error",
				"error", err.Error(),
				"request_id", c.GetString(RequestIDKey),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			abortWithError(c, apperrors.ErrInternalServer)
			return
		}

		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"request_id", c.GetString(RequestIDKey),
				"path", c.Request.URL.Path,
			)
		}
		abortWithError(c, appErr)
	}
}
