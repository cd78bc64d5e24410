package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/logger"
)

// ErrorHandler renders the last error attached to the gin context. AppErrors keep their code
// and message; anything else becomes INTERNAL_ERROR with the cause only in the logs.
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
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", c.GetString(RequestIDKey),
			)
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"request_id", c.GetString(RequestIDKey),
			)
		}
		abortWithError(c, appErr)
	}
}
