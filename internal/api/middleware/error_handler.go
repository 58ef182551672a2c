package middleware

import (
	"github.com/gin-gonic/gin"

	"video-qa/internal/api/errors"
	"video-qa/internal/app/common"
)

// ErrorHandler recovers panics and reports them as internal API errors
func ErrorHandler(logger common.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDKey)

		var apiErr *errors.APIError

		switch err := recovered.(type) {
		case *errors.APIError:
			apiErr = err
		case error:
			logger.Error("Internal server error",
				"error", err.Error(),
				"requestID", requestID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			apiErr = errors.NewInternalError("Internal server error")
		default:
			logger.Error("Unknown panic occurred",
				"recovered", recovered,
				"requestID", requestID,
			)
			apiErr = errors.NewInternalError("Internal server error")
		}

		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as an API error response. Engine errors are
// classified by kind; the original message is kept on the gin context
// for the request log.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := errors.FromError(err)
	if apiErr.Kind == errors.KindInternal || apiErr.Kind == errors.KindUpstream {
		_ = c.Error(err)
	}

	resp := *apiErr
	resp.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(resp.HTTPStatus(), &resp)
}
