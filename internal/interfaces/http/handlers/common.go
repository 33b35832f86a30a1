// Package handlers implements the gin handlers of the SymptomSense API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

// statusClientClosedRequest is the non-standard status used when the client
// went away before the response was written.
const statusClientClosedRequest = 499

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps err to a status and body.  AppError messages are safe to
// show; every other error is masked and logged.
func writeError(c *gin.Context, logger logging.Logger, err error) {
	_ = c.Error(err)

	var (
		status int
		code   apperrors.ErrorCode
		msg    string
		ae     *apperrors.AppError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = apperrors.ErrCodeTimeout
		status, msg = apperrors.HTTPStatusForCode(code), apperrors.DefaultMessageForCode(code)
	case errors.Is(err, context.Canceled):
		code = apperrors.ErrCodeBadRequest
		status, msg = statusClientClosedRequest, "request canceled"
	case errors.As(err, &tooBig):
		code = apperrors.ErrCodeBadRequest
		status, msg = http.StatusRequestEntityTooLarge, "request body too large"
	case errors.As(err, &ae):
		code, msg = ae.Code, ae.Message
		status = apperrors.HTTPStatusForCode(code)
		if msg == "" {
			msg = apperrors.DefaultMessageForCode(code)
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", logging.Err(err), logging.String("code", code.String()))
		}
	default:
		code = apperrors.ErrCodeInternal
		status, msg = http.StatusInternalServerError, apperrors.DefaultMessageForCode(code)
		logger.Error("unclassified error", logging.Err(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code.String(),
		Message:   msg,
		RequestID: middleware.GetRequestID(c),
	})
}

// bindJSON decodes the body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, logger logging.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, logger, apperrors.InvalidParam("invalid request body").WithCause(err))
		return false
	}
	return true
}

// withTimeout bounds the request context when timeout is positive.
func withTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
