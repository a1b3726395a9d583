package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/caseops-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError sends an error response. Internal errors are logged and
// their cause is never echoed to the client.
func RespondWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.Internal(err)
	}

	status := appErr.StatusCode()
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	} else if appErr.Err != nil && appErr.Code == errors.ErrBadRequest {
		message = appErr.Error()
	}

	c.AbortWithStatusJSON(status, Response{
		Status:  "error",
		Message: message,
		Details: appErr.Details,
	})
}

// RespondWithPartial sends data that was stored alongside a partial-failure warning.
func RespondWithPartial(c *gin.Context, data interface{}, err *errors.AppError) {
	c.JSON(err.StatusCode(), Response{
		Status:  "partial",
		Message: err.Message,
		Data:    data,
		Details: err.Details,
	})
}
