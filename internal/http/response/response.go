package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/platform/apierr"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondWithError maps engine and api errors onto a status and envelope.
func RespondWithError(c *gin.Context, err error) {
	status, code, retryable := Classify(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      code,
			Retryable: retryable,
		},
	})
}

func Classify(err error) (status int, code string, retryable bool) {
	if ae, ok := apierr.As(err); ok && ae.Status != 0 {
		return ae.Status, ae.Code, false
	}
	switch progression.KindOf(err) {
	case progression.KindNotFound:
		return http.StatusNotFound, string(progression.KindNotFound), false
	case progression.KindInvalidTransition:
		return http.StatusConflict, string(progression.KindInvalidTransition), false
	case progression.KindAttemptsExhausted:
		return http.StatusConflict, string(progression.KindAttemptsExhausted), false
	case progression.KindPersistenceFailure:
		return http.StatusServiceUnavailable, string(progression.KindPersistenceFailure), true
	}
	return http.StatusInternalServerError, "internal", false
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
