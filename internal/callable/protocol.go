package callable

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quackchatNotification/internal/domain"
)

// Callable function status names, as the client SDKs expect them.
const (
	StatusUnauthenticated = "UNAUTHENTICATED"
	StatusInvalidArgument = "INVALID_ARGUMENT"
	StatusInternal        = "INTERNAL"
)

// Error is the body of a failed call: {"error": {...}}.
type Error struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error Error `json:"error"`
}

type resultEnvelope struct {
	Result interface{} `json:"result"`
}

// SuccessResult is the {success: true} reply of the fire-and-forget calls.
type SuccessResult struct {
	Success bool `json:"success"`
}

// TestNotificationResult is the reply of sendTestNotification.
type TestNotificationResult struct {
	Success     bool   `json:"success"`
	MessageID   string `json:"messageId,omitempty"`
	TokenPrefix string `json:"tokenPrefix,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
}

func writeResult(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, resultEnvelope{Result: result})
}

// writeError maps err onto the callable error envelope. Anything that is
// not an auth or argument problem is reported as a generic failure.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: Error{
			Status:  StatusUnauthenticated,
			Message: domain.ErrUnauthenticated.Error(),
		}})
	case errors.Is(err, domain.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorEnvelope{Error: Error{
			Status:  StatusInvalidArgument,
			Message: err.Error(),
		}})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorEnvelope{Error: Error{
			Status:  StatusInternal,
			Message: "internal error",
		}})
	}
}
