package console

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threedollars/admin-console/pkg/admin"
	"github.com/threedollars/admin-console/pkg/client"
	"github.com/threedollars/admin-console/pkg/pagination"
	"github.com/threedollars/admin-console/pkg/session"
)

// errorResponse is the JSON body of every failed console request.
type errorResponse struct {
	Error     string            `json:"error"`
	Class     client.ErrorClass `json:"class,omitempty"`
	Retryable bool              `json:"retryable"`
}

func abortJSON(c *gin.Context, status int, message string, class client.ErrorClass) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     message,
		Class:     class,
		Retryable: class == client.ErrorClassNetwork || class == client.ErrorClassServer,
	})
}

// statusFor maps an error to the console's HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrViewNotFound), errors.Is(err, pagination.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrUnknownResource), errors.Is(err, session.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, admin.ErrNotDeletable):
		return http.StatusMethodNotAllowed
	case errors.Is(err, session.ErrTokenExpired), errors.Is(err, client.ErrNoToken):
		return http.StatusUnauthorized
	}

	switch client.ClassOf(err) {
	case client.ErrorClassUnauthorized:
		return http.StatusUnauthorized
	case client.ErrorClassApplication:
		return http.StatusConflict
	case client.ErrorClassNetwork, client.ErrorClassServer, client.ErrorClassProtocol:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Class == client.ErrorClassApplication && apiErr.Message != "" {
		message = apiErr.Message
	}
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	abortJSON(c, status, message, client.ClassOf(err))
}
