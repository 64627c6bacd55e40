package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
)

// envelope is the body of every successful API response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respond(c *gin.Context, status int, data any, msg string) {
	c.JSON(status, envelope{StatusCode: status, Data: data, Message: msg, Success: status < http.StatusBadRequest})
}

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorEnvelope{StatusCode: status, Message: msg, Errors: []string{}})
}

// statusOf maps the error taxonomy to HTTP status codes. ErrInternal wins
// over any sentinel it wraps.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "invalid request",
	http.StatusUnauthorized:        "unauthorized request",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not found",
	http.StatusConflict:            "already exists",
	http.StatusTooManyRequests:     "too many failed attempts, try again later",
	http.StatusInternalServerError: "internal server error",
}

// fail writes err as an error envelope. Server-side failures are logged,
// their details never reach the client.
func fail(c *gin.Context, log *zap.Logger, err error) {
	status := statusOf(err)
	msg := defaultMessages[status]
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	} else if m, ok := errs.Message(err); ok {
		msg = m
	}
	abortWith(c, status, msg)
}
