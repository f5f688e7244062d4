// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the error normalization chain. Handlers and middleware
// report failures with c.Error and abort; ErrorChain runs after the rest of the
// chain has finished, passes the recorded error through an ordered list of
// classifier stages, and then writes exactly one response whose body is the
// JSON-encoded message string:
//
//	HTTP/1.1 400 Bad Request
//	"Invalid Id"
//
// Classifier stages translate known failure kinds into *domain.Error values.
// Anything that is still not a *domain.Error when the terminal stage runs is
// reported as 500 with the default message; its details only reach the log.
package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// ValidationPrefix is prepended to schema validation messages.
const ValidationPrefix = "Validation Failed..."

// ErrorStage rewrites an error. A stage returns err unchanged when it does not
// recognize it.
type ErrorStage func(err error) error

// httpErrors counts responses written by the terminal stage.
var httpErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "farmstand_http_errors_total",
		Help: "Error responses written by the error chain, by status code.",
	},
	[]string{"status"},
)

func init() {
	prometheus.MustRegister(httpErrors)
}

// ClassifyValidation turns a storage schema-validation failure into a 400
// Domain Error whose message is ValidationPrefix followed by the original
// message. It recognizes failures by type, never by message text.
func ClassifyValidation(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return domain.NewError(ValidationPrefix+ve.Error(), http.StatusBadRequest)
	}
	return err
}

// DefaultStages is the classifier list used by the router.
func DefaultStages() []ErrorStage {
	return []ErrorStage{ClassifyValidation}
}

// ErrorChain returns a middleware that normalizes the first error recorded on
// the context. Register it before any middleware that may report errors so it
// observes them on the way back out.
func ErrorChain(stages ...ErrorStage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors[0].Err
		for _, stage := range stages {
			err = stage(err)
		}
		respondError(c, err)
	}
}

// respondError is the terminal stage: it writes the status and the message of
// err as a JSON string. If a response was already started it only logs.
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, domain.DefaultErrorMessage
	var de *domain.Error
	if errors.As(err, &de) {
		status, message = de.Status(), de.Message()
	}

	lg := LoggerFrom(c)
	if c.Writer.Written() {
		lg.Error().Err(err).Int("status", c.Writer.Status()).Msg("error after response started")
		return
	}
	if status >= http.StatusInternalServerError {
		lg.Error().Err(err).Int("status", status).Msg("request failed")
	}

	httpErrors.WithLabelValues(strconv.Itoa(status)).Inc()
	c.JSON(status, message)
}

// Fail records err on the context and aborts the remaining handlers. It is the
// single way middleware and handlers hand a failure to ErrorChain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
