// Package handlers implements the server-rendered product and farm pages.
//
// Handlers are written as func(*gin.Context) error and mounted through Wrap,
// so every failure, returned or panicked, reaches the error chain exactly once.
// Successful requests either render a view or redirect with 303 See Other.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/http/middleware"
	"github.com/tbourn/go-farmstand/internal/services"
)

// Client-facing messages.
const (
	MsgProductNotFound = "Product Not Found"
	MsgFarmNotFound    = "Farm Not Found"
	MsgPageNotFound    = "Page Not Found"
	MsgBadForm         = "Invalid form submission"
	MsgBodyTooLarge    = "Request body too large"
)

// HandlerFunc is a handler that reports failure by returning an error.
type HandlerFunc func(c *gin.Context) error

// Wrap adapts fn to gin. A returned error or a panic inside fn is recorded on
// the context and the chain is aborted; panics are converted to errors that
// wrap the panic value when it is an error.
func Wrap(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := invoke(fn, c); err != nil {
			middleware.Fail(c, err)
		}
	}
}

func invoke(fn HandlerFunc, c *gin.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("handler panic: %w", e)
				return
			}
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return fn(c)
}

// NotFound is the fallback for unknown routes.
func NotFound(c *gin.Context) error {
	return domain.NewError(MsgPageNotFound, http.StatusNotFound)
}

// MethodNotAllowed is the fallback for known paths hit with the wrong method.
func MethodNotAllowed(c *gin.Context) error {
	return domain.NewError(http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// toDomain maps service sentinels to client-facing Domain Errors. Everything
// else, including validation failures, is returned unchanged.
func toDomain(err error) error {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return domain.NewError(MsgProductNotFound, http.StatusNotFound)
	case errors.Is(err, services.ErrFarmNotFound):
		return domain.NewError(MsgFarmNotFound, http.StatusNotFound)
	default:
		return err
	}
}

// bind decodes the submitted form into dst.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewError(MsgBodyTooLarge, http.StatusRequestEntityTooLarge)
		}
		return domain.NewError(MsgBadForm, http.StatusBadRequest)
	}
	return nil
}

// pathID returns the :id parameter once it is a well-formed identifier.
func pathID(c *gin.Context) (string, error) {
	id := c.Param("id")
	if err := domain.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

func render(c *gin.Context, view, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	c.HTML(http.StatusOK, view, data)
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
