package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/http/middleware"
	"github.com/tbourn/go-farmstand/internal/services"
)

// wrapRouter mounts fn behind the error chain and counts how often the
// terminal stage sees an error.
func wrapRouter(fn HandlerFunc, after *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorChain(middleware.DefaultStages()...))
	r.GET("/x/:id", Wrap(fn), func(c *gin.Context) {
		*after++
		c.String(http.StatusOK, "next")
	})
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var msg string
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("body %q is not a JSON string: %v", w.Body.String(), err)
	}
	return msg
}

func TestWrap_ForwardsReturnedErrorOnce(t *testing.T) {
	var after int
	r := wrapRouter(func(c *gin.Context) error {
		return domain.NewError("nope", http.StatusTeapot)
	}, &after)

	w := serve(r, http.MethodGet, "/x/1")
	if w.Code != http.StatusTeapot || message(t, w) != "nope" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if after != 0 {
		t.Fatalf("chain continued after failure")
	}
}

func TestWrap_SuccessContinues(t *testing.T) {
	var after int
	r := wrapRouter(func(c *gin.Context) error { return nil }, &after)
	if w := serve(r, http.MethodGet, "/x/1"); w.Code != http.StatusOK || after != 1 {
		t.Fatalf("got %d, after=%d", w.Code, after)
	}
}

func TestWrap_PanicWithDomainErrorKeepsStatus(t *testing.T) {
	var after int
	r := wrapRouter(func(c *gin.Context) error {
		panic(domain.NewError("Invalid Id", http.StatusBadRequest))
	}, &after)

	w := serve(r, http.MethodGet, "/x/1")
	if w.Code != http.StatusBadRequest || message(t, w) != "Invalid Id" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestWrap_PanicWithValueIs500(t *testing.T) {
	var after int
	r := wrapRouter(func(c *gin.Context) error { panic("kaboom") }, &after)

	w := serve(r, http.MethodGet, "/x/1")
	if w.Code != http.StatusInternalServerError || message(t, w) != domain.DefaultErrorMessage {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestInvoke_WrapsPanicError(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := invoke(func(*gin.Context) error { panic(sentinel) }, nil)
	if !errors.Is(err, sentinel) {
		t.Fatalf("panic error not wrapped: %v", err)
	}
}

func TestToDomain(t *testing.T) {
	cases := []struct {
		in     error
		status int
		msg    string
	}{
		{fmt.Errorf("get: %w", services.ErrProductNotFound), http.StatusNotFound, MsgProductNotFound},
		{services.ErrFarmNotFound, http.StatusNotFound, MsgFarmNotFound},
	}
	for _, tc := range cases {
		var de *domain.Error
		if !errors.As(toDomain(tc.in), &de) || de.Status() != tc.status || de.Message() != tc.msg {
			t.Fatalf("toDomain(%v) = %v", tc.in, de)
		}
	}
	other := errors.New("other")
	if toDomain(other) != other {
		t.Fatalf("unknown errors must pass through")
	}
}

func TestPathID(t *testing.T) {
	var after int
	r := wrapRouter(func(c *gin.Context) error {
		_, err := pathID(c)
		return err
	}, &after)

	if w := serve(r, http.MethodGet, "/x/64b7f0c2a1b2c3d4e5f60718"); w.Code != http.StatusOK {
		t.Fatalf("valid id rejected: %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/x/123")
	if w.Code != http.StatusBadRequest || message(t, w) != domain.MsgInvalidID {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestFallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.ErrorChain(middleware.DefaultStages()...))
	r.NoRoute(Wrap(NotFound))
	r.NoMethod(Wrap(MethodNotAllowed))
	r.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/nowhere")
	if w.Code != http.StatusNotFound || message(t, w) != MsgPageNotFound {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodPost, "/only-get")
	if w.Code != http.StatusMethodNotAllowed || message(t, w) != "Method Not Allowed" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}
