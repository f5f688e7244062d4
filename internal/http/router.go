// Package httpapi wires the HTTP transport (Gin) to the catalog services,
// middleware, and page handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, compression, metrics,
// error normalization, rate limiting, CORS, and security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-farmstand/internal/config"
	"github.com/tbourn/go-farmstand/internal/domain"
	"github.com/tbourn/go-farmstand/internal/http/handlers"
	"github.com/tbourn/go-farmstand/internal/http/middleware"
	"github.com/tbourn/go-farmstand/internal/services"
	"github.com/tbourn/go-farmstand/internal/store"
	"github.com/tbourn/go-farmstand/internal/web"
)

const healthTimeout = 2 * time.Second

// RegisterRoutes attaches all middleware, views and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs with redaction
//  4. Recovery: panics outside the handler adapter
//  5. Gzip (optional)
//  6. Metrics: sees the final status written below
//  7. ErrorChain: normalizes every error recorded further down
//  8. Body size limiter
//  9. Rate limiter (reports 429 through the error chain)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, catalog store.Catalog, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(web.MustTemplates())

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorChain(middleware.DefaultStages()...))
	r.Use(limitBody(cfg.MaxBodyBytes))
	if cfg.RateRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP(), "/health", "/metrics")
		r.Use(rl.Handler())
	}
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(handlers.Wrap(handlers.NotFound))
	r.NoMethod(handlers.Wrap(handlers.MethodNotAllowed))

	r.GET("/health", handlers.Wrap(health(catalog)))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/products") })

	h := handlers.New(
		services.NewProductService(catalog),
		services.NewFarmService(catalog),
	)

	products := r.Group("/products")
	{
		products.GET("", handlers.Wrap(h.ListProducts))
		products.GET("/new", handlers.Wrap(h.NewProduct))
		products.POST("", handlers.Wrap(h.CreateProduct))
		products.GET("/:id", handlers.Wrap(h.ShowProduct))
		products.GET("/:id/edit", handlers.Wrap(h.EditProduct))
		products.PUT("/:id", handlers.Wrap(h.UpdateProduct))
		products.DELETE("/:id", handlers.Wrap(h.DeleteProduct))
	}

	farms := r.Group("/farms")
	{
		farms.GET("", handlers.Wrap(h.ListFarms))
		farms.GET("/new", handlers.Wrap(h.NewFarm))
		farms.POST("", handlers.Wrap(h.CreateFarm))
		farms.GET("/:id", handlers.Wrap(h.ShowFarm))
		farms.DELETE("/:id", handlers.Wrap(h.DeleteFarm))
		farms.GET("/:id/products/new", handlers.Wrap(h.NewFarmProduct))
		farms.POST("/:id/products", handlers.Wrap(h.CreateFarmProduct))
	}
}

// NewHandler builds the engine and returns it behind the method override
// wrapper, ready for http.Server.
func NewHandler(catalog store.Catalog, cfg config.Config) http.Handler {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	RegisterRoutes(r, catalog, cfg)
	return middleware.MethodOverride(r)
}

// health reports 200 when the catalog backend answers a ping.
func health(catalog store.Catalog) handlers.HandlerFunc {
	return func(c *gin.Context) error {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := catalog.Ping(ctx); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
			return domain.NewError(http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return nil
	}
}

// corsMiddleware allows the configured origins, or any origin for safe
// methods when none are configured.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
		cc.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

// limitBody caps request bodies at maxBytes; oversized form posts fail when
// the handler reads the body.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
