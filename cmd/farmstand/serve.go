package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-farmstand/internal/config"
	httpapi "github.com/tbourn/go-farmstand/internal/http"
	"github.com/tbourn/go-farmstand/internal/observability"
	"github.com/tbourn/go-farmstand/internal/store"
)

const connectTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringP("port", "p", "", "port to listen on (overrides PORT)")
	return cmd
}

// runServe opens the catalog, installs tracing, and serves until ctx is done.
func runServe(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, cfg.Storage.Driver, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	octx, cancel := context.WithTimeout(ctx, connectTimeout)
	catalog, err := store.Open(octx, cfg.Storage)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := catalog.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("catalog close")
		}
	}()

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, ln, newServer(cfg, httpapi.NewHandler(catalog, cfg)), cfg.ShutdownTimeout)
}

func newServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// serve runs srv on ln until ctx is canceled, then drains in-flight requests
// for at most grace.
func serve(ctx context.Context, ln net.Listener, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("version", version).Msg("farmstand listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
