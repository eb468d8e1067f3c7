// Package server runs catalogs on a transport: stdio, streamable HTTP, or
// several catalogs aggregated under one HTTP router.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wagnerlima/mozichem-hub/internal/catalog"
	"github.com/wagnerlima/mozichem-hub/internal/config"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
)

// Run serves one catalog on the transport selected by cfg until ctx is done.
func Run(ctx context.Context, c *catalog.Catalog, cfg config.Config, logger zerolog.Logger) error {
	logger = logging.Component(logger, "server")
	switch cfg.Transport {
	case config.TransportStdio:
		logger.Info().Str("catalog", c.Name()).Msg("serving on stdio")
		return c.Run(ctx, &mcp.StdioTransport{})
	case config.TransportStreamableHTTP:
		a := NewAggregator([]*catalog.Catalog{c}, logger)
		a.prefixed = false
		return a.Serve(ctx, cfg)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// Handler returns the streamable HTTP handler of a published catalog.
func Handler(c *catalog.Catalog) (http.Handler, error) {
	srv, err := c.Publish()
	if err != nil {
		return nil, err
	}
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil), nil
}

// ListenAndServe serves h on addr until ctx is done, then shuts down within
// timeout. A bind failure is returned before anything is served.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, timeout time.Duration, logger zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		logger.Info().Msg("HTTP server stopped")
		return nil
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
