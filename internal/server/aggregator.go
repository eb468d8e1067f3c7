package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wagnerlima/mozichem-hub/internal/catalog"
	"github.com/wagnerlima/mozichem-hub/internal/config"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
)

// Aggregator mounts several catalogs on one HTTP router and starts and stops
// them together.
type Aggregator struct {
	catalogs []*catalog.Catalog
	prefixed bool
	logger   zerolog.Logger
}

// NewAggregator returns an aggregator over cs. Each catalog is mounted under
// its own name.
func NewAggregator(cs []*catalog.Catalog, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		catalogs: cs,
		prefixed: true,
		logger:   logging.Component(logger, "aggregator"),
	}
}

// MountPath returns the path a catalog is served on.
func (a *Aggregator) MountPath(c *catalog.Catalog, path string) string {
	if !a.prefixed {
		return path
	}
	return "/" + c.Name() + path
}

// CatalogHealth is one catalog entry of /healthz.
type CatalogHealth struct {
	Name  string        `json:"name"`
	ID    string        `json:"id"`
	State catalog.State `json:"state"`
	Path  string        `json:"path"`
	Tools int           `json:"tools"`
}

// Router publishes every catalog and mounts its streamable HTTP handler.
// GET /healthz lists the mounted catalogs.
func (a *Aggregator) Router(path string) (chi.Router, error) {
	r := chi.NewRouter()
	for _, c := range a.catalogs {
		h, err := Handler(c)
		if err != nil {
			return nil, err
		}
		mount := a.MountPath(c, path)
		r.Handle(mount, h)
		a.logger.Debug().Str("catalog", c.Name()).Str("path", mount).Msg("catalog mounted")
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		out := make([]CatalogHealth, len(a.catalogs))
		for i, c := range a.catalogs {
			out[i] = CatalogHealth{
				Name:  c.Name(),
				ID:    c.ID(),
				State: c.State(),
				Path:  a.MountPath(c, path),
				Tools: len(c.Tools()),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "catalogs": out})
	})
	return r, nil
}

// Start starts every catalog. If one fails, all of them are stopped.
func (a *Aggregator) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range a.catalogs {
		g.Go(func() error {
			return c.Start(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Join(err, a.Stop())
	}
	return nil
}

// Stop stops the catalogs in reverse order and joins their errors.
func (a *Aggregator) Stop() error {
	var errList []error
	for i := len(a.catalogs) - 1; i >= 0; i-- {
		if err := a.catalogs[i].Stop(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Serve mounts and starts the catalogs, serves them on cfg's address until
// ctx is done, then stops them.
func (a *Aggregator) Serve(ctx context.Context, cfg config.Config) error {
	r, err := a.Router(cfg.Path)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	names := make([]string, len(a.catalogs))
	for i, c := range a.catalogs {
		names[i] = c.Name()
	}
	a.logger.Info().Strs("catalogs", names).Str("addr", cfg.Addr()).Msg("serving streamable HTTP")
	err = ListenAndServe(ctx, cfg.Addr(), r, cfg.ShutdownTimeout, a.logger)
	return errors.Join(err, a.Stop())
}
