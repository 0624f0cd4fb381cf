package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/horizon/engine"
	"github.com/mohammad-safakhou/horizon/internal/index"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search"
)

// Scanner runs a full scan.
type Scanner interface {
	Scan(ctx context.Context, opts engine.Options) (*engine.Outcome, error)
}

// ScenarioScorer rates scenarios.
type ScenarioScorer interface {
	Score(ctx context.Context, scenarios []models.Scenario) ([]models.ScenarioScore, error)
}

// Deps are the components the API exposes. A nil component disables its
// routes with 503.
type Deps struct {
	Scanner   Scanner
	Scorer    ScenarioScorer
	Searcher  web_search.WebSearcher
	Index     *index.Index
	Metrics   *telemetry.Metrics
	Log       *logging.Logger
	OutputDir string
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		d.Log.Warn("http error", "status", code, "method", req.Method, "path", req.URL.Path, "remote", c.RealIP(), "error", err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	h := &Handler{deps: d}
	api := e.Group("/api")
	h.Register(api)
	return e
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, d Deps) error {
	e := New(d)
	errCh := make(chan error, 1)
	go func() {
		d.Log.Info("listening", "addr", addr)
		errCh <- e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
