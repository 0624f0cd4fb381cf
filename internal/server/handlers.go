package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/horizon/engine"
	"github.com/mohammad-safakhou/horizon/internal/scenario"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/tools/web_search/retry"
)

type Handler struct {
	deps Deps
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/scenarios/score", h.scoreScenarios)
	g.POST("/search", h.search)
	g.GET("/signals", h.signals)
	g.POST("/scans", h.scan)
}

type scoreRequest struct {
	Text      string            `json:"text"`
	Scenarios []models.Scenario `json:"scenarios"`
}

type scoreResponse struct {
	Scenarios []models.Scenario      `json:"scenarios"`
	Scores    []models.ScenarioScore `json:"scores"`
}

func (h *Handler) scoreScenarios(c echo.Context) error {
	if h.deps.Scorer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "scenario scoring not configured")
	}
	var req scoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	scenarios := req.Scenarios
	if strings.TrimSpace(req.Text) != "" {
		scenarios = scenario.Extract(req.Text)
	}
	if scenarios == nil {
		scenarios = []models.Scenario{}
	}
	scores, err := h.deps.Scorer.Score(c.Request().Context(), scenarios)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, scoreResponse{Scenarios: scenarios, Scores: scores})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) search(c echo.Context) error {
	if h.deps.Searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search not configured")
	}
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	results, err := h.deps.Searcher.Search(c.Request().Context(), req.Query)
	if err != nil {
		var httpErr *retry.HTTPError
		if errors.As(err, &httpErr) {
			return echo.NewHTTPError(http.StatusBadGateway, httpErr.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) signals(c echo.Context) error {
	if h.deps.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "signal index not enabled")
	}
	k := 10
	if v := c.QueryParam("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = n
	}
	hits, err := h.deps.Index.Search(c.QueryParam("q"), k)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hits": hits})
}

type scanRequest struct {
	Topic             string `json:"topic"`
	SkipWebSearch     bool   `json:"skip_web_search"`
	NoScenarioScoring bool   `json:"no_scenario_scoring"`
	NoCache           bool   `json:"no_cache"`
	RefreshCache      bool   `json:"refresh_cache"`
}

func (h *Handler) scan(c echo.Context) error {
	if h.deps.Scanner == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "scanner not configured")
	}
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Topic) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic required")
	}
	out, err := h.deps.Scanner.Scan(c.Request().Context(), engine.Options{
		Topic:             req.Topic,
		OutputDir:         h.deps.OutputDir,
		NoCache:           req.NoCache,
		RefreshCache:      req.RefreshCache,
		NoScenarioScoring: req.NoScenarioScoring,
		SkipWebSearch:     req.SkipWebSearch,
		TagFiles:          true,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}
