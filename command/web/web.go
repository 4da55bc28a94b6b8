package web

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"judicial-stats/command/app"
	"judicial-stats/connectors/config"
	"judicial-stats/connectors/xlsx"
	"judicial-stats/domain/master"
	"judicial-stats/domain/stats"
)

// Stats is the query façade served under /api/stats.
type Stats interface {
	DependencyStats(ctx context.Context, dependency, month, year string) []stats.DependencyStat
	ComparisonStats(ctx context.Context, dependencies []string, month, year string) []stats.ComparisonStat
	EvolutionStats(ctx context.Context, dependency, startMonth, endMonth, year, objectType string) ([]stats.EvolutionPoint, error)
	Dependencies(ctx context.Context) []string
	ObjectTypes(ctx context.Context, dependency string) []string
}

// Master is the SQL-backed variant served under /api/master.
type Master interface {
	Summary(ctx context.Context, f master.Filter) ([]master.Summary, error)
	Aggregates(ctx context.Context, f master.Filter) ([]master.Aggregate, error)
	Entries(ctx context.Context, f master.Filter) ([]master.Entry, error)
	RecentSyncs(ctx context.Context, limit int) ([]master.SyncLog, error)
	Status() master.Status
	Sync(ctx context.Context) (master.Result, error)
}

// Run starts the Echo server exposing the statistics APIs, the raw period
// files and an optional SPA dashboard.
//
// Usage:
//
//	judicial-stats web [-addr :8080] [-data ./data] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET  /api/dependencies
//	GET  /api/object_types?dependency=
//	GET  /api/stats/dependency?dependency=&month=&year=
//	GET  /api/stats/comparison?dependencies=A,B&month=&year=
//	GET  /api/stats/evolution?dependency=&start_month=&end_month=&year=[&object_type=]
//	GET  /api/export/dependency.xlsx, /api/export/evolution.xlsx (same parameters)
//	GET  /api/master/summary|aggregates|sheets?plantilla=&anio=&mes=
//	GET  /api/master/sync/status, /api/master/sync/log?limit=
//	POST /api/master/sync
//	GET  /data/<file>  period CSV files
//
// Dependencies and object types are discovered from a fixed sample of
// periods; values that only occur outside the sample are not listed.
func Run(args []string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Web.Addr, "http listen address (host:port)")
	dataDir := fs.String("data", cfg.Data.Dir, "directory containing the period CSV files")
	uiDir := fs.String("ui", cfg.Web.UI, "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Data.Dir = *dataDir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ms Master
	if cfg.Master.Enabled {
		svc, closeDB, err := app.NewMaster(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		ms = svc
		if !svc.Mock() {
			sched := master.NewScheduler(func(ctx context.Context) error {
				_, err := svc.Sync(ctx)
				return err
			}, cfg.Master.SyncInterval, nil, slog.Default())
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()
		}
	}

	e := NewServer(app.NewStats(cfg), ms, *dataDir, *uiDir)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web.start", "addr", *addr, "data", *dataDir, "master", ms != nil)
		errCh <- e.Start(*addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("web.shutdown")
	return e.Shutdown(shutdownCtx)
}

// NewServer registers all routes. m may be nil when the master variant is
// disabled.
func NewServer(st Stats, m Master, dataDir, uiDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	h := &handlers{stats: st, master: m}

	e.GET("/api/dependencies", h.dependencies)
	e.GET("/api/object_types", h.objectTypes)
	e.GET("/api/stats/dependency", h.dependencyStats)
	e.GET("/api/stats/comparison", h.comparisonStats)
	e.GET("/api/stats/evolution", h.evolutionStats)
	e.GET("/api/export/dependency.xlsx", h.exportDependency)
	e.GET("/api/export/evolution.xlsx", h.exportEvolution)

	e.GET("/api/master/summary", h.masterSummary)
	e.GET("/api/master/aggregates", h.masterAggregates)
	e.GET("/api/master/sheets", h.masterSheets)
	e.GET("/api/master/sync/status", h.masterStatus)
	e.GET("/api/master/sync/log", h.masterSyncLog)
	e.POST("/api/master/sync", h.masterSync)

	// Period files, with HEAD so HTTP sources can probe file names.
	serveData := func(c echo.Context) error {
		name := c.Param("*")
		if n, err := url.PathUnescape(name); err == nil {
			name = n
		}
		return c.File(filepath.Join(dataDir, filepath.Base(name)))
	}
	e.GET("/data/*", serveData)
	e.HEAD("/data/*", serveData)

	// Static UI (optional)
	indexPath := filepath.Join(uiDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", uiDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing)
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") && !strings.HasPrefix(p, "/data") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}

type handlers struct {
	stats  Stats
	master Master
}

func (h *handlers) dependencies(c echo.Context) error {
	return c.JSON(http.StatusOK, h.stats.Dependencies(c.Request().Context()))
}

func (h *handlers) objectTypes(c echo.Context) error {
	dep := strings.TrimSpace(c.QueryParam("dependency"))
	if dep == "" {
		return badRequest(c, errors.New("dependency is required"))
	}
	return c.JSON(http.StatusOK, h.stats.ObjectTypes(c.Request().Context(), dep))
}

func (h *handlers) dependencyStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.stats.DependencyStats(c.Request().Context(),
		c.QueryParam("dependency"), c.QueryParam("month"), c.QueryParam("year")))
}

// dependencyList accepts repeated dependency= params and comma separated
// dependencies=.
func dependencyList(c echo.Context) []string {
	var out []string
	for _, d := range c.QueryParams()["dependency"] {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	for _, d := range strings.Split(c.QueryParam("dependencies"), ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func (h *handlers) comparisonStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.stats.ComparisonStats(c.Request().Context(),
		dependencyList(c), c.QueryParam("month"), c.QueryParam("year")))
}

func (h *handlers) evolution(c echo.Context) ([]stats.EvolutionPoint, error) {
	return h.stats.EvolutionStats(c.Request().Context(),
		c.QueryParam("dependency"), c.QueryParam("start_month"), c.QueryParam("end_month"),
		c.QueryParam("year"), c.QueryParam("object_type"))
}

func (h *handlers) evolutionStats(c echo.Context) error {
	points, err := h.evolution(c)
	if err != nil {
		return badRequest(c, err)
	}
	return c.JSON(http.StatusOK, points)
}

func (h *handlers) exportDependency(c echo.Context) error {
	dep := c.QueryParam("dependency")
	rows := h.stats.DependencyStats(c.Request().Context(), dep, c.QueryParam("month"), c.QueryParam("year"))
	r := xlsx.NewReport()
	defer r.Close()
	if err := r.AddDependencyStats(dep, rows); err != nil {
		return internalError(c, err)
	}
	return writeXLSX(c, r, "dependencia")
}

func (h *handlers) exportEvolution(c echo.Context) error {
	points, err := h.evolution(c)
	if err != nil {
		return badRequest(c, err)
	}
	r := xlsx.NewReport()
	defer r.Close()
	if err := r.AddEvolution(c.QueryParam("dependency"), points); err != nil {
		return internalError(c, err)
	}
	return writeXLSX(c, r, "evolucion")
}

func writeXLSX(c echo.Context, r *xlsx.Report, name string) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, "attachment; filename="+name+".xlsx")
	res.WriteHeader(http.StatusOK)
	return r.Write(res)
}

func filter(c echo.Context) master.Filter {
	anio, _ := strconv.Atoi(c.QueryParam("anio"))
	mes, _ := strconv.Atoi(c.QueryParam("mes"))
	return master.Filter{Plantilla: strings.TrimSpace(c.QueryParam("plantilla")), Anio: anio, Mes: mes}
}

func (h *handlers) masterDisabled(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]any{
		"error":   "master data disabled",
		"message": "enable master in config to use the SQL-backed statistics",
	})
}

func (h *handlers) masterSummary(c echo.Context) error {
	if h.master == nil {
		return h.masterDisabled(c)
	}
	out, err := h.master.Summary(c.Request().Context(), filter(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) masterAggregates(c echo.Context) error {
	if h.master == nil {
		return h.masterDisabled(c)
	}
	out, err := h.master.Aggregates(c.Request().Context(), filter(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) masterSheets(c echo.Context) error {
	if h.master == nil {
		return h.masterDisabled(c)
	}
	out, err := h.master.Entries(c.Request().Context(), filter(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) masterStatus(c echo.Context) error {
	if h.master == nil {
		return h.masterDisabled(c)
	}
	return c.JSON(http.StatusOK, h.master.Status())
}

func (h *handlers) masterSyncLog(c echo.Context) error {
	if h.master == nil {
		return h.masterDisabled(c)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.master.RecentSyncs(c.Request().Context(), limit)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) masterSync(c echo.Context) error {
	if h.master == nil {
		return h.masterDisabled(c)
	}
	res, err := h.master.Sync(c.Request().Context())
	switch {
	case errors.Is(err, master.ErrSyncInProgress):
		return c.JSON(http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, master.ErrMockMode):
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
	case err != nil:
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"error":   err.Error(),
		"message": "invalid request",
	})
}

func internalError(c echo.Context, err error) error {
	slog.Error("web.request.error", "path", c.Request().URL.Path, "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error":   err.Error(),
		"message": "request failed",
	})
}
