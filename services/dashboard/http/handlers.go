package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/db"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/view"
)

const (
	exportFilename     = "scan-history.csv"
	noHistoryMessage   = "No scan history found."
	snapshotSaveBudget = 5 * time.Second
)

// loadTimeout bounds one page load. It is a little above the client timeout
// so a slow upstream surfaces as a RequestFailure rather than a bare deadline.
func (s *Server) loadTimeout() time.Duration {
	if s.cfg.RequestTimeout <= 0 {
		return 20 * time.Second
	}
	return s.cfg.RequestTimeout + 5*time.Second
}

// writeLoadError reports a failed page load. Upstream failures are shown
// verbatim and marked retryable; nothing is retried here.
func (s *Server) writeLoadError(c *gin.Context, err error) {
	var rf *herbscan.RequestFailure
	switch {
	case errors.As(err, &rf):
		c.JSON(http.StatusBadGateway, gin.H{"error": rf.Error(), "retry": true})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "retry": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func writeEmpty(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "empty", "message": message})
}

// handleOverview returns KPI cards, reference standards and recent scans.
// GET /api/v1/overview
func (s *Server) handleOverview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.loadTimeout())
	defer cancel()

	page, err := s.loader.Overview(ctx)
	if err != nil {
		s.writeLoadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": page})
}

// handleLatest returns the most recent scan card.
// GET /api/v1/latest
func (s *Server) handleLatest(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.loadTimeout())
	defer cancel()

	card, err := s.loader.Latest(ctx)
	if err != nil {
		s.writeLoadError(c, err)
		return
	}
	if card == nil {
		writeEmpty(c, noHistoryMessage)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": card})
}

// handleAnalytics returns aggregates over the full history and archives a
// snapshot when a store is configured.
// GET /api/v1/analytics
func (s *Server) handleAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.loadTimeout())
	defer cancel()

	coll, err := s.loader.Collection(ctx)
	if err != nil {
		s.writeLoadError(c, err)
		return
	}
	page, err := view.BuildAnalytics(coll)
	if errors.Is(err, analytics.ErrNoData) {
		writeEmpty(c, "No scan data available for analytics.")
		return
	}
	if err != nil {
		s.writeLoadError(c, err)
		return
	}

	s.archive(ctx, page.Data)
	c.JSON(http.StatusOK, gin.H{"data": page})
}

func (s *Server) archive(ctx context.Context, data analytics.Analytics) {
	if s.store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotSaveBudget)
	defer cancel()

	snap := db.NewSnapshot(data, s.now())
	err := s.store.SaveSnapshot(saveCtx, snap)
	s.metrics.SnapshotSaved(err)
	if err != nil {
		s.log.Warn("snapshot archive failed", "snapshot_id", snap.ID, "error", err)
	}
}

func stateFromQuery(c *gin.Context) (view.ViewState, error) {
	status, err := analytics.ParseStatus(c.Query("status"))
	if err != nil {
		return view.ViewState{}, err
	}
	return view.NewViewState().
		WithSearch(c.Query("q")).
		WithStatus(status).
		ToggleRow(c.Query("expanded")), nil
}

// handleHistory returns the filtered, newest-first scan list.
// GET /api/v1/history?q=&status=&expanded=
func (s *Server) handleHistory(c *gin.Context) {
	state, err := stateFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.loadTimeout())
	defer cancel()

	coll, err := s.loader.Collection(ctx)
	if err != nil {
		s.writeLoadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view.BuildHistory(coll, state)})
}

// handleExport downloads the filtered view as CSV.
// GET /api/v1/history/export?q=&status=
func (s *Server) handleExport(c *gin.Context) {
	state, err := stateFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.loadTimeout())
	defer cancel()

	coll, err := s.loader.Collection(ctx)
	if err != nil {
		s.writeLoadError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := analytics.ExportCSV(&buf, coll.Browse(state.Filter()), coll.Location()); err != nil {
		s.writeLoadError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// handleChart renders one analytics chart as PNG.
// GET /api/v1/charts/:name
func (s *Server) handleChart(c *gin.Context) {
	name := c.Param("name")
	switch name {
	case view.ChartByHerb, view.ChartVolume, view.ChartPurity:
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + strconv.Quote(name)})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.loadTimeout())
	defer cancel()

	coll, err := s.loader.Collection(ctx)
	if err != nil {
		s.writeLoadError(c, err)
		return
	}
	data, ok := coll.Analytics()
	if !ok {
		writeEmpty(c, "No scan data available for analytics.")
		return
	}

	var buf bytes.Buffer
	if err := view.RenderChart(&buf, name, data, coll.Location()); err != nil {
		s.log.Error("chart render failed", "chart", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleSnapshots lists archived analytics snapshots, newest first.
// GET /api/v1/snapshots?limit=
func (s *Server) handleSnapshots(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot archive is not configured"})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	snaps, err := s.store.ListSnapshots(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": snaps,
		"meta": gin.H{"count": len(snaps)},
	})
}
