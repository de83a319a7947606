package view

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

// Source is the read side of the scanning API.
type Source interface {
	FetchHistory(ctx context.Context, limit int) ([]herbscan.ScanRecord, error)
	FetchLatest(ctx context.Context) (*herbscan.ScanRecord, error)
	FetchStandards(ctx context.Context) ([]herbscan.ReferenceHerb, error)
	FetchStats(ctx context.Context) (herbscan.Stats, error)
}

// Loader fetches what each page needs. Every call fetches fresh data and is
// bound to ctx, so cancelling ctx abandons the page load.
type Loader struct {
	src         Source
	loc         *time.Location
	recentLimit int
	log         *slog.Logger
}

// NewLoader returns a Loader rendering dates in loc and showing recentLimit
// scans on the overview.
func NewLoader(src Source, loc *time.Location, recentLimit int, logger *slog.Logger) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{src: src, loc: loc, recentLimit: recentLimit, log: logger.With("component", "loader")}
}

// Location is the timezone pages are rendered in.
func (l *Loader) Location() *time.Location { return l.loc }

// Overview fetches stats, standards and recent scans concurrently. The first
// failure cancels the other requests and is returned alone; no partial page
// is ever built.
func (l *Loader) Overview(ctx context.Context) (OverviewPage, error) {
	var (
		stats     herbscan.Stats
		standards []herbscan.ReferenceHerb
		recent    []herbscan.ScanRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := l.src.FetchStats(gctx)
		if err != nil {
			return err
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		s, err := l.src.FetchStandards(gctx)
		if err != nil {
			return err
		}
		standards = s
		return nil
	})
	g.Go(func() error {
		r, err := l.src.FetchHistory(gctx, l.recentLimit)
		if err != nil {
			return err
		}
		recent = r
		return nil
	})

	if err := g.Wait(); err != nil {
		l.log.Error("overview load failed", "error", err)
		return OverviewPage{}, err
	}
	return BuildOverview(stats, standards, recent, l.loc), nil
}

// Latest returns the latest-scan card, or nil when there is no history.
func (l *Loader) Latest(ctx context.Context) (*LatestScan, error) {
	rec, err := l.src.FetchLatest(ctx)
	if err != nil {
		l.log.Error("latest scan load failed", "error", err)
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	card := BuildLatest(*rec, l.loc)
	return &card, nil
}

// Collection fetches the full history as a new Collection.
func (l *Loader) Collection(ctx context.Context) (*analytics.Collection, error) {
	records, err := l.src.FetchHistory(ctx, 0)
	if err != nil {
		l.log.Error("history load failed", "error", err)
		return nil, err
	}
	return analytics.NewCollection(records, l.loc), nil
}
