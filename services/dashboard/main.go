// Package main provides the herbscan dashboard binary: the analytics API
// server and a one-shot CSV export.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/config"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/db"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
	httpserver "github.com/02loveslollipop/herbscan-dashboard/services/dashboard/http"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/logging"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/metrics"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/view"
)

const (
	Version = "0.1.0"
	appName = "herbscan-dashboard"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Analytics dashboard for herb authenticity scans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), exportCmd(), snapshotCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := logging.New(os.Stderr, cfg.LogLevel)
			slog.SetDefault(logger)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	m := metrics.New()
	client := herbscan.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger, m)
	loader := view.NewLoader(client, cfg.Location, cfg.RecentLimit, logger)

	var store httpserver.SnapshotStore
	if cfg.DatabaseURL != "" {
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connection error: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("db schema error: %w", err)
		}
		store = pg
		logger.Info("snapshot archive enabled")
	}

	srv := httpserver.New(cfg, loader, store, m, logger)
	logger.Info("dashboard API listening", "addr", cfg.ListenAddr(), "upstream", cfg.APIBaseURL, "timezone", cfg.Location.String())
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func exportCmd() *cobra.Command {
	var (
		search string
		status string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered scan history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := analytics.ParseStatus(status)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := logging.New(os.Stderr, cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			client := herbscan.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger, nil)
			coll, err := view.NewLoader(client, cfg.Location, cfg.RecentLimit, logger).Collection(ctx)
			if err != nil {
				return err
			}
			records := coll.Browse(analytics.Filter{Search: search, Status: st})

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := analytics.ExportCSV(w, records, coll.Location()); err != nil {
				return err
			}
			logger.Info("export written", "rows", len(records), "out", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive herb name filter")
	cmd.Flags().StringVar(&status, "status", "all", "Result filter (all, passed, adulterated)")
	cmd.Flags().StringVarP(&out, "out", "o", "scan-history.csv", `Output file, or "-" for stdout`)
	return cmd
}

func snapshotCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute analytics over the full history once and archive them",
		Long: `snapshot fetches the full scan history, computes the analytics and
appends one row to the snapshot archive. It is meant for cron-style runs
alongside, or instead of, the archive writes done by the analytics endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.DatabaseURL == "" && !dryRun {
				return fmt.Errorf("DATABASE_URL is required unless --dry-run is set")
			}
			logger := logging.New(os.Stderr, cfg.LogLevel)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout+10*time.Second)
			defer cancel()

			client := herbscan.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger, nil)
			coll, err := view.NewLoader(client, cfg.Location, cfg.RecentLimit, logger).Collection(ctx)
			if err != nil {
				return err
			}
			data, ok := coll.Analytics()
			if !ok {
				logger.Info("no scans to snapshot")
				return nil
			}

			snap := db.NewSnapshot(data, time.Now())
			if dryRun {
				logger.Info("dry-run: skipping snapshot insert",
					"snapshot_id", snap.ID, "total_scans", snap.TotalScans, "overall_rate", snap.OverallRate)
				return nil
			}

			store, err := db.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connection error: %w", err)
			}
			defer store.Close()
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("db schema error: %w", err)
			}
			if err := store.SaveSnapshot(ctx, snap); err != nil {
				return err
			}
			logger.Info("snapshot archived", "snapshot_id", snap.ID, "total_scans", snap.TotalScans)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and log the snapshot without writing it")
	return cmd
}
