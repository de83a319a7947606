package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"
)

const defaultListLimit = 20

// Store wraps the analytics snapshot archive.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Snapshot is one archived analytics computation.
type Snapshot struct {
	ID          uuid.UUID           `json:"id"`
	CapturedAt  time.Time           `json:"captured_at"`
	TotalScans  int                 `json:"total_scans"`
	OverallRate float64             `json:"overall_adulteration_rate"`
	Payload     analytics.Analytics `json:"payload"`
}

// NewSnapshot stamps a for archiving.
func NewSnapshot(a analytics.Analytics, capturedAt time.Time) Snapshot {
	return Snapshot{
		ID:          uuid.New(),
		CapturedAt:  capturedAt.UTC(),
		TotalScans:  a.TotalScans,
		OverallRate: a.OverallAdulterationRate,
		Payload:     a,
	}
}

const ensureSchemaSQL = `
    CREATE SCHEMA IF NOT EXISTS herbscan;
    CREATE TABLE IF NOT EXISTS herbscan.analytics_snapshots (
        id           uuid PRIMARY KEY,
        captured_at  timestamptz NOT NULL,
        total_scans  integer NOT NULL,
        overall_rate double precision NOT NULL,
        payload      jsonb NOT NULL
    );
    CREATE INDEX IF NOT EXISTS analytics_snapshots_captured_at_idx
        ON herbscan.analytics_snapshots (captured_at DESC);
`

// EnsureSchema creates the snapshot table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, ensureSchemaSQL)
	return err
}

const insertSnapshotSQL = `
    INSERT INTO herbscan.analytics_snapshots (id, captured_at, total_scans, overall_rate, payload)
    VALUES ($1::uuid, $2, $3, $4, $5)
`

// SaveSnapshot appends one snapshot row.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("encode snapshot payload: %w", err)
	}
	_, err = s.pool.Exec(ctx, insertSnapshotSQL,
		snap.ID.String(),
		snap.CapturedAt,
		snap.TotalScans,
		snap.OverallRate,
		payload,
	)
	return err
}

const listSnapshotsSQL = `
    SELECT id::text, captured_at, total_scans, overall_rate, payload
    FROM herbscan.analytics_snapshots
    ORDER BY captured_at DESC
    LIMIT $1
`

// ListSnapshots returns the newest snapshots first. A non-positive limit
// falls back to 20.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		var (
			snap    Snapshot
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &snap.CapturedAt, &snap.TotalScans, &snap.OverallRate, &payload); err != nil {
			return nil, err
		}
		if snap.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("snapshot id %q: %w", id, err)
		}
		if err := json.Unmarshal(payload, &snap.Payload); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
