package herbscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production scanning API.
const DefaultBaseURL = "https://2emj712evi.execute-api.ap-south-1.amazonaws.com"

// Observer receives request and decode outcomes, typically for metrics.
type Observer interface {
	ObserveRequest(endpoint string, outcome string, elapsed time.Duration)
	SensorDecodeFailed()
}

// Client reads scan history, reference standards and stats from the
// scanning API. All calls are unauthenticated GETs and are never retried.
type Client struct {
	base string
	h    *http.Client
	log  *slog.Logger
	obs  Observer
}

// NewClient builds a client for the API rooted at base.
func NewClient(base string, timeout time.Duration, logger *slog.Logger, obs Observer) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		h:    &http.Client{Timeout: timeout},
		log:  logger.With("component", "herbscan"),
		obs:  obs,
	}
}

// FetchHistory returns scan records. A positive limit asks the service for
// at most that many records; otherwise the whole history is returned. The
// service does not promise any ordering.
func (c *Client) FetchHistory(ctx context.Context, limit int) ([]ScanRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var payload historyResponse
	if err := c.get(ctx, "/history", q, &payload); err != nil {
		return nil, err
	}

	records := make([]ScanRecord, 0, len(payload.Items))
	for _, item := range payload.Items {
		records = append(records, c.toRecord(item))
	}
	return records, nil
}

// FetchLatest asks for a single record. The service is expected to return
// the most recent scan first when limit=1; this cannot be verified here.
// A nil record with a nil error means the history is empty.
func (c *Client) FetchLatest(ctx context.Context) (*ScanRecord, error) {
	records, err := c.FetchHistory(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.Timestamp > latest.Timestamp {
			latest = r
		}
	}
	return &latest, nil
}

// FetchStandards returns the reference herb baselines.
func (c *Client) FetchStandards(ctx context.Context) ([]ReferenceHerb, error) {
	var payload standardsResponse
	if err := c.get(ctx, "/standards", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		return []ReferenceHerb{}, nil
	}
	return payload.Items, nil
}

// FetchStats returns the server-side KPI summary.
func (c *Client) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.get(ctx, "/stats", nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	u := c.base + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	started := time.Now()
	outcome := "error"
	defer func() {
		if c.obs != nil {
			c.obs.ObserveRequest(endpoint, outcome, time.Since(started))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &RequestFailure{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		c.log.Warn("request failed", "endpoint", endpoint, "error", err)
		return &RequestFailure{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = strconv.Itoa(resp.StatusCode)
		c.log.Warn("unexpected status", "endpoint", endpoint, "status", resp.StatusCode)
		return &RequestFailure{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestFailure{Endpoint: endpoint, Err: fmt.Errorf("decode payload: %w", err)}
	}
	outcome = "ok"
	return nil
}

func (c *Client) toRecord(w wireScan) ScanRecord {
	rec := ScanRecord{
		ID:                w.ScanID,
		Timestamp:         int64(w.Timestamp),
		HerbName:          w.HerbName,
		Confidence:        w.Confidence,
		AdulterationAlert: w.alert(),
		SensorBlob:        w.sensorBlob(),
	}

	readings, err := DecodeSensorReadings(rec.SensorBlob)
	if err != nil {
		c.log.Warn("sensor data unreadable, showing no readings", "scan_id", rec.ID, "error", err)
		if c.obs != nil {
			c.obs.SensorDecodeFailed()
		}
	}
	rec.SensorReadings = readings

	if err := rec.Validate(); err != nil {
		c.log.Warn("scan record out of range", "scan_id", rec.ID, "error", err)
	}
	return rec
}
