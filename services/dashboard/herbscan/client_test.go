package herbscan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	outcomes       []string
	decodeFailures int
}

func (o *recordingObserver) ObserveRequest(endpoint, outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, endpoint+":"+outcome)
}

func (o *recordingObserver) SensorDecodeFailed() { o.decodeFailures++ }

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchHistoryDecodesWireShape(t *testing.T) {
	var gotQuery string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"scan_id":"s1","timestamp":1723717800,"herb_name":"Tulsi","confidence":0.95,"adultaration_alert":false,"sensor_data":"{\"pH\":6.8,\"TDS\":412}"},
			{"scan_id":"s2","timestamp":1723717900,"herb_name":"Neem","confidence":0.4,"adultaration_alert":true,"sensor_data":"not json"}
		]}`))
	})

	obs := &recordingObserver{}
	client := NewClient(srv.URL+"/", time.Second, nil, obs)

	records, err := client.FetchHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, gotQuery)

	assert.Equal(t, "s1", records[0].ID)
	assert.Equal(t, int64(1723717800), records[0].Timestamp)
	assert.False(t, records[0].AdulterationAlert)
	assert.Equal(t, map[string]float64{"pH": 6.8, "TDS": 412}, records[0].SensorReadings)

	assert.True(t, records[1].AdulterationAlert)
	assert.Equal(t, "not json", records[1].SensorBlob)
	assert.NotNil(t, records[1].SensorReadings)
	assert.Empty(t, records[1].SensorReadings)

	assert.Equal(t, 1, obs.decodeFailures)
	assert.Equal(t, []string{"/history:ok"}, obs.outcomes)
}

func TestFetchHistoryWithLimit(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	records, err := NewClient(srv.URL, time.Second, nil, nil).FetchHistory(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchLatestAcceptsCorrectSpellingAndInlineObject(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[{"scan_id":"s9","timestamp":10,"herb_name":"Brahmi","confidence":0.9,"adulteration_alert":true,"sensor_data":{"orp":210.5,"temp":null}}]}`))
	})

	latest, err := NewClient(srv.URL, time.Second, nil, nil).FetchLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.AdulterationAlert)
	assert.Equal(t, map[string]float64{"orp": 210.5}, latest.SensorReadings)
}

func TestFetchLatestEmptyHistory(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	latest, err := NewClient(srv.URL, time.Second, nil, nil).FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestFetchStandardsAndStats(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/standards":
			_, _ = w.Write([]byte(`{"items":[{"herb_name":"Tulsi","avg_pH":6.8,"avg_tds":350,"avg_orp":220,"quality_threshold":0.8}]}`))
		case "/stats":
			_, _ = w.Write([]byte(`{"totalTests":120,"recentTests":7,"adulterationRate":12.5}`))
		default:
			http.NotFound(w, r)
		}
	})
	client := NewClient(srv.URL, time.Second, nil, nil)

	standards, err := client.FetchStandards(context.Background())
	require.NoError(t, err)
	require.Len(t, standards, 1)
	assert.Equal(t, ReferenceHerb{HerbName: "Tulsi", AvgPH: 6.8, AvgTDS: 350, AvgORP: 220, QualityThreshold: 0.8}, standards[0])

	stats, err := client.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalTests: 120, RecentTests: 7, AdulterationRate: 12.5}, stats)
}

func TestNonSuccessStatusIsRequestFailure(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	obs := &recordingObserver{}

	_, err := NewClient(srv.URL, time.Second, nil, obs).FetchStats(context.Background())
	require.Error(t, err)

	var rf *RequestFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, "/stats", rf.Endpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rf.Status)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, []string{"/stats:503"}, obs.outcomes)
}

func TestTransportErrorIsRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, nil, nil).FetchHistory(context.Background(), 0)

	var rf *RequestFailure
	require.True(t, errors.As(err, &rf))
	assert.Zero(t, rf.Status)
	assert.Error(t, rf.Err)
}

func TestCancelledContextAbortsRequest(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, 5*time.Second, nil, nil).FetchStandards(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
