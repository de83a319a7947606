// Package view shapes fetched records and aggregates into the dashboard's
// pages: overview, latest scan, analytics and history.
package view

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/analytics"
	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

// DisplayTimeLayout renders scan times on every page.
const DisplayTimeLayout = analytics.ExportTimeLayout

// KPICard is one headline number.
type KPICard struct {
	Title string  `json:"title"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
}

// ScanRow is a scan as shown in tables.
type ScanRow struct {
	ID          string `json:"scan_id"`
	HerbName    string `json:"herb_name"`
	Timestamp   int64  `json:"timestamp"`
	ScannedAt   string `json:"scanned_at"`
	Confidence  string `json:"confidence"`
	Result      string `json:"result"`
	Adulterated bool   `json:"adulterated"`
}

func newScanRow(r herbscan.ScanRecord, loc *time.Location) ScanRow {
	return ScanRow{
		ID:          r.ID,
		HerbName:    r.HerbName,
		Timestamp:   r.Timestamp,
		ScannedAt:   time.Unix(r.Timestamp, 0).In(loc).Format(DisplayTimeLayout),
		Confidence:  analytics.ConfidencePercent(r.Confidence),
		Result:      analytics.ResultLabel(r),
		Adulterated: r.AdulterationAlert,
	}
}

// StandardRow is one line of the reference herb table.
type StandardRow struct {
	HerbName         string  `json:"herb_name"`
	AvgPH            string  `json:"avg_ph"`
	AvgTDS           float64 `json:"avg_tds"`
	AvgORP           float64 `json:"avg_orp"`
	QualityThreshold float64 `json:"quality_threshold"`
}

// OverviewPage is the landing view. Its KPI cards come straight from the
// server stats and are not cross-checked against local aggregates.
type OverviewPage struct {
	Cards       []KPICard     `json:"cards"`
	Standards   []StandardRow `json:"standards"`
	RecentScans []ScanRow     `json:"recent_scans"`
}

// BuildOverview assembles the overview from independently fetched parts.
func BuildOverview(stats herbscan.Stats, standards []herbscan.ReferenceHerb, recent []herbscan.ScanRecord, loc *time.Location) OverviewPage {
	page := OverviewPage{
		Cards: []KPICard{
			{Title: "Total Tests", Value: strconv.Itoa(stats.TotalTests), Raw: float64(stats.TotalTests)},
			{Title: "Recent Tests (24h)", Value: strconv.Itoa(stats.RecentTests), Raw: float64(stats.RecentTests)},
			{Title: "Adulteration Rate", Value: decimal.NewFromFloat(stats.AdulterationRate).StringFixed(0) + "%", Raw: stats.AdulterationRate},
		},
		Standards:   make([]StandardRow, 0, len(standards)),
		RecentScans: make([]ScanRow, 0, len(recent)),
	}
	for _, h := range standards {
		page.Standards = append(page.Standards, StandardRow{
			HerbName:         h.HerbName,
			AvgPH:            decimal.NewFromFloat(h.AvgPH).StringFixed(1),
			AvgTDS:           h.AvgTDS,
			AvgORP:           h.AvgORP,
			QualityThreshold: h.QualityThreshold,
		})
	}

	sorted := make([]herbscan.ScanRecord, len(recent))
	copy(sorted, recent)
	analytics.SortNewestFirst(sorted)
	for _, r := range sorted {
		page.RecentScans = append(page.RecentScans, newScanRow(r, loc))
	}
	return page
}

// LatestScan is the most recent prediction with its sensor evidence.
type LatestScan struct {
	ScanRow
	Label           string                   `json:"label"`
	ConfidenceValue float64                  `json:"confidence_value"`
	Sensors         []herbscan.SensorChannel `json:"sensors"`
}

// BuildLatest shapes a single record into the latest-scan card.
func BuildLatest(r herbscan.ScanRecord, loc *time.Location) LatestScan {
	label := "Quality Passed"
	if r.AdulterationAlert {
		label = "Adulteration Detected"
	}
	return LatestScan{
		ScanRow:         newScanRow(r, loc),
		Label:           label,
		ConfidenceValue: r.Confidence * 100,
		Sensors:         herbscan.SortedChannels(r.SensorReadings),
	}
}

// AnalyticsPage is the aggregate view over the full history.
type AnalyticsPage struct {
	Cards  []KPICard                `json:"cards"`
	Data   analytics.Analytics      `json:"data"`
	Purity []analytics.PurityBucket `json:"purity"`
}

// BuildAnalytics returns analytics.ErrNoData for an empty collection.
func BuildAnalytics(c *analytics.Collection) (AnalyticsPage, error) {
	data, ok := c.Analytics()
	if !ok {
		return AnalyticsPage{}, analytics.ErrNoData
	}
	return AnalyticsPage{
		Cards: []KPICard{
			{Title: "Total Scans", Value: strconv.Itoa(data.TotalScans), Raw: float64(data.TotalScans)},
			{Title: "Overall Adulteration", Value: analytics.Percent(data.OverallAdulterationRate), Raw: data.OverallAdulterationRate},
		},
		Data:   data,
		Purity: data.Purity.Buckets(),
	}, nil
}

// HistoryRow is a browsable scan; Sensors is only filled for the expanded row.
type HistoryRow struct {
	ScanRow
	Expanded bool                     `json:"expanded"`
	Sensors  []herbscan.SensorChannel `json:"sensors,omitempty"`
}

// HistoryPage is the filtered, newest-first scan list.
type HistoryPage struct {
	State        ViewState    `json:"state"`
	Showing      int          `json:"showing"`
	Total        int          `json:"total"`
	Rows         []HistoryRow `json:"rows"`
	EmptyMessage string       `json:"empty_message,omitempty"`
}

// BuildHistory applies state to the collection.
func BuildHistory(c *analytics.Collection, state ViewState) HistoryPage {
	visible := c.Browse(state.Filter())
	page := HistoryPage{
		State:   state,
		Showing: len(visible),
		Total:   c.Len(),
		Rows:    make([]HistoryRow, 0, len(visible)),
	}
	for _, r := range visible {
		row := HistoryRow{ScanRow: newScanRow(r, c.Location())}
		if r.ID != "" && r.ID == state.ExpandedID {
			row.Expanded = true
			row.Sensors = herbscan.SortedChannels(r.SensorReadings)
		}
		page.Rows = append(page.Rows, row)
	}
	if len(visible) == 0 {
		page.EmptyMessage = "No scan history found"
		if state.Search != "" {
			page.EmptyMessage += fmt.Sprintf(" for %q", state.Search)
		}
	}
	return page
}
