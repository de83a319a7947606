// Package analytics derives dashboard aggregates from scan records and
// implements the record browsing transforms (filter, sort, export).
//
// Everything here is a pure function of its arguments. Timezone-dependent
// operations take the *time.Location explicitly.
package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

// ErrNoData is returned when aggregates are requested for an empty
// collection. It is a display state, not a failure.
var ErrNoData = errors.New("no scan data available to generate analytics")

// DateLayout is the calendar-date format used for volume buckets.
const DateLayout = "2006-01-02"

// OverallStats holds the headline counts for a record collection.
type OverallStats struct {
	TotalScans              int     `json:"total_scans"`
	AdulteratedScans        int     `json:"adulterated_scans"`
	OverallAdulterationRate float64 `json:"overall_adulteration_rate"`
}

// HerbRate is the adulteration rate of one herb, in percent.
type HerbRate struct {
	Name  string  `json:"name"`
	Rate  float64 `json:"adulteration_rate"`
	Total int     `json:"total"`
}

// DateCount is the number of scans on one calendar date.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Purity splits scans into the two purity buckets.
type Purity struct {
	Pure        int `json:"pure"`
	Adulterated int `json:"adulterated"`
}

// PurityBucket is one named slice of the purity distribution.
type PurityBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Buckets returns both buckets in display order, zero counts included.
func (p Purity) Buckets() []PurityBucket {
	return []PurityBucket{
		{Name: "Pure", Value: p.Pure},
		{Name: "Adulterated", Value: p.Adulterated},
	}
}

// Analytics is the full set of aggregates for one record collection.
type Analytics struct {
	OverallStats
	ByHerb       []HerbRate  `json:"adulteration_rate_by_herb"`
	VolumeByDate []DateCount `json:"scan_volume"`
	Purity       Purity      `json:"purity_distribution"`
}

// Compute builds every aggregate for records. ok is false for an empty
// collection, in which case none of the aggregates are meaningful.
func Compute(records []herbscan.ScanRecord, loc *time.Location) (Analytics, bool) {
	overall, err := ComputeOverallStats(records)
	if err != nil {
		return Analytics{}, false
	}
	return Analytics{
		OverallStats: overall,
		ByHerb:       ComputeByHerb(records),
		VolumeByDate: ComputeVolumeByDate(records, loc),
		Purity:       ComputePurityDistribution(records),
	}, true
}

// ComputeOverallStats counts scans and the share flagged as adulterated.
func ComputeOverallStats(records []herbscan.ScanRecord) (OverallStats, error) {
	if len(records) == 0 {
		return OverallStats{}, ErrNoData
	}
	adulterated := countAdulterated(records)
	return OverallStats{
		TotalScans:              len(records),
		AdulteratedScans:        adulterated,
		OverallAdulterationRate: 100 * float64(adulterated) / float64(len(records)),
	}, nil
}

type herbTally struct {
	name        string
	total       int
	adulterated int
}

// ComputeByHerb groups records by exact herb name and returns each group's
// adulteration rate, highest first. Equal rates keep the order in which the
// herbs first appear in records.
func ComputeByHerb(records []herbscan.ScanRecord) []HerbRate {
	index := make(map[string]int)
	tallies := make([]herbTally, 0)
	for _, r := range records {
		i, ok := index[r.HerbName]
		if !ok {
			i = len(tallies)
			index[r.HerbName] = i
			tallies = append(tallies, herbTally{name: r.HerbName})
		}
		tallies[i].total++
		if r.AdulterationAlert {
			tallies[i].adulterated++
		}
	}

	out := make([]HerbRate, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, HerbRate{
			Name:  t.name,
			Rate:  100 * float64(t.adulterated) / float64(t.total),
			Total: t.total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	return out
}

// ComputeVolumeByDate counts scans per calendar date in loc, earliest first.
func ComputeVolumeByDate(records []herbscan.ScanRecord, loc *time.Location) []DateCount {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for _, r := range records {
		counts[calendarDate(r.Timestamp, loc)]++
	}

	type dated struct {
		DateCount
		day time.Time
	}
	rows := make([]dated, 0, len(counts))
	for date, n := range counts {
		day, err := time.ParseInLocation(DateLayout, date, loc)
		if err != nil {
			// calendarDate always emits DateLayout
			continue
		}
		rows = append(rows, dated{DateCount: DateCount{Date: date, Count: n}, day: day})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].day.Before(rows[j].day) })

	out := make([]DateCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.DateCount)
	}
	return out
}

// ComputePurityDistribution splits records into pure and adulterated counts.
func ComputePurityDistribution(records []herbscan.ScanRecord) Purity {
	adulterated := countAdulterated(records)
	return Purity{Pure: len(records) - adulterated, Adulterated: adulterated}
}

func countAdulterated(records []herbscan.ScanRecord) int {
	n := 0
	for _, r := range records {
		if r.AdulterationAlert {
			n++
		}
	}
	return n
}

func calendarDate(ts int64, loc *time.Location) string {
	return time.Unix(ts, 0).In(loc).Format(DateLayout)
}
