package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

// Status selects records by their adulteration result.
type Status string

const (
	StatusAll         Status = "all"
	StatusPassed      Status = "passed"
	StatusAdulterated Status = "adulterated"
)

// ParseStatus maps a query value onto a Status. Empty means StatusAll.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPassed:
		return StatusPassed, nil
	case StatusAdulterated:
		return StatusAdulterated, nil
	}
	return "", fmt.Errorf("invalid status %q: want all, passed or adulterated", s)
}

func (s Status) matches(r herbscan.ScanRecord) bool {
	switch s {
	case StatusPassed:
		return !r.AdulterationAlert
	case StatusAdulterated:
		return r.AdulterationAlert
	}
	return true
}

// Filter is the browsing criteria for the history view.
type Filter struct {
	Search string
	Status Status
}

// FilterBySearch keeps records whose herb name contains query, ignoring
// case. An empty query keeps everything.
func FilterBySearch(records []herbscan.ScanRecord, query string) []herbscan.ScanRecord {
	needle := strings.ToLower(query)
	out := make([]herbscan.ScanRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.HerbName), needle) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByStatus keeps records matching status.
func FilterByStatus(records []herbscan.ScanRecord, status Status) []herbscan.ScanRecord {
	out := make([]herbscan.ScanRecord, 0, len(records))
	for _, r := range records {
		if status.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Browse applies both filters and returns the matches newest first. The
// input slice is left untouched.
func Browse(records []herbscan.ScanRecord, f Filter) []herbscan.ScanRecord {
	out := FilterByStatus(FilterBySearch(records, f.Search), f.Status)
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders records by timestamp, most recent first.
func SortNewestFirst(records []herbscan.ScanRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
}
