package analytics

import (
	"sync"
	"time"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

// Collection is one fetched set of scan records. It is never modified after
// construction; a new fetch builds a new Collection. Aggregates are computed
// at most once per Collection, so browsing state changes reuse them.
type Collection struct {
	records []herbscan.ScanRecord
	loc     *time.Location

	once      sync.Once
	analytics Analytics
	ok        bool
}

// NewCollection wraps records. The slice is copied.
func NewCollection(records []herbscan.ScanRecord, loc *time.Location) *Collection {
	if loc == nil {
		loc = time.UTC
	}
	cp := make([]herbscan.ScanRecord, len(records))
	copy(cp, records)
	return &Collection{records: cp, loc: loc}
}

// Records returns a copy of the wrapped records.
func (c *Collection) Records() []herbscan.ScanRecord {
	cp := make([]herbscan.ScanRecord, len(c.records))
	copy(cp, c.records)
	return cp
}

// Len reports the number of records.
func (c *Collection) Len() int { return len(c.records) }

// Location is the timezone used for date bucketing and display.
func (c *Collection) Location() *time.Location { return c.loc }

// Analytics returns the memoized aggregates; ok is false when empty.
func (c *Collection) Analytics() (Analytics, bool) {
	c.once.Do(func() {
		c.analytics, c.ok = Compute(c.records, c.loc)
	})
	return c.analytics, c.ok
}

// Browse applies f to the collection's records.
func (c *Collection) Browse(f Filter) []herbscan.ScanRecord {
	return Browse(c.records, f)
}
