package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

func scan(id, herb string, alert bool, conf float64, ts int64) herbscan.ScanRecord {
	return herbscan.ScanRecord{
		ID:                id,
		HerbName:          herb,
		AdulterationAlert: alert,
		Confidence:        conf,
		Timestamp:         ts,
		SensorReadings:    map[string]float64{},
	}
}

// 2024-08-15T10:30:00Z
const aug15 int64 = 1723717800

func TestTulsiNeemScenario(t *testing.T) {
	records := []herbscan.ScanRecord{
		scan("a", "Tulsi", false, 0.95, aug15),
		scan("b", "Tulsi", true, 0.40, aug15+60),
		scan("c", "Neem", false, 0.99, aug15+120),
	}

	got, ok := Compute(records, time.UTC)
	require.True(t, ok)

	assert.Equal(t, []HerbRate{
		{Name: "Tulsi", Rate: 50, Total: 2},
		{Name: "Neem", Rate: 0, Total: 1},
	}, got.ByHerb)
	assert.Equal(t, 3, got.TotalScans)
	assert.InDelta(t, 33.3333, got.OverallAdulterationRate, 0.001)
	assert.Equal(t, Purity{Pure: 2, Adulterated: 1}, got.Purity)
	assert.Equal(t, []DateCount{{Date: "2024-08-15", Count: 3}}, got.VolumeByDate)
}

func TestComputeEmptyIsNoData(t *testing.T) {
	got, ok := Compute(nil, time.UTC)
	assert.False(t, ok)
	assert.Equal(t, Analytics{}, got)

	_, err := ComputeOverallStats([]herbscan.ScanRecord{})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestComputeByHerbStableTies(t *testing.T) {
	// A and B both end at 50%, C at 10%; B's first record precedes A's
	// second but A was seen first.
	var records []herbscan.ScanRecord
	records = append(records,
		scan("1", "A", true, 0.5, 1),
		scan("2", "B", true, 0.5, 2),
		scan("3", "A", false, 0.5, 3),
		scan("4", "B", false, 0.5, 4),
	)
	records = append(records, scan("5", "C", true, 0.5, 5))
	for i := 0; i < 9; i++ {
		records = append(records, scan("c", "C", false, 0.5, 6))
	}

	got := ComputeByHerb(records)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, herbNames(got))
	assert.InDelta(t, 10.0, got[2].Rate, 1e-9)

	// reversing first-seen order flips the tie
	flipped := ComputeByHerb([]herbscan.ScanRecord{
		scan("1", "B", true, 0.5, 1),
		scan("2", "A", true, 0.5, 2),
		scan("3", "A", false, 0.5, 3),
		scan("4", "B", false, 0.5, 4),
	})
	assert.Equal(t, []string{"B", "A"}, herbNames(flipped))
}

func TestComputeByHerbIsCaseSensitive(t *testing.T) {
	got := ComputeByHerb([]herbscan.ScanRecord{
		scan("1", "tulsi", true, 0.5, 1),
		scan("2", "Tulsi", false, 0.5, 2),
	})
	assert.Equal(t, []string{"tulsi", "Tulsi"}, herbNames(got))
}

func TestComputeByHerbSortedDescending(t *testing.T) {
	got := ComputeByHerb([]herbscan.ScanRecord{
		scan("1", "Low", false, 0.5, 1),
		scan("2", "High", true, 0.5, 2),
		scan("3", "Mid", true, 0.5, 3),
		scan("4", "Mid", false, 0.5, 4),
	})
	assert.Equal(t, []string{"High", "Mid", "Low"}, herbNames(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Rate, got[i].Rate)
	}
}

func TestComputeVolumeByDateOrderingAndTotals(t *testing.T) {
	day := int64(24 * 60 * 60)
	records := []herbscan.ScanRecord{
		scan("1", "A", false, 0.5, aug15+2*day),
		scan("2", "A", false, 0.5, aug15),
		scan("3", "A", false, 0.5, aug15+40*day),
		scan("4", "A", false, 0.5, aug15+day),
		scan("5", "A", false, 0.5, aug15),
	}

	got := ComputeVolumeByDate(records, time.UTC)
	assert.Equal(t, []DateCount{
		{Date: "2024-08-15", Count: 2},
		{Date: "2024-08-16", Count: 1},
		{Date: "2024-08-17", Count: 1},
		{Date: "2024-09-24", Count: 1},
	}, got)

	total := 0
	for i, dc := range got {
		total += dc.Count
		if i > 0 {
			assert.Less(t, got[i-1].Date, dc.Date)
		}
	}
	assert.Equal(t, len(records), total)
}

func TestComputeVolumeByDateUsesInjectedLocation(t *testing.T) {
	// 2024-08-15T20:00:00Z is already the 16th in Kolkata (+05:30).
	ts := int64(1723752000)
	kolkata := time.FixedZone("IST", 5*60*60+30*60)

	assert.Equal(t, []DateCount{{Date: "2024-08-15", Count: 1}}, ComputeVolumeByDate([]herbscan.ScanRecord{scan("1", "A", false, 0.5, ts)}, time.UTC))
	assert.Equal(t, []DateCount{{Date: "2024-08-16", Count: 1}}, ComputeVolumeByDate([]herbscan.ScanRecord{scan("1", "A", false, 0.5, ts)}, kolkata))
}

func TestPurityDistributionKeepsZeroBuckets(t *testing.T) {
	p := ComputePurityDistribution([]herbscan.ScanRecord{scan("1", "A", false, 0.9, 1)})
	assert.Equal(t, []PurityBucket{{Name: "Pure", Value: 1}, {Name: "Adulterated", Value: 0}}, p.Buckets())
}

func TestAggregateInvariants(t *testing.T) {
	herbs := []string{"Tulsi", "Neem", "Brahmi", "tulsi"}
	for n := 1; n <= 40; n++ {
		records := make([]herbscan.ScanRecord, 0, n)
		for i := 0; i < n; i++ {
			records = append(records, scan("x", herbs[(i*7)%len(herbs)], (i*5)%3 == 0, 0.5, aug15+int64(i*37_000)))
		}

		got, ok := Compute(records, time.UTC)
		require.True(t, ok)

		assert.Equal(t, got.TotalScans, got.Purity.Pure+got.Purity.Adulterated)
		assert.GreaterOrEqual(t, got.OverallAdulterationRate, 0.0)
		assert.LessOrEqual(t, got.OverallAdulterationRate, 100.0)
		assert.InDelta(t, 100*float64(got.Purity.Adulterated)/float64(n), got.OverallAdulterationRate, 1e-9)

		volume := 0
		for i, dc := range got.VolumeByDate {
			volume += dc.Count
			if i > 0 {
				assert.Less(t, got.VolumeByDate[i-1].Date, dc.Date)
			}
		}
		assert.Equal(t, n, volume)

		herbTotal := 0
		for _, hr := range got.ByHerb {
			herbTotal += hr.Total
		}
		assert.Equal(t, n, herbTotal)
	}
}

func TestMalformedSensorBlobStillAggregated(t *testing.T) {
	bad := scan("bad", "Tulsi", true, 0.3, aug15)
	bad.SensorBlob = "{oops"

	got, ok := Compute([]herbscan.ScanRecord{bad, scan("ok", "Neem", false, 0.9, aug15)}, time.UTC)
	require.True(t, ok)
	assert.Equal(t, []string{"Tulsi", "Neem"}, herbNames(got.ByHerb))
	assert.Equal(t, []DateCount{{Date: "2024-08-15", Count: 2}}, got.VolumeByDate)
}

func herbNames(rates []HerbRate) []string {
	out := make([]string, 0, len(rates))
	for _, r := range rates {
		out = append(out, r.Name)
	}
	return out
}
