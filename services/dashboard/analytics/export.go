package analytics

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

// ExportHeader is the first row of every export.
var ExportHeader = []string{"Scan ID", "Herb Name", "Date", "Confidence", "Result", "Sensor Data"}

// ExportTimeLayout renders scan times in exported rows.
const ExportTimeLayout = "2006-01-02 15:04:05"

const (
	ResultAdulterated = "Adulterated"
	ResultPassed      = "Quality Passed"
)

// ResultLabel names the outcome of a scan.
func ResultLabel(r herbscan.ScanRecord) string {
	if r.AdulterationAlert {
		return ResultAdulterated
	}
	return ResultPassed
}

// Percent formats a 0-100 value with one decimal place, e.g. "33.3%".
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

// ConfidencePercent formats a [0,1] confidence as a percentage.
func ConfidencePercent(confidence float64) string {
	return decimal.NewFromFloat(confidence).Shift(2).StringFixed(1) + "%"
}

// ExportRow returns the exported fields for one record.
func ExportRow(r herbscan.ScanRecord, loc *time.Location) []string {
	return []string{
		r.ID,
		r.HerbName,
		time.Unix(r.Timestamp, 0).In(loc).Format(ExportTimeLayout),
		ConfidencePercent(r.Confidence),
		ResultLabel(r),
		r.SensorBlob,
	}
}

// ExportCSV writes records as comma-separated text: the header row, then
// one row per record. Every data field is quoted; embedded quotes are
// doubled. Rows end with a newline except the last.
func ExportCSV(w io.Writer, records []herbscan.ScanRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(ExportHeader, ",")); err != nil {
		return err
	}
	for _, r := range records {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		for i, field := range ExportRow(r, loc) {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(quoteField(field)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ExportToDelimitedText is ExportCSV into a string.
func ExportToDelimitedText(records []herbscan.ScanRecord, loc *time.Location) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = ExportCSV(&b, records, loc)
	return b.String()
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
