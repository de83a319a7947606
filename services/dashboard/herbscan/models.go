package herbscan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ScanRecord is one authenticity scan as returned by the history endpoint.
type ScanRecord struct {
	ID                string             `json:"scan_id"`
	Timestamp         int64              `json:"timestamp"`
	HerbName          string             `json:"herb_name"`
	Confidence        float64            `json:"confidence"`
	AdulterationAlert bool               `json:"adulteration_alert"`
	SensorBlob        string             `json:"sensor_data"`
	SensorReadings    map[string]float64 `json:"sensor_readings"`
}

// Validate reports the first broken record invariant, if any.
func (r ScanRecord) Validate() error {
	switch {
	case r.HerbName == "":
		return errors.New("herb_name is empty")
	case r.Timestamp < 0:
		return fmt.Errorf("timestamp %d is negative", r.Timestamp)
	case r.Confidence < 0 || r.Confidence > 1:
		return fmt.Errorf("confidence %g outside [0,1]", r.Confidence)
	}
	return nil
}

// wireScan mirrors the upstream JSON. The service spells the alert field
// "adultaration_alert"; the latest-scan feed has been seen with the correct
// spelling, so both are read.
type wireScan struct {
	ScanID           string          `json:"scan_id"`
	Timestamp        float64         `json:"timestamp"`
	HerbName         string          `json:"herb_name"`
	Confidence       float64         `json:"confidence"`
	AdultarationFlag *bool           `json:"adultaration_alert"`
	AdulterationFlag *bool           `json:"adulteration_alert"`
	SensorData       json.RawMessage `json:"sensor_data"`
}

func (w wireScan) alert() bool {
	if w.AdultarationFlag != nil {
		return *w.AdultarationFlag
	}
	if w.AdulterationFlag != nil {
		return *w.AdulterationFlag
	}
	return false
}

// sensorBlob returns the encoded sensor mapping as text. A JSON string is
// unwrapped; an inline object is kept as its raw JSON.
func (w wireScan) sensorBlob() string {
	raw := w.SensorData
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// ReferenceHerb holds the baseline sensor averages for one herb.
type ReferenceHerb struct {
	HerbName         string  `json:"herb_name"`
	AvgPH            float64 `json:"avg_pH"`
	AvgTDS           float64 `json:"avg_tds"`
	AvgORP           float64 `json:"avg_orp"`
	QualityThreshold float64 `json:"quality_threshold"`
}

// Stats is the server-computed KPI summary. It is displayed as-is and never
// reconciled with locally computed rates.
type Stats struct {
	TotalTests       int     `json:"totalTests"`
	RecentTests      int     `json:"recentTests"`
	AdulterationRate float64 `json:"adulterationRate"`
}

type historyResponse struct {
	Items []wireScan `json:"items"`
}

type standardsResponse struct {
	Items []ReferenceHerb `json:"items"`
}
