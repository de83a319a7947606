package herbscan

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// DecodeSensorReadings parses an encoded sensor blob into channel readings.
// An empty blob decodes to an empty map. On failure the returned map is empty
// (never nil) and the error is a *DecodeFailure.
func DecodeSensorReadings(blob string) (map[string]float64, error) {
	readings := make(map[string]float64)
	if strings.TrimSpace(blob) == "" {
		return readings, nil
	}

	var raw map[string]*float64
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return make(map[string]float64), &DecodeFailure{Blob: blob, Err: err}
	}
	if raw == nil {
		return readings, &DecodeFailure{Blob: blob, Err: errors.New("sensor data is null")}
	}
	for channel, v := range raw {
		// null channels have no reading to show
		if v == nil {
			continue
		}
		readings[channel] = *v
	}
	return readings, nil
}

// SensorChannel is one named reading, used where a stable order matters.
type SensorChannel struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SortedChannels returns the readings ordered by channel name.
func SortedChannels(readings map[string]float64) []SensorChannel {
	out := make([]SensorChannel, 0, len(readings))
	for name, v := range readings {
		out = append(out, SensorChannel{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
