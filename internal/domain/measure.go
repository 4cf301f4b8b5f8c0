package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Measure is a recorded or targeted number of a set (kg, reps, seconds, meters).
// Set rows are typed in free text on the device, so stored logs may carry
// numbers as well as numeric strings; both decode into a Measure.
// Anything that does not parse as a number decodes to zero (not recorded).
type Measure float64

func (m *Measure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*m = 0
			return nil
		}
		*m = Measure(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*m = 0
		return nil
	}
	*m = Measure(v)
	return nil
}

func (m Measure) Float() float64 {
	return float64(m)
}

// SetValues holds the numbers one set row can expose. Which of them are
// meaningful depends on the exercise properties.
type SetValues struct {
	Weight   Measure `json:"weight,omitempty"`
	Reps     Measure `json:"reps,omitempty"`
	Duration Measure `json:"duration,omitempty"` // seconds
	Distance Measure `json:"distance,omitempty"`
}
