package models

import (
	"bytes"
	"fmt"
	"time"
)

// naiveLayout is how the order store writes timestamps: ISO 8601 without a
// zone offset, fractional seconds optional.
const naiveLayout = "2006-01-02T15:04:05.999999"

// Timestamp accepts both RFC 3339 and zone-less ISO 8601 values and writes
// back the same shape it read.
type Timestamp struct {
	time.Time
	naive bool
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp: expected string, got %s", data)
	}
	raw := string(data[1 : len(data)-1])

	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time, t.naive = parsed, false
		return nil
	}
	parsed, err := time.Parse(naiveLayout, raw)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time, t.naive = parsed, true
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	layout := time.RFC3339Nano
	if t.naive {
		layout = naiveLayout
	}
	return []byte(`"` + t.Time.Format(layout) + `"`), nil
}
