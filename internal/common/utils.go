package common

import (
	"errors"
	"math"
	"time"
)

// isoLayouts are tried in order by ParseISOTime.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var errNotISO = errors.New("not an ISO-8601 date")

// ParseISOTime parses the ISO-8601 forms accepted in observations.
// Values without an offset are read as UTC.
func ParseISOTime(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errNotISO
}

// FormatISOTime renders t the way the provider expects query instants:
// UTC with millisecond precision, e.g. 2024-03-18T01:36:00.000Z.
func FormatISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// StartOfHour floors t to the clock hour.
func StartOfHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

// ToFloat converts a decoded JSON/YAML number into float64.
// NaN, infinities and non-numeric values report false.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
