package decode

import (
	"fmt"
	"strings"
	"time"
)

// The backend is not consistent about timestamp encoding: RPC responses and
// table selects have been observed with and without fractional seconds, and
// with both "Z" and "+00:00" offsets. Layouts are tried in order.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000000Z07:00",
	time.RFC3339Nano,
	time.RFC3339,
}

// Time is a time.Time that unmarshals from any of the timestamp formats the
// backend produces. It marshals back as RFC 3339 with microseconds in UTC,
// which the row store accepts for timestamptz columns.
type Time struct {
	time.Time
}

// NewTime wraps t for use in a record field.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime parses s against the supported layouts in order.
func ParseTime(s string) (Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{Time: t}, nil
		}
	}
	return Time{}, fmt.Errorf("%w: %q", ErrDateFormat, s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed.Time
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format("2006-01-02T15:04:05.000000Z07:00") + `"`), nil
}
