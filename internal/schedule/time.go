package schedule

import (
	"fmt"
	"strings"
	"time"
)

// WireLayout is the naive local date-time layout used by the collaborator.
const WireLayout = "2006-01-02T15:04:05"

// Zone is the time zone naive wire timestamps are interpreted in.
var Zone = time.Local

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	WireLayout,
	"2006-01-02T15:04",
}

// ParseTime parses a collaborator timestamp. Zoned timestamps keep their zone,
// naive ones are read in Zone.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range parseLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, Zone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTime renders t in the collaborator's naive layout.
func FormatTime(t time.Time) string {
	return t.In(Zone).Format(WireLayout)
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
