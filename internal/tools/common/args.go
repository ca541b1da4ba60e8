package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/planner/internal/schedule"
)

// Args wraps the arguments of a tool call. Every accessor reports a
// validation error naming the offending argument.
type Args struct {
	op  string
	raw map[string]interface{}
}

// NewArgs wraps raw arguments for the tool op. raw may be nil.
func NewArgs(op string, raw map[string]interface{}) Args {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return Args{op: op, raw: raw}
}

// Has reports whether name was passed with a non-null value.
func (a Args) Has(name string) bool {
	v, ok := a.raw[name]
	return ok && v != nil
}

func (a Args) invalid(format string, args ...interface{}) error {
	return schedule.Validation(a.op, fmt.Sprintf(format, args...))
}

// Int64 returns a required integer. JSON numbers and numeric strings are
// accepted.
func (a Args) Int64(name string) (int64, error) {
	v, err := a.OptionalInt64(name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, a.invalid("%s is required", name)
	}
	return *v, nil
}

// OptionalInt64 returns nil when name is absent.
func (a Args) OptionalInt64(name string) (*int64, error) {
	if !a.Has(name) {
		return nil, nil
	}
	n, err := toInt64(a.raw[name])
	if err != nil {
		return nil, a.invalid("%s must be an integer", name)
	}
	return &n, nil
}

// OptionalInt is OptionalInt64 narrowed to int.
func (a Args) OptionalInt(name string) (*int, error) {
	v, err := a.OptionalInt64(name)
	if err != nil || v == nil {
		return nil, err
	}
	n := int(*v)
	return &n, nil
}

// String returns a required, non-blank string.
func (a Args) String(name string) (string, error) {
	v, err := a.OptionalString(name)
	if err != nil {
		return "", err
	}
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", a.invalid("%s is required", name)
	}
	return *v, nil
}

// OptionalString returns nil when name is absent.
func (a Args) OptionalString(name string) (*string, error) {
	if !a.Has(name) {
		return nil, nil
	}
	s, ok := a.raw[name].(string)
	if !ok {
		return nil, a.invalid("%s must be a string", name)
	}
	return &s, nil
}

// StringOr returns the string argument or def when absent.
func (a Args) StringOr(name, def string) (string, error) {
	v, err := a.OptionalString(name)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}

// Bool returns the boolean argument or def when absent. "true" and "false"
// strings are accepted.
func (a Args) Bool(name string, def bool) (bool, error) {
	if !a.Has(name) {
		return def, nil
	}
	switch v := a.raw[name].(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b, nil
		}
	}
	return false, a.invalid("%s must be a boolean", name)
}

// Time returns a required timestamp in RFC 3339 or the collaborator's naive
// layout.
func (a Args) Time(name string) (time.Time, error) {
	v, err := a.OptionalTime(name)
	if err != nil {
		return time.Time{}, err
	}
	if v == nil {
		return time.Time{}, a.invalid("%s is required", name)
	}
	return *v, nil
}

// OptionalTime returns nil when name is absent.
func (a Args) OptionalTime(name string) (*time.Time, error) {
	s, err := a.OptionalString(name)
	if err != nil || s == nil {
		return nil, err
	}
	t, err := schedule.ParseTime(*s)
	if err != nil {
		return nil, a.invalid("%s must be a timestamp such as 2024-05-01T09:00:00", name)
	}
	return &t, nil
}

// Date returns a required calendar day (YYYY-MM-DD) in the schedule zone.
func (a Args) Date(name string) (time.Time, error) {
	s, err := a.String(name)
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.ParseInLocation(time.DateOnly, s, schedule.Zone)
	if err != nil {
		return time.Time{}, a.invalid("%s must be a date such as 2024-05-01", name)
	}
	return d, nil
}

// IDs returns one or more integer ids. name may hold a single id or an
// array of ids.
func (a Args) IDs(name string) ([]int64, error) {
	if !a.Has(name) {
		return nil, a.invalid("%s is required", name)
	}
	switch v := a.raw[name].(type) {
	case []interface{}:
		if len(v) == 0 {
			return nil, a.invalid("%s cannot be empty", name)
		}
		ids := make([]int64, 0, len(v))
		for i, item := range v {
			n, err := toInt64(item)
			if err != nil {
				return nil, a.invalid("%s[%d] must be an integer", name, i)
			}
			ids = append(ids, n)
		}
		return ids, nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return nil, a.invalid("%s must be an integer or an array of integers", name)
		}
		return []int64{n}, nil
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
