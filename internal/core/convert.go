package core

// convert.go coerces loosely-typed YAML values into frontmatter field types.
//
// Hand-written game files are messy:
//   - Seasons and attendance arrive as ints, floats or quoted strings
//     ("61,204" included)
//   - Dates arrive in several layouts, quoted or not
//   - Free-text fields sometimes decode as numbers (opponent: 1)
//
// Every coerce* function reports ok=false instead of failing so callers can
// decide whether that is an invalid field or just an absent one.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseGameDate parses a date string in any supported layout and returns the
// calendar date at UTC midnight.
func ParseGameDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return calendarDate(t), true
		}
	}
	return time.Time{}, false
}

// calendarDate drops the time of day, keeping the date as written.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func coerceDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return calendarDate(val), true
	case string:
		return ParseGameDate(val)
	default:
		return time.Time{}, false
	}
}

func coerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint64:
		if val > math.MaxInt32 {
			return 0, false
		}
		return int(val), true
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return 0, false
		}
		return int(val), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" {
			return 0, false
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// coerceString accepts strings and other scalars; maps and lists are rejected.
func coerceString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(val), true
	case time.Time:
		return val.Format("2006-01-02"), true
	default:
		return "", false
	}
}

// describeValue renders a raw value for error messages.
func describeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case map[any]any, map[string]any, []any:
		return fmt.Sprintf("%T", val)
	default:
		return fmt.Sprint(val)
	}
}
