package excel

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d*\.\d+$`)
	isoPattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:T(\d{2}:\d{2})(?::(\d{2})(?:\.(\d{1,3}))?)?(Z|[+-]\d{2}:?\d{2})?)?$`)
)

// ConvertValue turns a loosely typed input value into the most specific cell
// value. Rules apply in order, the first match wins:
//
//	nil                         -> nil
//	non-string                  -> unchanged
//	"", blanks, "null"          -> nil
//	"true" / "false"            -> bool (case-insensitive)
//	-?\d+                       -> int64
//	-?\d*\.\d+                  -> float64
//	YYYY-MM-DD[THH:MM[:SS[.sss]][Z|±HH:MM]] -> time.Time, if the date exists
//	anything else               -> the original string, untrimmed
func ConvertValue(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(str)
	lower := strings.ToLower(trimmed)
	switch lower {
	case "", "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if intPattern.MatchString(trimmed) {
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i
		}
		// out of int64 range, keep the magnitude
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
	} else if floatPattern.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	if t, ok := parseISODate(trimmed); ok {
		return t
	}
	return str
}

// parseISODate parses the ISO-8601 subset accepted by ConvertValue. Values
// without zone designator are taken as UTC.
func parseISODate(s string) (time.Time, bool) {
	m := isoPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	date, clock, sec, frac, zone := m[1], m[2], m[3], m[4], m[5]
	if clock == "" {
		t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		return t, err == nil
	}
	if sec == "" {
		sec = "00"
	}
	var b strings.Builder
	b.WriteString(date)
	b.WriteByte('T')
	b.WriteString(clock)
	b.WriteByte(':')
	b.WriteString(sec)
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	switch {
	case zone == "":
		b.WriteByte('Z')
	case zone == "Z":
		b.WriteString(zone)
	case len(zone) == 5:
		// +hhmm
		b.WriteString(zone[:3] + ":" + zone[3:])
	default:
		b.WriteString(zone)
	}
	t, err := time.Parse(time.RFC3339Nano, b.String())
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
