package excel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// stringify renders a cell or parameter value as text. Missing values render
// empty, dates without clock time as YYYY-MM-DD and other dates as RFC 3339.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case time.Time:
		return formatTime(val)
	case fmt.Stringer:
		return val.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format("2006-01-02")
	}
	return u.Format("2006-01-02T15:04:05.000Z07:00")
}

// toNumber converts a value for numeric comparison. Missing and unparsable
// values become NaN, blank strings 0, booleans 1 and 0, dates their Unix
// time in milliseconds.
func toNumber(v interface{}) float64 {
	switch val := v.(type) {
	case nil:
		return math.NaN()
	case bool:
		if val {
			return 1
		}
		return 0
	case time.Time:
		return float64(val.UnixMilli())
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		return parseNumber(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN()
	}
	return f
}

// parseNumber reads decimal, Infinity and 0x/0o/0b integer notation.
// Other spellings such as "inf", "nan" or hex floats are NaN.
func parseNumber(s string) float64 {
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if strings.TrimLeft(s, "0123456789+-.eE") != "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// truthy follows the usual scripting notion: nil, false, 0, NaN and "" are
// false, everything else is true.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case time.Time:
		return true
	case float64:
		return val != 0 && !math.IsNaN(val)
	case float32:
		return val != 0 && !math.IsNaN(float64(val))
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0
	}
	return true
}
