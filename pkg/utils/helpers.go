package utils

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string like "5m", falling back to def.
func ParseDuration(d string, def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return def
	}
	return duration
}

// ParseValue converts a CSV cell to int64, finite float64 or, failing both,
// the trimmed string. NaN and Inf stay strings.
func ParseValue(s string) interface{} {
	// Trim whitespace first
	s = strings.TrimSpace(s)

	// try int
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// FormatValue is the inverse of ParseValue.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// Numeric safely converts supported types to float64.
func Numeric(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float64:
		return val
	case float32:
		return float64(val)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 {
			return rv.Convert(reflect.TypeOf(float64(0))).Float()
		}
		return 0
	}
}
