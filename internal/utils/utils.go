package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceAmount converts a loosely typed amount into a non-negative integer.
// Anything that does not parse, or is negative, becomes 0.
func CoerceAmount(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return clampAmount(float64(n))
	case int64:
		if n < 0 {
			return 0
		}
		return n
	case float64:
		return clampAmount(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return CoerceAmount(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return clampAmount(f)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return CoerceAmount(i)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return clampAmount(f)
	default:
		return 0
	}
}

func clampAmount(f float64) int64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// RawString renders a loosely typed field (string or number) as the provider sent it.
func RawString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}

// FirstNonEmpty returns the first non-blank value
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
