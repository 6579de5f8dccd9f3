package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Compare applies op to a field value and the rule's literal. Unknown
// operators and unparsable numeric comparisons are false.
func Compare(op Operator, value any, literal string) bool {
	switch op {
	case OpEquals:
		return coerceString(value) == literal
	case OpNotEquals:
		return coerceString(value) != literal
	case OpGreaterThan, OpLessThan:
		left, ok := coerceNumber(value)
		if !ok {
			return false
		}
		right, ok := coerceNumber(literal)
		if !ok {
			return false
		}
		if op == OpGreaterThan {
			return left > right
		}
		return left < right
	case OpContains:
		return strings.Contains(coerceString(value), literal)
	default:
		return false
	}
}

func coerceNumber(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), !math.IsNaN(float64(v))
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	default:
		return parseNumber(coerceString(v))
	}
}

func parseNumber(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// coerceString renders a value the way it is shown in an input: numbers
// without trailing zeros, lists comma joined.
func coerceString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = coerceString(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(value)
	}
}
