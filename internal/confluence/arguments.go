package confluence

import (
	"encoding/json"
	"math"
	"strconv"
)

// Arguments are the decoded tool arguments of one call.
type Arguments map[string]any

// String returns the argument rendered as a string. Numbers render without
// a fractional part when they are whole. ok is false when the argument is
// absent or null.
func (a Arguments) String(name string) (string, bool) {
	v, present := a[name]
	if !present || v == nil {
		return "", false
	}
	return formatValue(v), true
}

// Int returns a whole-number argument. JSON numbers arrive as float64.
func (a Arguments) Int(name string) (int, bool) {
	switch v := a[name].(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 32)
		return int(n), err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 32)
		return int(n), err == nil
	}
	return 0, false
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
