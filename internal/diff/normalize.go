package diff

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Normalize renders a value in the comparison form used by Diff.
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if strings.TrimSpace(t) == "" {
			return ""
		}
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case []any:
		if len(t) == 0 {
			return ""
		}
		return encode(t)
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
		return encode(t)
	default:
		return fmt.Sprint(t)
	}
}

// encode uses sorted map keys, so equal collections compare equal.
func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
