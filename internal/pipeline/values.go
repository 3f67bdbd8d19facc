package pipeline

import (
	"strings"

	"github.com/ternarybob/marketlens/internal/models"
)

// Accessors over producer output. Producers return loosely typed mappings, so
// every lookup tolerates absent keys and unexpected types by returning an
// empty value of the requested shape.

func listValue(src map[string]interface{}, key string) []interface{} {
	switch v := src[key].(type) {
	case []interface{}:
		return models.CloneValue(v).([]interface{})
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, m := range v {
			out[i] = models.CloneValue(m)
		}
		return out
	default:
		return []interface{}{}
	}
}

func mapValue(src map[string]interface{}, key string) map[string]interface{} {
	switch v := src[key].(type) {
	case map[string]interface{}:
		return models.CloneValue(v).(map[string]interface{})
	case models.PartialResult:
		return map[string]interface{}(v.Clone())
	case models.Section:
		return models.CloneValue(map[string]interface{}(v)).(map[string]interface{})
	default:
		return map[string]interface{}{}
	}
}

// anyValue copies src[key] as-is, or returns the empty string when absent
func anyValue(src map[string]interface{}, key string) interface{} {
	v, ok := src[key]
	if !ok || v == nil {
		return ""
	}
	return models.CloneValue(v)
}

func stringValue(src map[string]interface{}, key string) string {
	s, _ := src[key].(string)
	return strings.TrimSpace(s)
}

// isEmpty reports whether v carries no usable content
func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []interface{}:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	case bool:
		return !t
	default:
		return false
	}
}
