package models

import (
	"fmt"
	"strings"
)

// AnalysisRequest is the free-form input of a run (segmento, produto, publico_alvo, ...)
type AnalysisRequest map[string]interface{}

// Clone returns a deep copy of the request
func (r AnalysisRequest) Clone() AnalysisRequest {
	return AnalysisRequest(cloneMap(r))
}

// PartialResult is the opaque output of a producer
type PartialResult map[string]interface{}

// Clone returns a deep copy of the result. Nested maps and slices are copied;
// scalar values are shared.
func (p PartialResult) Clone() PartialResult {
	if p == nil {
		return nil
	}
	return PartialResult(cloneMap(p))
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = CloneValue(v)
	}
	return dst
}

// CloneValue deep-copies the container types produced by JSON/YAML decoding
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case PartialResult:
		return PartialResult(cloneMap(t))
	case AnalysisRequest:
		return AnalysisRequest(cloneMap(t))
	case Section:
		return Section(cloneMap(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneMap(item)
		}
		return out
	default:
		return v
	}
}

// Outcome is the result of one isolated producer invocation: either a value or
// a captured failure. Failures never propagate as errors past the phase that
// produced them.
type Outcome struct {
	Value   PartialResult
	Err     string
	Failure bool
}

// defaultFailureMessage stands in for errors that carry no message
const defaultFailureMessage = "producer failed"

// Succeeded wraps a successful producer result
func Succeeded(value PartialResult) Outcome {
	if value == nil {
		value = PartialResult{}
	}
	return Outcome{Value: value}
}

// Failed captures err as a failure outcome
func Failed(err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if strings.TrimSpace(msg) == "" {
		msg = defaultFailureMessage
	}
	return Outcome{Err: msg, Failure: true}
}

// FromResult converts a producer return into an Outcome. A result carrying
// success=false is treated as a failure reported by value.
func FromResult(value PartialResult, err error) Outcome {
	if err != nil {
		return Failed(err)
	}
	if ok, present := value["success"].(bool); present && !ok {
		msg, _ := value["error"].(string)
		if msg == "" {
			msg = "producer reported failure"
		}
		return Outcome{Err: msg, Failure: true}
	}
	return Succeeded(value)
}

// OK reports whether the outcome holds a value
func (o Outcome) OK() bool { return !o.Failure }

// Error returns the failure as an error, or nil
func (o Outcome) Error() error {
	if o.OK() {
		return nil
	}
	return fmt.Errorf("%s", o.Err)
}

// AsMap renders the outcome for reports: the value itself, or {success:false, error}
func (o Outcome) AsMap() PartialResult {
	if o.OK() {
		return o.Value
	}
	return PartialResult{"success": false, "error": o.Err}
}

// SpecializedResultSet holds one outcome per enabled enrichment
type SpecializedResultSet map[Enrichment]Outcome

// AsMap renders every outcome keyed by enrichment name
func (s SpecializedResultSet) AsMap() map[string]PartialResult {
	out := make(map[string]PartialResult, len(s))
	for k, v := range s {
		out[string(k)] = v.AsMap()
	}
	return out
}
