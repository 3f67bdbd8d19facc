package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartialResult_CloneIsDeep(t *testing.T) {
	original := PartialResult{
		"list":   []interface{}{"a", map[string]interface{}{"k": "v"}},
		"nested": map[string]interface{}{"inner": []string{"x"}},
		"scalar": 42,
	}

	clone := original.Clone()
	clone["list"].([]interface{})[0] = "changed"
	clone["list"].([]interface{})[1].(map[string]interface{})["k"] = "changed"
	clone["nested"].(map[string]interface{})["inner"].([]string)[0] = "changed"
	clone["scalar"] = 0

	assert.Equal(t, PartialResult{
		"list":   []interface{}{"a", map[string]interface{}{"k": "v"}},
		"nested": map[string]interface{}{"inner": []string{"x"}},
		"scalar": 42,
	}, original)
}

func TestFromResult(t *testing.T) {
	assert.True(t, FromResult(PartialResult{"a": 1}, nil).OK())
	assert.True(t, FromResult(PartialResult{"success": true}, nil).OK())
	assert.True(t, FromResult(nil, nil).OK())

	failed := FromResult(nil, errors.New("boom"))
	assert.False(t, failed.OK())
	assert.EqualError(t, failed.Error(), "boom")

	byValue := FromResult(PartialResult{"success": false, "error": "bad input"}, nil)
	assert.False(t, byValue.OK())
	assert.Equal(t, PartialResult{"success": false, "error": "bad input"}, byValue.AsMap())

	noMessage := FromResult(PartialResult{"success": false}, nil)
	assert.Equal(t, "producer reported failure", noMessage.Err)

	emptyErr := FromResult(PartialResult{"partial": true}, errors.New(""))
	assert.False(t, emptyErr.OK())
	assert.Equal(t, "producer failed", emptyErr.Err)
	assert.Equal(t, PartialResult{"success": false, "error": "producer failed"}, emptyErr.AsMap())

	assert.False(t, Failed(nil).OK())
	assert.True(t, Succeeded(nil).OK())
}

func TestSpecializedResultSet_AsMap(t *testing.T) {
	set := SpecializedResultSet{
		EnrichmentPredictions: Succeeded(PartialResult{"p": 1}),
		EnrichmentPrePitch:    Failed(errors.New("timeout")),
	}

	assert.Equal(t, map[string]PartialResult{
		"predictions": {"p": 1},
		"pre_pitch":   {"success": false, "error": "timeout"},
	}, set.AsMap())
}

func TestPipelineState_Percentages(t *testing.T) {
	states := []PipelineState{StateInit, StateValidating, StateResearching, StateCoreAnalysis, StateEnriching, StateConsolidating, StateFinalized}
	var got []int
	for _, s := range states {
		got = append(got, s.Percentage())
	}
	assert.Equal(t, []int{0, 10, 25, 50, 75, 90, 100}, got)
	assert.Equal(t, 100, StateFailed.Percentage())
}

func TestErrorEnvelope(t *testing.T) {
	cause := errors.New("delegate raised")
	env := NewErrorEnvelope(StateCoreAnalysis, cause, 1500*time.Millisecond)

	assert.False(t, env.Success)
	assert.Equal(t, "delegate raised", env.Message)
	assert.Equal(t, 1.5, env.ExecutionTime)
	assert.Empty(t, env.PartialResults)
	assert.ErrorIs(t, env, cause)
	assert.Contains(t, env.Error(), "CORE_ANALYSIS")
}

func TestRequiredSections(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range RequiredSections {
		assert.False(t, seen[s], s)
		seen[s] = true
		assert.True(t, IsRequiredSection(s))
	}
	assert.False(t, IsRequiredSection("expansao"))
}
