package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_FiltersDisallowedFields(t *testing.T) {
	allowed := []string{"metric", "period", "value"}
	payload := map[string]any{
		"metric":    "callsMade",
		"period":    "2026-W35",
		"value":     42,
		"__proto__": "x",
		"onerror":   "alert(1)",
	}

	got := Sanitize(payload, allowed)
	assert.Equal(t, map[string]any{
		"metric": "callsMade",
		"period": "2026-W35",
		"value":  42,
	}, got)
}

func TestSanitize_Idempotent(t *testing.T) {
	allowed := []string{"metric", "period", "role", "month", "userId", "value"}
	payloads := []map[string]any{
		{},
		{"metric": "callsMade"},
		{"metric": "callsMade", "junk": true, "value": 1.5},
		{"unrelated": "only"},
	}

	for _, p := range payloads {
		once := Sanitize(p, allowed)
		twice := Sanitize(once, allowed)
		assert.Equal(t, once, twice)
	}
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	payload := map[string]any{"metric": "callsMade", "junk": 1}
	Sanitize(payload, []string{"metric"})
	assert.Contains(t, payload, "junk")
}

func TestMinimalSubset(t *testing.T) {
	payload := map[string]any{"metric": "callsMade", "period": "2026-W35", "value": 10, "role": "AE"}

	got := MinimalSubset(payload, []string{"metric", "period", "value"})
	assert.Equal(t, map[string]any{"metric": "callsMade", "period": "2026-W35", "value": 10}, got)

	assert.Nil(t, MinimalSubset(payload, nil))
	assert.Nil(t, MinimalSubset(map[string]any{"x": 1}, []string{"metric"}))
}
