package queue

// Sanitize filters a payload down to the allow-listed fields. The result is a
// fresh map; the input is never mutated. Sanitizing an already sanitized
// payload is a no-op.
func Sanitize(payload map[string]any, allowed []string) map[string]any {
	out := make(map[string]any, len(allowed))
	for _, field := range allowed {
		if v, ok := payload[field]; ok {
			out[field] = v
		}
	}
	return out
}

// MinimalSubset projects the payload onto the minimal field set used as the
// defensive-degradation body after a schema-shaped rejection.
func MinimalSubset(payload map[string]any, minimal []string) map[string]any {
	if len(minimal) == 0 {
		return nil
	}
	out := make(map[string]any, len(minimal))
	for _, field := range minimal {
		if v, ok := payload[field]; ok {
			out[field] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
