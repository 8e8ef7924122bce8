// Package custom_errors holds error types shared across packages.
package custom_errors

import "errors"

// ValidationError accumulates configuration failures so a caller sees every
// invalid option at once instead of fixing them one at a time.
type ValidationError struct {
	Errors []error `json:"errors"`
}

// Add appends err to the accumulated set. A nil err is ignored.
func (c *ValidationError) Add(err error) {
	if err == nil {
		return
	}
	c.Errors = append(c.Errors, err)
}

// HasError reports whether anything was accumulated.
func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

func (c *ValidationError) Error() string {
	joined := errors.Join(c.Errors...)
	if joined == nil {
		return ""
	}
	return joined.Error()
}

// Unwrap exposes the accumulated errors so errors.Is and errors.As see
// through the accumulator.
func (c *ValidationError) Unwrap() []error {
	return c.Errors
}
