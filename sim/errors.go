package sim

import "fmt"

// ConfigurationError reports a malformed or inconsistent parameter found while
// building a simulation. It is always returned before the first cycle runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError with a formatted reason.
func NewConfigurationError(
	field, format string,
	args ...interface{},
) *ConfigurationError {
	return &ConfigurationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// InvariantViolation reports corrupted simulation state, such as a buffer
// overflow or a negative credit count. Components raise it with panic; the
// simulation driver recovers it, stamps the cycle and returns it as an error.
type InvariantViolation struct {
	Component string
	Cycle     Cycle
	Detail    string
	State     string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation at cycle %d in %s: %s [%s]",
		e.Cycle, e.Component, e.Detail, e.State)
}

// PanicInvariant raises an InvariantViolation.
func PanicInvariant(component, detail, format string, args ...interface{}) {
	panic(&InvariantViolation{
		Component: component,
		Detail:    detail,
		State:     fmt.Sprintf(format, args...),
	})
}
