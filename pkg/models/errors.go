package models

import "fmt"

// ConfigurationError reports invalid or ill-formed invocation input.
// It is raised before any process is spawned.
type ConfigurationError struct {
	Reason string
}

// Error implements error interface
func (e *ConfigurationError) Error() string {
	return e.Reason
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// EnvironmentError reports a host environment that cannot run components,
// typically a missing runtime binary on PATH.
type EnvironmentError struct {
	Tool string
	Hint string
	Err  error
}

// Error implements error interface
func (e *EnvironmentError) Error() string {
	msg := fmt.Sprintf("%s CLI not found", e.Tool)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps unexpected failures during an invocation. Classified
// runtime outcomes (non-zero exit, timeout, OS-level start failures) are
// returned as InvocationResult data instead and never use this type.
type ExecutionError struct {
	Op  string
	Err error
}

// Error implements error interface
func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap implements error unwrapping
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError wraps an unexpected failure with its operation context
func NewExecutionError(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Err: err}
}
