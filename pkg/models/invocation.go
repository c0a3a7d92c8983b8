package models

import (
	"regexp"
)

const (
	// DefaultWasmFile is the component file used when none is configured
	DefaultWasmFile = "actions.wasm"

	// DefaultTimeoutSeconds bounds an invocation when no timeout is configured
	DefaultTimeoutSeconds = 30

	// MaxTimeoutSeconds is the upper bound for any invocation timeout
	MaxTimeoutSeconds = 300
)

// idPattern matches the 32-character lowercase hex identifiers assigned to
// applications and actions.
var idPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// ErrorKind classifies why an invocation did not succeed
type ErrorKind string

const (
	ErrorKindNone             ErrorKind = ""
	ErrorKindExecutionFailure ErrorKind = "execution_failure"
	ErrorKindTimeout          ErrorKind = "timeout"
	ErrorKindSystemError      ErrorKind = "system_error"
)

// String renders the empty kind as "none" for display output
func (k ErrorKind) String() string {
	if k == ErrorKindNone {
		return "none"
	}
	return string(k)
}

// InvocationConfig holds the validated parameters for a single component
// invocation. Construct it through NewInvocationConfig; the fields are not
// meant to change afterwards, and the payload map is a private copy.
type InvocationConfig struct {
	ApplicationID  string                 `json:"application_id"`
	ActionID       string                 `json:"action_id"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
	WasmFile       string                 `json:"wasm_file"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
}

// NewInvocationConfig validates and builds an invocation config. An empty
// wasmFile selects DefaultWasmFile; timeoutSeconds is validated as given,
// so callers wanting the default pass DefaultTimeoutSeconds themselves. On
// error the zero config is returned so no partially valid value escapes.
func NewInvocationConfig(applicationID, actionID string, input map[string]interface{}, wasmFile string, timeoutSeconds int) (InvocationConfig, error) {
	if wasmFile == "" {
		wasmFile = DefaultWasmFile
	}

	cfg := InvocationConfig{
		ApplicationID:  applicationID,
		ActionID:       actionID,
		Payload:        sanitizePayload(input),
		WasmFile:       wasmFile,
		TimeoutSeconds: timeoutSeconds,
	}
	if err := cfg.Validate(); err != nil {
		return InvocationConfig{}, err
	}
	return cfg, nil
}

// Validate checks the config in a fixed order and stops at the first
// violation: application ID, action ID, then timeout bounds.
func (c *InvocationConfig) Validate() error {
	if c.ApplicationID == "" {
		return NewConfigurationError("application_id must be a non-empty string")
	}
	if !idPattern.MatchString(c.ApplicationID) {
		return NewConfigurationError("application_id must be a 32-character hex string")
	}
	if c.ActionID == "" {
		return NewConfigurationError("action_id must be a non-empty string")
	}
	if !idPattern.MatchString(c.ActionID) {
		return NewConfigurationError("action_id must be a 32-character hex string")
	}
	if c.TimeoutSeconds <= 0 {
		return NewConfigurationError("timeout must be a positive integer")
	}
	if c.TimeoutSeconds > MaxTimeoutSeconds {
		return NewConfigurationError("timeout cannot exceed %d seconds", MaxTimeoutSeconds)
	}
	return nil
}

// sanitizePayload copies the caller's input, dropping entries whose value is
// nil. The copy keeps later mutations of the caller's map from leaking into
// a constructed config.
func sanitizePayload(input map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(input))
	for k, v := range input {
		if v == nil {
			continue
		}
		payload[k] = v
	}
	return payload
}

// InvocationResult reports the outcome of one component invocation. A fresh
// value is produced per call; classified failures are data here, not errors.
type InvocationResult struct {
	Succeeded      bool      `json:"succeeded"`
	Output         string    `json:"output"`
	ExitCode       *int      `json:"exit_code,omitempty"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
}

// Failed reports whether the invocation ended with a classified failure
func (r *InvocationResult) Failed() bool {
	return !r.Succeeded
}
