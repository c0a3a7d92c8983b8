package models

import (
	"errors"
	"strings"
	"testing"
)

const (
	testAppID    = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
	testActionID = "0f1e2d3c4b5a69788796a5b4c3d2e1f0"
)

func TestNewInvocationConfigValidation(t *testing.T) {
	tests := []struct {
		name           string
		applicationID  string
		actionID       string
		timeoutSeconds int
		wantErr        string
	}{
		{"valid config", testAppID, testActionID, 30, ""},
		{"timeout lower boundary", testAppID, testActionID, 1, ""},
		{"timeout upper boundary", testAppID, testActionID, 300, ""},

		{"empty application id", "", testActionID, 30, "application_id must be a non-empty string"},
		{"short application id", "abc123", testActionID, 30, "application_id must be a 32-character hex string"},
		{"long application id", testAppID + "ff", testActionID, 30, "application_id must be a 32-character hex string"},
		{"uppercase application id", strings.ToUpper(testAppID), testActionID, 30, "application_id must be a 32-character hex string"},
		{"non-hex application id", "g1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6", testActionID, 30, "application_id must be a 32-character hex string"},

		{"empty action id", testAppID, "", 30, "action_id must be a non-empty string"},
		{"invalid action id", testAppID, "not-a-hex-id", 30, "action_id must be a 32-character hex string"},

		{"zero timeout", testAppID, testActionID, 0, "timeout must be a positive integer"},
		{"negative timeout", testAppID, testActionID, -5, "timeout must be a positive integer"},
		{"timeout just above max", testAppID, testActionID, 301, "timeout cannot exceed 300 seconds"},
		{"timeout far above max", testAppID, testActionID, 3600, "timeout cannot exceed 300 seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewInvocationConfig(tt.applicationID, tt.actionID, nil, "", tt.timeoutSeconds)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewInvocationConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("NewInvocationConfig() error = nil, want %q", tt.wantErr)
			}
			var confErr *ConfigurationError
			if !errors.As(err, &confErr) {
				t.Errorf("NewInvocationConfig() error type = %T, want *ConfigurationError", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("NewInvocationConfig() error = %q, want %q", err.Error(), tt.wantErr)
			}
			if cfg.ApplicationID != "" || cfg.TimeoutSeconds != 0 {
				t.Errorf("NewInvocationConfig() returned non-zero config on error: %+v", cfg)
			}
		})
	}
}

func TestNewInvocationConfigValidationOrder(t *testing.T) {
	// Everything invalid at once: the application ID check must win.
	_, err := NewInvocationConfig("bad", "also-bad", nil, "", -1)
	if err == nil {
		t.Fatal("NewInvocationConfig() error = nil, want application_id error")
	}
	if err.Error() != "application_id must be a 32-character hex string" {
		t.Errorf("NewInvocationConfig() error = %q, want application_id reported first", err.Error())
	}
}

func TestNewInvocationConfigDefaults(t *testing.T) {
	cfg, err := NewInvocationConfig(testAppID, testActionID, nil, "", DefaultTimeoutSeconds)
	if err != nil {
		t.Fatalf("NewInvocationConfig() error = %v", err)
	}
	if cfg.WasmFile != DefaultWasmFile {
		t.Errorf("WasmFile = %q, want %q", cfg.WasmFile, DefaultWasmFile)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
	}
	if cfg.Payload == nil {
		t.Error("Payload = nil, want empty map")
	}
}

func TestSanitizePayloadDropsNilValues(t *testing.T) {
	input := map[string]interface{}{
		"a":     1,
		"b":     nil,
		"empty": "",
		"zero":  0,
		"f":     false,
	}

	cfg, err := NewInvocationConfig(testAppID, testActionID, input, "", 30)
	if err != nil {
		t.Fatalf("NewInvocationConfig() error = %v", err)
	}
	if _, ok := cfg.Payload["b"]; ok {
		t.Error("Payload retained nil-valued entry \"b\"")
	}
	for _, key := range []string{"a", "empty", "zero", "f"} {
		if _, ok := cfg.Payload[key]; !ok {
			t.Errorf("Payload dropped non-nil entry %q", key)
		}
	}
}

func TestPayloadIsCopied(t *testing.T) {
	input := map[string]interface{}{"a": 1}
	cfg, err := NewInvocationConfig(testAppID, testActionID, input, "", 30)
	if err != nil {
		t.Fatalf("NewInvocationConfig() error = %v", err)
	}

	input["a"] = "mutated"
	input["injected"] = true

	if cfg.Payload["a"] != 1 {
		t.Errorf("Payload[\"a\"] = %v, want original value 1", cfg.Payload["a"])
	}
	if _, ok := cfg.Payload["injected"]; ok {
		t.Error("Payload picked up a key added after construction")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		expected string
	}{
		{"none renders as none", ErrorKindNone, "none"},
		{"execution failure", ErrorKindExecutionFailure, "execution_failure"},
		{"timeout", ErrorKindTimeout, "timeout"},
		{"system error", ErrorKindSystemError, "system_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}
