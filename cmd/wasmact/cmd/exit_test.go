package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/wasmact/wasmact/pkg/models"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"no error", nil, 0},
		{"generic error", errors.New("boom"), 1},
		{"rendered unsuccessful result", errUnsuccessful, 1},
		{"rendered not-ready report", errNotReady, 3},
		{"configuration error", models.NewConfigurationError("timeout must be a positive integer"), 2},
		{"wrapped configuration error", fmt.Errorf("invoke: %w", models.NewConfigurationError("bad id")), 2},
		{"environment error", &models.EnvironmentError{Tool: "wasmtime"}, 3},
		{"execution error", models.NewExecutionError("unexpected error", os.ErrPermission), 4},
		{"cancelled context", context.Canceled, 130},
		{"wrapped cancellation", fmt.Errorf("run: %w", context.Canceled), 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestInterrupted(t *testing.T) {
	if !Interrupted(context.Canceled) {
		t.Error("Expected context.Canceled to count as interrupted")
	}
	if Interrupted(errors.New("boom")) {
		t.Error("Expected plain error not to count as interrupted")
	}
	if Interrupted(nil) {
		t.Error("Expected nil not to count as interrupted")
	}
}

func TestReported(t *testing.T) {
	if !Reported(errUnsuccessful) {
		t.Error("Expected sentinel to be reported")
	}
	if !Reported(errNotReady) {
		t.Error("Expected not-ready sentinel to be reported")
	}
	if Reported(models.NewConfigurationError("bad id")) {
		t.Error("Expected configuration error not to be reported")
	}
}
