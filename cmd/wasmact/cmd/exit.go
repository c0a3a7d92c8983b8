package cmd

import (
	"context"
	"errors"

	"github.com/wasmact/wasmact/pkg/models"
)

// Process exit codes. Interrupted runs use 130 to match shell convention.
const (
	exitOK               = 0
	exitFailure          = 1
	exitConfigError      = 2
	exitEnvironmentError = 3
	exitExecutionError   = 4
	exitInterrupted      = 130
)

// errUnsuccessful marks a failure that has already been rendered to the
// user, so main prints nothing further and exits 1.
var errUnsuccessful = errors.New("unsuccessful")

// errNotReady marks an already-rendered environment report with failed
// checks; it exits with the environment error code.
var errNotReady = errors.New("environment not ready")

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	if errors.Is(err, errNotReady) {
		return exitEnvironmentError
	}

	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	var envErr *models.EnvironmentError
	if errors.As(err, &envErr) {
		return exitEnvironmentError
	}
	var execErr *models.ExecutionError
	if errors.As(err, &execErr) {
		return exitExecutionError
	}
	return exitFailure
}

// Interrupted reports whether the error came from a cancelled run.
func Interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Reported reports whether the error was already shown to the user.
func Reported(err error) bool {
	return errors.Is(err, errUnsuccessful) || errors.Is(err, errNotReady)
}
