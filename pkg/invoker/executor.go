package invoker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wasmact/wasmact/internal/observe"
	"github.com/wasmact/wasmact/pkg/logging"
	"github.com/wasmact/wasmact/pkg/models"
	"github.com/wasmact/wasmact/pkg/tracing"
)

// truncationMarker is appended when captured output was cut at the cap
const truncationMarker = "... (truncated)"

// Execute runs one validated invocation and classifies the outcome.
// Non-zero exits, timeouts and OS-level spawn failures come back as result
// data; a caller cancellation propagates as context.Canceled and anything
// unexpected as an ExecutionError.
func (iv *Invoker) Execute(ctx context.Context, cfg models.InvocationConfig) (models.InvocationResult, error) {
	log := iv.log.WithField("invocation_id", uuid.New().String())

	timing := observe.NewTiming()
	log.Info("starting component execution", map[string]interface{}{
		"application_id":  cfg.ApplicationID,
		"action_id":       cfg.ActionID,
		"timeout_seconds": cfg.TimeoutSeconds,
	})
	defer func() {
		timing.Complete()
		log.Info("execution completed", map[string]interface{}{
			"action_id":       cfg.ActionID,
			"elapsed_seconds": fmt.Sprintf("%.3f", timing.Seconds()),
		})
	}()

	ctx, span := iv.tracer.StartSpan(ctx, "invoker.execute",
		attribute.String("application_id", cfg.ApplicationID),
		attribute.String("action_id", cfg.ActionID),
	)
	defer span.End()

	args, err := BuildCommand(cfg)
	if err != nil {
		tracing.SetError(ctx, err)
		return models.InvocationResult{}, err
	}

	log.Debug("executing command", map[string]interface{}{
		"command": append([]string{iv.tool}, redactCommand(args)...),
	})

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	out, runErr := iv.runner.Run(runCtx, iv.toolPath, args)

	result, err := iv.classify(cfg, out, runErr, log)
	if err != nil {
		tracing.SetError(ctx, err)
		return models.InvocationResult{}, err
	}
	result.ElapsedSeconds = timing.Seconds()

	span.SetAttributes(
		attribute.Bool("succeeded", result.Succeeded),
		attribute.String("error_kind", result.ErrorKind.String()),
	)

	if iv.metrics != nil {
		iv.metrics.RecordInvocation(outcomeLabel(result), result.ElapsedSeconds, len(result.Output))
		if out.StdoutTruncated || out.StderrTruncated {
			iv.metrics.RecordTruncation()
		}
	}

	return result, nil
}

// classify turns the raw run observations into an invocation result. The
// branches are ordered: completed process first, then timeout, caller
// cancellation, OS-level failures, and finally the unexpected remainder.
func (iv *Invoker) classify(cfg models.InvocationConfig, out RunResult, runErr error, log *logging.Logger) (models.InvocationResult, error) {
	switch {
	case runErr == nil && out.ExitCode == 0:
		exitCode := out.ExitCode
		log.Info("component executed successfully", map[string]interface{}{
			"action_id": cfg.ActionID,
		})
		return models.InvocationResult{
			Succeeded: true,
			Output:    successOutput(out, log),
			ExitCode:  &exitCode,
		}, nil

	case runErr == nil:
		exitCode := out.ExitCode
		log.Error("component execution failed", map[string]interface{}{
			"action_id": cfg.ActionID,
			"exit_code": exitCode,
		})
		return models.InvocationResult{
			Output:    failureOutput(out),
			ExitCode:  &exitCode,
			ErrorKind: models.ErrorKindExecutionFailure,
		}, nil

	case errors.Is(runErr, context.DeadlineExceeded):
		log.Error("component execution timeout", map[string]interface{}{
			"action_id":       cfg.ActionID,
			"timeout_seconds": cfg.TimeoutSeconds,
		})
		return models.InvocationResult{
			Output:    fmt.Sprintf("Execution timed out after %ds", cfg.TimeoutSeconds),
			ErrorKind: models.ErrorKindTimeout,
		}, nil

	case errors.Is(runErr, context.Canceled):
		// Caller interrupt, not a component outcome
		return models.InvocationResult{}, runErr

	case isSystemError(runErr):
		log.Error("system error during execution", map[string]interface{}{
			"action_id": cfg.ActionID,
			"error":     runErr.Error(),
		})
		return models.InvocationResult{
			Output:    fmt.Sprintf("System error: %v", runErr),
			ErrorKind: models.ErrorKindSystemError,
		}, nil

	default:
		return models.InvocationResult{}, models.NewExecutionError("unexpected error", runErr)
	}
}

func successOutput(out RunResult, log *logging.Logger) string {
	if out.StdoutTruncated {
		log.Warn("output truncated due to size limit")
		return string(out.Stdout) + truncationMarker
	}
	output := strings.TrimSpace(string(out.Stdout))
	if output == "" {
		return "Success (no output)"
	}
	return output
}

func failureOutput(out RunResult) string {
	msg := strings.TrimSpace(string(out.Stderr))
	if out.StderrTruncated {
		msg = string(out.Stderr) + truncationMarker
	}
	if msg == "" {
		msg = "Unknown error"
	}
	return "Execution failed: " + msg
}

// isSystemError reports OS-level failures that kept the child from running
// at all, such as a vanished binary, permission problems or fork errors.
func isSystemError(err error) bool {
	var execErr *exec.Error
	var pathErr *fs.PathError
	var sysErr *os.SyscallError
	return errors.As(err, &execErr) || errors.As(err, &pathErr) || errors.As(err, &sysErr)
}

func outcomeLabel(result models.InvocationResult) string {
	if result.Succeeded {
		return "success"
	}
	return string(result.ErrorKind)
}
