package invoker

import (
	"context"

	"github.com/wasmact/wasmact/pkg/logging"
	"github.com/wasmact/wasmact/pkg/metrics"
	"github.com/wasmact/wasmact/pkg/models"
	"github.com/wasmact/wasmact/pkg/tracing"
)

const (
	// DefaultTool is the runtime binary resolved on PATH
	DefaultTool = "wasmtime"

	installHint = "Install from: https://docs.wasmtime.dev/cli-install.html"
)

// Options configures an Invoker. Zero values select working defaults, so
// Options{} is a valid starting point on a host with wasmtime installed.
type Options struct {
	Tool           string
	WasmFile       string
	TimeoutSeconds int
	Logger         *logging.Logger
	Runner         CommandRunner
	Metrics        *metrics.Recorder
	Tracer         *tracing.Provider
}

// Invoker runs component actions through the runtime CLI. It holds no state
// across invocations beyond the resolved runtime path and the injected
// observability ports, so one Invoker may serve concurrent callers; every
// call spawns its own child process.
type Invoker struct {
	tool           string
	toolPath       string
	wasmFile       string
	timeoutSeconds int
	runner         CommandRunner
	log            *logging.Logger
	metrics        *metrics.Recorder
	tracer         *tracing.Provider
}

// New verifies the runtime binary resolves on the search path and returns
// an invoker bound to it. The check is PATH resolution only; no process is
// spawned. A missing binary is an EnvironmentError.
func New(opts Options) (*Invoker, error) {
	tool := opts.Tool
	if tool == "" {
		tool = DefaultTool
	}
	wasmFile := opts.WasmFile
	if wasmFile == "" {
		wasmFile = models.DefaultWasmFile
	}
	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = models.DefaultTimeoutSeconds
	}
	runner := opts.Runner
	if runner == nil {
		runner = NewExecRunner()
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewLogger(logging.INFO, false)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Disabled()
	}

	toolPath, err := runner.LookPath(tool)
	if err != nil {
		return nil, &models.EnvironmentError{Tool: tool, Hint: installHint, Err: err}
	}

	log.Debug("environment validated", map[string]interface{}{
		"tool":      tool,
		"tool_path": toolPath,
	})

	return &Invoker{
		tool:           tool,
		toolPath:       toolPath,
		wasmFile:       wasmFile,
		timeoutSeconds: timeoutSeconds,
		runner:         runner,
		log:            log,
		metrics:        opts.Metrics,
		tracer:         tracer,
	}, nil
}

// Tool returns the configured runtime binary name
func (iv *Invoker) Tool() string {
	return iv.tool
}

// ToolPath returns the runtime path resolved at construction
func (iv *Invoker) ToolPath() string {
	return iv.toolPath
}

// WasmFile returns the component file invocations run against
func (iv *Invoker) WasmFile() string {
	return iv.wasmFile
}

// Config builds a validated invocation config from the invoker defaults.
// timeoutSeconds <= 0 selects the configured default timeout.
func (iv *Invoker) Config(applicationID, actionID string, input map[string]interface{}, timeoutSeconds int) (models.InvocationConfig, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = iv.timeoutSeconds
	}
	return models.NewInvocationConfig(applicationID, actionID, input, iv.wasmFile, timeoutSeconds)
}

// Invoke validates, executes and classifies a single component invocation
func (iv *Invoker) Invoke(ctx context.Context, applicationID, actionID string, input map[string]interface{}) (models.InvocationResult, error) {
	cfg, err := iv.Config(applicationID, actionID, input, 0)
	if err != nil {
		return models.InvocationResult{}, err
	}
	return iv.Execute(ctx, cfg)
}
