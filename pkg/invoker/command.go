package invoker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wasmact/wasmact/pkg/models"
)

// runtimeFlags are passed to every invocation. -S http grants the component
// sandbox outbound HTTP.
var runtimeFlags = []string{"-S", "http"}

// buildInvokeExpression renders the call expression handed to the runtime.
// The component receives its input as a single JSON-encoded string, so the
// payload goes through two marshal passes: once to encode the map, once to
// escape that text for embedding. Caller data can never break out of the
// expression because it only ever appears inside a JSON string literal.
func buildInvokeExpression(cfg models.InvocationConfig) (string, error) {
	payload := cfg.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}

	inner, err := json.Marshal(payload)
	if err != nil {
		return "", models.NewExecutionError("unexpected error", err)
	}
	input, err := json.Marshal(string(inner))
	if err != nil {
		return "", models.NewExecutionError("unexpected error", err)
	}

	return fmt.Sprintf(`call({application-id: "%s", action-id: "%s", payload: {input: %s}})`,
		cfg.ApplicationID, cfg.ActionID, input), nil
}

// BuildCommand generates the argument vector for invoking the component,
// excluding the runtime binary itself. The component file must exist and is
// resolved to an absolute path so the child does not depend on the working
// directory.
func BuildCommand(cfg models.InvocationConfig) ([]string, error) {
	if _, err := os.Stat(cfg.WasmFile); err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewConfigurationError("WASM file not found: %s", cfg.WasmFile)
		}
		return nil, models.NewConfigurationError("WASM file not accessible: %v", err)
	}

	wasmPath, err := filepath.Abs(cfg.WasmFile)
	if err != nil {
		return nil, models.NewExecutionError("unexpected error", err)
	}

	expr, err := buildInvokeExpression(cfg)
	if err != nil {
		return nil, err
	}

	args := []string{"run", "--invoke", expr}
	args = append(args, runtimeFlags...)
	args = append(args, wasmPath)
	return args, nil
}

// redactCommand replaces the invoke expression with a placeholder so debug
// logs never leak payload contents.
func redactCommand(args []string) []string {
	safe := make([]string, len(args))
	copy(safe, args)
	for i := 1; i < len(safe); i++ {
		if safe[i-1] == "--invoke" {
			safe[i] = "call({...})"
		}
	}
	return safe
}
