package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wasmact/wasmact/pkg/invoker"
	"github.com/wasmact/wasmact/pkg/models"
)

var (
	// Invoke flags
	invokeInput     string
	invokeInputFile string
	invokeWasmFile  string
	invokeTimeout   int
	invokeRuntime   string
)

// invokeCmd represents the invoke command
var invokeCmd = &cobra.Command{
	Use:   "invoke <application-id> <action-id>",
	Short: "Invoke a component action",
	Long: `Invoke one action of the WebAssembly component. Application and action IDs
are 32-character hex strings. The action input is a JSON object passed with
--input or --input-file.

The command exits 0 when the action succeeds and 1 when the component
reports a failure. Validation, environment and system problems use
dedicated exit codes (2, 3 and 4).`,
	Args: cobra.ExactArgs(2),
	RunE: runInvoke,
}

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().StringVar(&invokeInput, "input", "", "action input as a JSON object")
	invokeCmd.Flags().StringVar(&invokeInputFile, "input-file", "", "read action input from a JSON file (use - for stdin)")
	invokeCmd.Flags().StringVar(&invokeWasmFile, "wasm", "", "path to the component file (default from config or actions.wasm)")
	invokeCmd.Flags().IntVar(&invokeTimeout, "timeout", 0, "execution timeout in seconds (default from config or 30)")
	invokeCmd.Flags().StringVar(&invokeRuntime, "runtime", "", "runtime binary to execute (default from config or wasmtime)")
}

func runInvoke(cmd *cobra.Command, args []string) error {
	input, err := readInvokeInput(invokeInput, invokeInputFile, os.Stdin)
	if err != nil {
		return models.NewConfigurationError("%v", err)
	}

	iv, err := invoker.New(invoker.Options{
		Tool:           firstNonEmpty(invokeRuntime, settings.RuntimeBinary),
		WasmFile:       firstNonEmpty(invokeWasmFile, settings.WasmFile),
		TimeoutSeconds: settings.TimeoutSeconds,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	cfg, err := iv.Config(args[0], args[1], input, invokeTimeout)
	if err != nil {
		return err
	}

	result, err := iv.Execute(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := renderResult(result); err != nil {
		return err
	}
	if result.Failed() {
		return errUnsuccessful
	}
	return nil
}

// readInvokeInput resolves the action input from the flag value, a file
// or stdin. Both sources at once is an error; neither means no input.
func readInvokeInput(inline, file string, stdin io.Reader) (map[string]interface{}, error) {
	if inline != "" && file != "" {
		return nil, fmt.Errorf("--input and --input-file are mutually exclusive")
	}
	if inline != "" {
		return parseInputJSON([]byte(inline))
	}
	if file != "" {
		var raw []byte
		var err error
		if file == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %v", err)
		}
		return parseInputJSON(raw)
	}
	return nil, nil
}

// parseInputJSON parses the action input, which must be a JSON object.
func parseInputJSON(raw []byte) (map[string]interface{}, error) {
	var input map[string]interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %v", err)
	}
	return input, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// renderResult writes the invocation result to stdout in the requested
// format.
func renderResult(result models.InvocationResult) error {
	if IsJSONOutput() {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("Status", statusText(result))
	if result.ExitCode != nil {
		table.Append("Exit Code", fmt.Sprintf("%d", *result.ExitCode))
	}
	table.Append("Elapsed", fmt.Sprintf("%.3fs", result.ElapsedSeconds))
	if result.ErrorKind != models.ErrorKindNone {
		table.Append("Error Kind", result.ErrorKind.String())
	}
	table.Render()

	fmt.Println()
	fmt.Println(result.Output)
	return nil
}

func statusText(result models.InvocationResult) string {
	if result.Succeeded {
		return "success"
	}
	return "failed"
}
