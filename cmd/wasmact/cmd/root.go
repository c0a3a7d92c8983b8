package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wasmact/wasmact/internal/config"
	"github.com/wasmact/wasmact/pkg/logging"
)

// version is stamped by the release workflow.
var version = "0.1.0"

var (
	cfgFile      string
	logLevel     string
	logJSON      bool
	outputFormat string

	settings config.Settings
	log      *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wasmact",
	Short: "Invoke actions on a prebuilt WebAssembly component",
	Long: `wasmact wraps the wasmtime CLI to invoke application actions packaged in a
WebAssembly component. It validates the invocation, runs the component with
a bounded timeout and turns the raw process outcome into a classified result.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. The returned error has already been classified;
// callers map it to an exit code with ExitCode.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wasmact/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit log lines as JSON")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: table or json")
}

// initConfig reads the config file and environment, then resolves the
// flag-overridable settings.
func initConfig() {
	if err := config.Read(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(exitConfigError)
	}
	settings = config.Load()

	if logLevel == "" {
		logLevel = settings.LogLevel
	}
	if !logJSON {
		logJSON = settings.LogJSON
	}
	if outputFormat == "" {
		outputFormat = settings.OutputFormat
	}

	log = logging.NewLogger(logging.ParseLevel(logLevel), logJSON)
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
