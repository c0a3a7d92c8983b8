package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wasmact/wasmact/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Commands for inspecting the resolved wasmact configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Shows the configuration after merging the config file, WASMACT_
environment variables and built-in defaults. The API key is never printed.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(settings)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(settings)

	default: // table
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Setting", "Value")

		table.Append("Runtime Binary", settings.RuntimeBinary)
		table.Append("Component File", settings.WasmFile)
		table.Append("Timeout", fmt.Sprintf("%ds", settings.TimeoutSeconds))
		table.Append("Log Level", settings.LogLevel)
		table.Append("Log JSON", fmt.Sprintf("%t", settings.LogJSON))
		table.Append("Output Format", settings.OutputFormat)
		table.Append("Serve Address", settings.ServeAddr)
		table.Append("Serve API Key", apiKeyStatus(settings.ServeAPIKey))
		if settings.TLSCert != "" {
			table.Append("TLS Cert", settings.TLSCert)
			table.Append("TLS Key", settings.TLSKey)
		}
		table.Append("Rate Limit", fmt.Sprintf("%.0f rps, burst %d", settings.RateLimitRPS, settings.RateLimitBurst))
		table.Append("Tracing", fmt.Sprintf("%t", settings.TracingEnabled))
		if settings.TracingEnabled {
			table.Append("Tracing Endpoint", settings.TracingEndpoint)
		}
		table.Render()

		if file := config.FileUsed(); file != "" {
			fmt.Printf("\nConfig file: %s\n", file)
		} else {
			fmt.Println("\nConfig file: (defaults and environment only)")
		}
		return nil
	}
}

func apiKeyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "(set, hidden)"
}
