package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wasmact/wasmact/internal/config"
)

var (
	doctorWasmFile string
	doctorRuntime  string
	doctorOutput   string
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the invocation environment",
	Long: `Checks that the runtime binary and component file are in place, probes the
runtime version and reports basic host information. Exits 1 when the
environment is not ready to invoke actions.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVar(&doctorWasmFile, "wasm", "", "path to the component file (default from config or actions.wasm)")
	doctorCmd.Flags().StringVar(&doctorRuntime, "runtime", "", "runtime binary to check (default from config or wasmtime)")
	doctorCmd.Flags().StringVarP(&doctorOutput, "format", "f", "text", "Output format: text, json, yaml")
}

type DoctorReport struct {
	Runtime   RuntimeCheck   `json:"runtime" yaml:"runtime"`
	Component ComponentCheck `json:"component" yaml:"component"`
	Config    ConfigInfo     `json:"config" yaml:"config"`
	Host      HostInfo       `json:"host" yaml:"host"`
	Ready     bool           `json:"ready" yaml:"ready"`
}

type RuntimeCheck struct {
	Binary  string `json:"binary" yaml:"binary"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Found   bool   `json:"found" yaml:"found"`
}

type ComponentCheck struct {
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Found     bool   `json:"found" yaml:"found"`
}

type ConfigInfo struct {
	File           string `json:"file,omitempty" yaml:"file,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type HostInfo struct {
	CPUModel     string `json:"cpu_model" yaml:"cpu_model"`
	CPUThreads   int    `json:"cpu_threads" yaml:"cpu_threads"`
	RAMGB        string `json:"ram_gb" yaml:"ram_gb"`
	OS           string `json:"os" yaml:"os"`
	Architecture string `json:"architecture" yaml:"architecture"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := buildDoctorReport(cmd.Context())

	if err := outputDoctorReport(report, doctorOutput); err != nil {
		return err
	}
	if !report.Ready {
		return errNotReady
	}
	return nil
}

func buildDoctorReport(ctx context.Context) DoctorReport {
	report := DoctorReport{
		Config: ConfigInfo{
			File:           config.FileUsed(),
			TimeoutSeconds: settings.TimeoutSeconds,
		},
		Host: detectHost(),
	}

	binary := firstNonEmpty(doctorRuntime, settings.RuntimeBinary)
	report.Runtime.Binary = binary
	if path, err := exec.LookPath(binary); err == nil {
		report.Runtime.Found = true
		report.Runtime.Path = path
		report.Runtime.Version = runtimeVersion(ctx, path)
	}

	wasmFile := firstNonEmpty(doctorWasmFile, settings.WasmFile)
	report.Component.Path = wasmFile
	if info, err := os.Stat(wasmFile); err == nil && !info.IsDir() {
		report.Component.Found = true
		report.Component.SizeBytes = info.Size()
	}

	report.Ready = report.Runtime.Found && report.Component.Found
	return report
}

// runtimeVersion probes the runtime binary. The probe is best effort and
// bounded so a wedged binary cannot hang the doctor.
func runtimeVersion(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func detectHost() HostInfo {
	info := HostInfo{
		CPUModel:     "Unknown",
		CPUThreads:   runtime.NumCPU(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
	}
	if threads, err := cpu.Counts(true); err == nil && threads > 0 {
		info.CPUThreads = threads
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.RAMGB = formatRAM(vm.Total)
	}
	return info
}

// formatRAM formats RAM bytes to human-readable string
func formatRAM(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	return fmt.Sprintf("%.1f GB", gb)
}

func outputDoctorReport(report DoctorReport, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(report)

	default: // text
		fmt.Println("Runtime:")
		fmt.Printf("  Binary: %s\n", report.Runtime.Binary)
		fmt.Printf("  Found: %s\n", boolToYesNo(report.Runtime.Found))
		if report.Runtime.Found {
			fmt.Printf("  Path: %s\n", report.Runtime.Path)
			fmt.Printf("  Version: %s\n", report.Runtime.Version)
		} else {
			fmt.Println("  Install from: https://docs.wasmtime.dev/cli-install.html")
		}
		fmt.Println()

		fmt.Println("Component:")
		fmt.Printf("  Path: %s\n", report.Component.Path)
		fmt.Printf("  Found: %s\n", boolToYesNo(report.Component.Found))
		if report.Component.Found {
			fmt.Printf("  Size: %d bytes\n", report.Component.SizeBytes)
		}
		fmt.Println()

		fmt.Println("Config:")
		if report.Config.File != "" {
			fmt.Printf("  File: %s\n", report.Config.File)
		} else {
			fmt.Println("  File: (defaults and environment only)")
		}
		fmt.Printf("  Timeout: %ds\n", report.Config.TimeoutSeconds)
		fmt.Println()

		fmt.Println("Host:")
		fmt.Printf("  CPU: %s (%d threads)\n", report.Host.CPUModel, report.Host.CPUThreads)
		if report.Host.RAMGB != "" {
			fmt.Printf("  RAM: %s\n", report.Host.RAMGB)
		}
		fmt.Printf("  OS: %s/%s\n", report.Host.OS, report.Host.Architecture)
		fmt.Println()

		if report.Ready {
			fmt.Println("Environment is ready.")
		} else {
			fmt.Println("Environment is NOT ready.")
		}
		return nil
	}
}

func boolToYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
