// Package config reads the wasmact configuration file and exposes typed
// accessors with defaults. Every key can be overridden through a
// WASMACT_ environment variable, so a file is never required.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/wasmact/wasmact/pkg/models"
)

const (
	DefaultRuntimeBinary  = "wasmtime"
	DefaultLogLevel       = "info"
	DefaultOutputFormat   = "table"
	DefaultServeAddr      = ":8474"
	DefaultRateLimitRPS   = 10.0
	DefaultRateLimitBurst = 20
	DefaultOTLPEndpoint   = "localhost:4318"
)

// Read loads configuration from cfgFile, or from ~/.wasmact/config.yaml
// when cfgFile is empty. A missing default file is fine; a missing
// explicit file is an error. Environment variables are bound either way.
func Read(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".wasmact"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WASMACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// FileUsed reports the configuration file that was actually loaded,
// empty when running on defaults and environment alone.
func FileUsed() string {
	return viper.ConfigFileUsed()
}

func GetString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultValue
}

func GetFloat(key string, defaultValue float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultValue
}

func GetBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultValue
}

// Settings is the fully resolved configuration after file, environment
// and defaults have been merged.
type Settings struct {
	RuntimeBinary   string  `json:"runtime_binary" yaml:"runtime_binary"`
	WasmFile        string  `json:"wasm_file" yaml:"wasm_file"`
	TimeoutSeconds  int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	LogLevel        string  `json:"log_level" yaml:"log_level"`
	LogJSON         bool    `json:"log_json" yaml:"log_json"`
	OutputFormat    string  `json:"output_format" yaml:"output_format"`
	ServeAddr       string  `json:"serve_addr" yaml:"serve_addr"`
	ServeAPIKey     string  `json:"-" yaml:"-"`
	TLSCert         string  `json:"tls_cert,omitempty" yaml:"tls_cert,omitempty"`
	TLSKey          string  `json:"tls_key,omitempty" yaml:"tls_key,omitempty"`
	RateLimitRPS    float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst  int     `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	TracingEnabled  bool    `json:"tracing_enabled" yaml:"tracing_enabled"`
	TracingEndpoint string  `json:"tracing_endpoint" yaml:"tracing_endpoint"`
}

// Load resolves every setting against its default. The API key is kept
// out of the struct tags so Settings can be printed safely.
func Load() Settings {
	return Settings{
		RuntimeBinary:   GetString(KeyRuntimeBinary, DefaultRuntimeBinary),
		WasmFile:        GetString(KeyWasmFile, models.DefaultWasmFile),
		TimeoutSeconds:  GetInt(KeyTimeoutSeconds, models.DefaultTimeoutSeconds),
		LogLevel:        GetString(KeyLogLevel, DefaultLogLevel),
		LogJSON:         GetBool(KeyLogJSON, false),
		OutputFormat:    GetString(KeyOutputFormat, DefaultOutputFormat),
		ServeAddr:       GetString(KeyServeAddr, DefaultServeAddr),
		ServeAPIKey:     GetString(KeyServeAPIKey, ""),
		TLSCert:         GetString(KeyServeTLSCert, ""),
		TLSKey:          GetString(KeyServeTLSKey, ""),
		RateLimitRPS:    GetFloat(KeyRateLimitRPS, DefaultRateLimitRPS),
		RateLimitBurst:  GetInt(KeyRateLimitBurst, DefaultRateLimitBurst),
		TracingEnabled:  GetBool(KeyTracingEnabled, false),
		TracingEndpoint: GetString(KeyTracingEndpoint, DefaultOTLPEndpoint),
	}
}
