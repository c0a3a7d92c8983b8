package config

// Runtime binary resolved on PATH to execute components
const KeyRuntimeBinary = "runtime.binary"

// Path to the component file invocations run against
const KeyWasmFile = "component.file"

// Default per-invocation timeout in seconds
const KeyTimeoutSeconds = "invoke.timeout_seconds"

// Log verbosity: debug, info, warn, error
const KeyLogLevel = "log.level"

// Emit log lines as JSON instead of text
const KeyLogJSON = "log.json"

// Default output format for result-bearing commands: table or json
const KeyOutputFormat = "output.format"

// Listen address for serve mode
const KeyServeAddr = "serve.addr"

// API key required by serve mode; empty disables auth
const KeyServeAPIKey = "serve.api_key"

// Sustained requests per second allowed per client in serve mode
const KeyRateLimitRPS = "serve.rate_limit_rps"

// Burst size allowed per client in serve mode
const KeyRateLimitBurst = "serve.rate_limit_burst"

// TLS certificate file for serve mode; TLS is enabled when both the
// certificate and key are set
const KeyServeTLSCert = "serve.tls_cert"

// TLS private key file for serve mode
const KeyServeTLSKey = "serve.tls_key"

// Export spans over OTLP HTTP
const KeyTracingEnabled = "tracing.enabled"

// OTLP HTTP endpoint, host:port
const KeyTracingEndpoint = "tracing.endpoint"
