package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/wasmact/wasmact/internal/api"
	"github.com/wasmact/wasmact/pkg/invoker"
	"github.com/wasmact/wasmact/pkg/metrics"
	"github.com/wasmact/wasmact/pkg/models"
	"github.com/wasmact/wasmact/pkg/shutdown"
	tlsutil "github.com/wasmact/wasmact/pkg/tls"
	"github.com/wasmact/wasmact/pkg/tracing"
)

var (
	serveAddr     string
	serveWasmFile string
	serveRuntime  string
	serveTLSCert  string
	serveTLSKey   string
	generateCert  bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the invocation HTTP API",
	Long: `Runs an HTTP server exposing component invocation over POST /v1/invoke,
liveness and readiness probes, and Prometheus metrics. The server shuts
down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config or :8474)")
	serveCmd.Flags().StringVar(&serveWasmFile, "wasm", "", "path to the component file (default from config or actions.wasm)")
	serveCmd.Flags().StringVar(&serveRuntime, "runtime", "", "runtime binary to execute (default from config or wasmtime)")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file (TLS is enabled when cert and key are set)")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")
	serveCmd.Flags().BoolVar(&generateCert, "generate-cert", false, "generate a self-signed certificate at the cert/key paths and exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	certFile := firstNonEmpty(serveTLSCert, settings.TLSCert)
	keyFile := firstNonEmpty(serveTLSKey, settings.TLSKey)

	if generateCert {
		if certFile == "" || keyFile == "" {
			return models.NewConfigurationError("--generate-cert requires --tls-cert and --tls-key paths")
		}
		if err := tlsutil.GenerateSelfSignedCert(certFile, keyFile, "wasmact"); err != nil {
			return fmt.Errorf("failed to generate certificate: %w", err)
		}
		fmt.Printf("Certificate written to %s, key to %s\n", certFile, keyFile)
		return nil
	}
	recorder := metrics.NewRecorder()

	provider := tracing.Disabled()
	if settings.TracingEnabled {
		p, err := tracing.Init(tracing.Config{
			ServiceName:    "wasmact",
			ServiceVersion: version,
			OTLPEndpoint:   settings.TracingEndpoint,
			Enabled:        true,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		provider = p
	}

	iv, err := invoker.New(invoker.Options{
		Tool:           firstNonEmpty(serveRuntime, settings.RuntimeBinary),
		WasmFile:       firstNonEmpty(serveWasmFile, settings.WasmFile),
		TimeoutSeconds: settings.TimeoutSeconds,
		Logger:         log,
		Metrics:        recorder,
		Tracer:         provider,
	})
	if err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Invoker:   iv,
		Logger:    log,
		Metrics:   recorder,
		Tracer:    provider,
		APIKey:    settings.ServeAPIKey,
		RateRPS:   settings.RateLimitRPS,
		RateBurst: settings.RateLimitBurst,
	})

	addr := firstNonEmpty(serveAddr, settings.ServeAddr)
	srv := &http.Server{
		Addr:        addr,
		Handler:     server.Router(),
		ReadTimeout: 30 * time.Second,
		// The write timeout must outlast the longest allowed invocation.
		WriteTimeout: time.Duration(models.MaxTimeoutSeconds+15) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	useTLS := certFile != "" && keyFile != ""
	if useTLS {
		tlsConfig, err := tlsutil.ServerConfig(certFile, keyFile)
		if err != nil {
			return models.NewConfigurationError("failed to load TLS config: %v", err)
		}
		srv.TLSConfig = tlsConfig
	}

	mgr := shutdown.New(30*time.Second, log)
	mgr.Register(shutdown.StopHTTPServer(srv, "invocation API"))
	if settings.TracingEnabled {
		mgr.Register(provider.Shutdown)
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("invocation API listening", map[string]interface{}{
			"addr":         addr,
			"wasm_file":    iv.WasmFile(),
			"tls":          useTLS,
			"auth_enabled": settings.ServeAPIKey != "",
		})
		var serveErr error
		if useTLS {
			serveErr = srv.ListenAndServeTLS("", "")
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- serveErr
		}
	}()

	signaled := make(chan struct{})
	go func() {
		mgr.Wait()
		close(signaled)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-signaled:
	case <-cmd.Context().Done():
	}

	mgr.Shutdown()
	return nil
}
