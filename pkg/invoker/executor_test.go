package invoker

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"

	"github.com/wasmact/wasmact/pkg/logging"
	"github.com/wasmact/wasmact/pkg/metrics"
	"github.com/wasmact/wasmact/pkg/models"
)

// fakeRunner simulates child process behavior for executor tests
type fakeRunner struct {
	lookPathErr error
	result      RunResult
	err         error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.lookPathErr != nil {
		return "", f.lookPathErr
	}
	return "/usr/local/bin/" + name, nil
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string) (RunResult, error) {
	f.gotName = name
	f.gotArgs = args
	return f.result, f.err
}

func newTestInvoker(t *testing.T, runner CommandRunner) *Invoker {
	t.Helper()
	log := logging.NewLogger(logging.ERROR, false)
	log.SetOutput(&bytes.Buffer{})
	iv, err := New(Options{
		WasmFile: writeWasmFile(t),
		Runner:   runner,
		Logger:   log,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return iv
}

func TestExecute_Success(t *testing.T) {
	runner := &fakeRunner{result: RunResult{Stdout: []byte("component says hi\n"), ExitCode: 0}}
	iv := newTestInvoker(t, runner)

	res, err := iv.Invoke(context.Background(), testAppID, testActionID, map[string]interface{}{"k": "v"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if !res.Succeeded {
		t.Error("Expected succeeded result")
	}
	if res.Output != "component says hi" {
		t.Errorf("Output = %q, want trimmed stdout", res.Output)
	}
	if res.ExitCode == nil || *res.ExitCode != 0 {
		t.Errorf("ExitCode = %v, want 0", res.ExitCode)
	}
	if res.ErrorKind != models.ErrorKindNone {
		t.Errorf("ErrorKind = %q, want none", res.ErrorKind)
	}
	if res.ElapsedSeconds < 0 {
		t.Errorf("ElapsedSeconds = %f, want >= 0", res.ElapsedSeconds)
	}
}

func TestExecute_SuccessNoOutput(t *testing.T) {
	runner := &fakeRunner{result: RunResult{Stdout: []byte("  \n"), ExitCode: 0}}
	iv := newTestInvoker(t, runner)

	res, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.Output != "Success (no output)" {
		t.Errorf("Output = %q, want placeholder for empty stdout", res.Output)
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{result: RunResult{Stderr: []byte("trap: unreachable\n"), ExitCode: 3}}
	iv := newTestInvoker(t, runner)

	res, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if res.Succeeded {
		t.Error("Expected failed result")
	}
	if res.Output != "Execution failed: trap: unreachable" {
		t.Errorf("Output = %q, want stderr-based failure message", res.Output)
	}
	if res.ExitCode == nil || *res.ExitCode != 3 {
		t.Errorf("ExitCode = %v, want 3", res.ExitCode)
	}
	if res.ErrorKind != models.ErrorKindExecutionFailure {
		t.Errorf("ErrorKind = %q, want execution_failure", res.ErrorKind)
	}
}

func TestExecute_NonZeroExitEmptyStderr(t *testing.T) {
	runner := &fakeRunner{result: RunResult{ExitCode: 1}}
	iv := newTestInvoker(t, runner)

	res, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.Output != "Execution failed: Unknown error" {
		t.Errorf("Output = %q, want unknown-error fallback", res.Output)
	}
}

func TestExecute_Timeout(t *testing.T) {
	runner := &fakeRunner{err: context.DeadlineExceeded}
	iv := newTestInvoker(t, runner)

	cfg, err := iv.Config(testAppID, testActionID, nil, 45)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	res, err := iv.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if res.Succeeded {
		t.Error("Expected failed result")
	}
	if res.ErrorKind != models.ErrorKindTimeout {
		t.Errorf("ErrorKind = %q, want timeout", res.ErrorKind)
	}
	if res.Output != "Execution timed out after 45s" {
		t.Errorf("Output = %q, want timeout message with configured value", res.Output)
	}
	if res.ExitCode != nil {
		t.Errorf("ExitCode = %v, want nil for timeout", *res.ExitCode)
	}
}

func TestExecute_SystemError(t *testing.T) {
	runner := &fakeRunner{err: &exec.Error{Name: "wasmtime", Err: errors.New("permission denied")}}
	iv := newTestInvoker(t, runner)

	res, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if res.ErrorKind != models.ErrorKindSystemError {
		t.Errorf("ErrorKind = %q, want system_error", res.ErrorKind)
	}
	if !strings.HasPrefix(res.Output, "System error: ") {
		t.Errorf("Output = %q, want system error message", res.Output)
	}
	if res.ExitCode != nil {
		t.Error("Expected nil exit code when the process never ran")
	}
}

func TestExecute_UnexpectedErrorPropagates(t *testing.T) {
	runner := &fakeRunner{err: errors.New("runner lost its mind")}
	iv := newTestInvoker(t, runner)

	_, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if err == nil {
		t.Fatal("Expected propagated error for unexpected failure")
	}
	var execErr *models.ExecutionError
	if !errors.As(err, &execErr) {
		t.Errorf("Expected ExecutionError, got %T: %v", err, err)
	}
}

func TestExecute_CancellationPropagates(t *testing.T) {
	runner := &fakeRunner{err: context.Canceled}
	iv := newTestInvoker(t, runner)

	_, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExecute_TruncatedOutput(t *testing.T) {
	big := bytes.Repeat([]byte("x"), MaxOutputBytes)
	runner := &fakeRunner{result: RunResult{Stdout: big, StdoutTruncated: true, ExitCode: 0}}
	iv := newTestInvoker(t, runner)

	res, err := iv.Invoke(context.Background(), testAppID, testActionID, nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if !strings.HasSuffix(res.Output, "... (truncated)") {
		t.Error("Expected truncation marker at end of output")
	}
	if len(res.Output) != MaxOutputBytes+len("... (truncated)") {
		t.Errorf("Output length = %d, want cap plus marker", len(res.Output))
	}
}

func TestExecute_RunnerReceivesResolvedPathAndArgs(t *testing.T) {
	runner := &fakeRunner{result: RunResult{ExitCode: 0}}
	iv := newTestInvoker(t, runner)

	if _, err := iv.Invoke(context.Background(), testAppID, testActionID, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if runner.gotName != "/usr/local/bin/wasmtime" {
		t.Errorf("Runner got binary %q, want resolved path", runner.gotName)
	}
	if len(runner.gotArgs) == 0 || runner.gotArgs[0] != "run" {
		t.Errorf("Runner got args %v, want run subcommand first", runner.gotArgs)
	}
}

func TestExecute_RecordsMetrics(t *testing.T) {
	runner := &fakeRunner{result: RunResult{Stdout: []byte("ok"), ExitCode: 0}}
	rec := metrics.NewRecorder()

	log := logging.NewLogger(logging.ERROR, false)
	log.SetOutput(&bytes.Buffer{})
	iv, err := New(Options{
		WasmFile: writeWasmFile(t),
		Runner:   runner,
		Logger:   log,
		Metrics:  rec,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := iv.Invoke(context.Background(), testAppID, testActionID, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), `wasmact_invocations_total{outcome="success"} 1`) {
		t.Error("Expected success invocation counted in metrics")
	}
}

func TestCappedBuffer(t *testing.T) {
	buf := newCappedBuffer(8)

	n, err := buf.Write([]byte("0123456789"))
	if err != nil || n != 10 {
		t.Fatalf("Write returned (%d, %v), want full length and nil error", n, err)
	}
	if got := string(buf.Bytes()); got != "01234567" {
		t.Errorf("Bytes() = %q, want first 8 bytes", got)
	}
	if !buf.Truncated() {
		t.Error("Expected truncated buffer")
	}

	small := newCappedBuffer(8)
	small.Write([]byte("abc"))
	if small.Truncated() {
		t.Error("Buffer under the cap reported truncation")
	}
}
