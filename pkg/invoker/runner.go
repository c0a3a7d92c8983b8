package invoker

import (
	"bytes"
	"context"
	"os/exec"
)

// MaxOutputBytes caps how much of each child stream is kept in memory. A
// component writing more than this gets its output cut at the cap.
const MaxOutputBytes = 1024 * 1024

// RunResult carries the raw observations from one child process run
type RunResult struct {
	Stdout          []byte
	Stderr          []byte
	StdoutTruncated bool
	StderrTruncated bool
	ExitCode        int
}

// CommandRunner abstracts child process execution so invocation handling
// can be exercised without a real runtime binary on the host.
type CommandRunner interface {
	// LookPath resolves a binary on the search path without spawning it
	LookPath(name string) (string, error)

	// Run executes name with args and blocks until exit or ctx expiry.
	// A nil error means the process ran to completion whatever its exit
	// code; ctx expiry and OS-level start failures come back as errors.
	Run(ctx context.Context, name string, args []string) (RunResult, error)
}

// execRunner is the os/exec-backed runner used outside of tests
type execRunner struct{}

// NewExecRunner returns the default runner
func NewExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (execRunner) Run(ctx context.Context, name string, args []string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout := newCappedBuffer(MaxOutputBytes)
	stderr := newCappedBuffer(MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	res := RunResult{
		Stdout:          stdout.Bytes(),
		Stderr:          stderr.Bytes(),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
		ExitCode:        -1,
	}

	// ctx expiry wins over the "signal: killed" error it causes
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	if err == nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		return res, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// cappedBuffer keeps the first limit bytes written and counts the rest
type cappedBuffer struct {
	limit int
	buf   bytes.Buffer
	total int64
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

// Write reports the full length as written so the child never sees a
// short-write error once the cap is reached.
func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.total += int64(n)
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
		}
		b.buf.Write(p)
	}
	return n, nil
}

func (b *cappedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *cappedBuffer) Truncated() bool {
	return b.total > int64(b.limit)
}
