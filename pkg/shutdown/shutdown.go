// Package shutdown coordinates graceful teardown for serve mode. Resources
// register teardown functions as they start and the manager runs them in
// reverse order once a termination signal arrives.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wasmact/wasmact/pkg/logging"
)

// Manager runs registered teardown functions in LIFO order.
type Manager struct {
	funcs   []func(context.Context) error
	mu      sync.Mutex
	timeout time.Duration
	done    chan struct{}
	once    sync.Once
	log     *logging.Logger
}

// New creates a shutdown manager. The timeout bounds the total time all
// teardown functions may take together.
func New(timeout time.Duration, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewLogger(logging.INFO, false)
	}
	return &Manager{
		funcs:   make([]func(context.Context) error, 0),
		timeout: timeout,
		done:    make(chan struct{}),
		log:     log,
	}
}

// Register adds a teardown function. Functions run in reverse
// registration order, so register dependencies before dependents.
func (m *Manager) Register(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, fn)
}

// Wait blocks until SIGINT or SIGTERM, marks shutdown as initiated and
// returns the signal that was received.
func (m *Manager) Wait() os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	m.log.Info("received shutdown signal", map[string]interface{}{
		"signal": sig.String(),
	})
	m.initiate()
	return sig
}

// Done returns a channel that is closed once shutdown has been initiated.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) initiate() {
	m.once.Do(func() {
		close(m.done)
	})
}

// Shutdown runs every registered teardown function in LIFO order. Errors
// are logged and do not stop the remaining functions from running.
func (m *Manager) Shutdown() {
	m.initiate()

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	for i := len(m.funcs) - 1; i >= 0; i-- {
		if err := m.funcs[i](ctx); err != nil {
			m.log.Error("teardown step failed", map[string]interface{}{
				"step":  i,
				"error": err.Error(),
			})
		}
	}

	m.log.Info("graceful shutdown complete")
}

// StopHTTPServer wraps an http.Server style Shutdown method as a
// teardown function.
func StopHTTPServer(server interface{ Shutdown(context.Context) error }, name string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop %s server: %w", name, err)
		}
		return nil
	}
}
