package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc tears one component down. It must respect ctx; the manager
// abandons hooks that outlive the shutdown window.
type StopFunc func(ctx context.Context) error

type teardown struct {
	name string
	stop StopFunc
}

// Manager owns the shutdown order of the process. Components register in
// startup order and are stopped in reverse, so the store queue drains before
// the stores behind it close.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	teardowns []teardown
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a component to the teardown list. A nil stop func is ignored.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns = append(m.teardowns, teardown{name: name, stop: stop})
}

// Shutdown stops every registered component in reverse registration order.
// A failing component is logged and skipped; the rest still get their turn.
// Returns the joined errors, if any.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	list := make([]teardown, len(m.teardowns))
	copy(list, m.teardowns)
	m.mu.Unlock()

	var result error
	for i := len(list) - 1; i >= 0; i-- {
		td := list[i]
		if err := td.stop(ctx); err != nil {
			m.logger.Error("component teardown failed", zap.String("component", td.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", td.name))
	}
	return result
}

// Listen invokes cancel once SIGTERM or SIGINT arrives. Non-blocking.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("termination signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
