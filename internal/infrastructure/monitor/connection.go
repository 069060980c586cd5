package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atdgo/backend/repository/bolt"
)

// Pinger is the health probe for whichever remote store is configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function into a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Monitor periodically probes the remote backend and the local file store.
// The fallback store consults IsOnline to decide which side serves a request.
type Monitor struct {
	remote Pinger
	local  *bolt.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(remote Pinger, local *bolt.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		remote:   remote,
		local:    local,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

// IsOnline reports whether the remote backend answered its last probe.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Remote
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	localOK, localKeys := m.checkLocal()
	status := Status{
		Remote:    m.checkRemote(),
		Local:     localOK,
		LocalKeys: localKeys,
		LastCheck: time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if prev.LastCheck.IsZero() {
		return
	}
	if prev.Remote && !status.Remote {
		m.logger.Warn("remote backend went offline")
	}
	if !prev.Remote && status.Remote {
		m.logger.Info("remote backend back online")
	}
}

func (m *Monitor) checkRemote() bool {
	if m.remote == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.remote.Ping(ctx) == nil
}

func (m *Monitor) checkLocal() (bool, int) {
	if m.local == nil {
		return false, 0
	}
	n, err := m.local.Len()
	if err != nil {
		m.logger.Warn("local store check failed", zap.Error(err))
		return false, n
	}
	return true, n
}
