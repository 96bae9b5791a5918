package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// Monitor tracks network reachability of the remote service and reports
// transitions. It never fails: an indeterminate state is reported as
// offline, favoring deferral over a doomed network call.
type Monitor interface {
	// IsOnline is a best-effort instantaneous read of current reachability.
	IsOnline() bool
	// OnTransition registers a callback invoked on every true reachability
	// flip, in either direction. All registered callbacks are invoked;
	// repeated identical states are never reported.
	OnTransition(callback func(online bool))
	// CheckNow forces an immediate probe and returns the resulting state.
	CheckNow(ctx context.Context) bool
	Start(ctx context.Context) error
	Stop()
}

// ProbeMonitor decides reachability by periodically probing the remote
// service's health endpoint. Any transport error or non-2xx response counts
// as offline.
type ProbeMonitor struct {
	healthURL     string
	probeInterval time.Duration
	probeTimeout  time.Duration
	logger        *slog.Logger
	http          *http.Client

	online atomic.Bool

	mu        sync.Mutex
	callbacks []func(online bool)
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	netlink   *netlinkWatcher
}

// ProbeOption customizes a ProbeMonitor.
type ProbeOption func(*ProbeMonitor)

// WithProbeHTTPClient overrides the HTTP client used for probes.
func WithProbeHTTPClient(client *http.Client) ProbeOption {
	return func(m *ProbeMonitor) {
		if client != nil {
			m.http = client
		}
	}
}

// NewProbeMonitor constructs a monitor probing the configured health URL.
// The initial state is offline until the first successful probe.
func NewProbeMonitor(cfg *config.Config, logger *slog.Logger, opts ...ProbeOption) *ProbeMonitor {
	probeTimeout := time.Duration(cfg.Sync.ProbeTimeout) * time.Second
	monitor := &ProbeMonitor{
		healthURL:     cfg.HealthURL(),
		probeInterval: time.Duration(cfg.Sync.ProbeInterval) * time.Second,
		probeTimeout:  probeTimeout,
		logger:        logging.NewComponentLogger(logger, "connectivity"),
		http:          &http.Client{Timeout: probeTimeout},
	}
	if cfg.Sync.NetlinkEvents {
		monitor.netlink = newNetlinkWatcher(monitor.logger, func(ctx context.Context) {
			monitor.CheckNow(ctx)
		})
	}
	for _, opt := range opts {
		opt(monitor)
	}
	return monitor
}

// IsOnline reports the reachability decided by the most recent probe.
func (m *ProbeMonitor) IsOnline() bool {
	return m.online.Load()
}

// OnTransition registers a reachability flip callback.
func (m *ProbeMonitor) OnTransition(callback func(online bool)) {
	if callback == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Start launches the periodic probe loop and, when enabled, the netlink
// interface watcher. An initial probe runs before Start returns so callers
// observe a settled state.
func (m *ProbeMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.CheckNow(runCtx)

	go m.probeLoop(runCtx)

	if m.netlink != nil {
		m.netlink.Start(runCtx)
	}

	m.logger.Info("connectivity monitor started",
		logging.String(logging.FieldEventType, "connectivity_monitor_started"),
		logging.String("health_url", m.healthURL),
	)
	return nil
}

// Stop terminates probing and waits for the loop to exit.
func (m *ProbeMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	if m.netlink != nil {
		m.netlink.Stop()
	}
	m.wg.Wait()

	m.logger.Info("connectivity monitor stopped",
		logging.String(logging.FieldEventType, "connectivity_monitor_stopped"),
	)
}

// CheckNow probes the health endpoint once and records the outcome,
// notifying transition callbacks when the state flips.
func (m *ProbeMonitor) CheckNow(ctx context.Context) bool {
	online := m.probe(ctx)
	previous := m.online.Swap(online)
	if previous != online {
		m.logger.Info("reachability changed",
			logging.String(logging.FieldEventType, "connectivity_transition"),
			logging.Bool("online", online),
		)
		m.notifyTransition(online)
	}
	return online
}

func (m *ProbeMonitor) probeLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

func (m *ProbeMonitor) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, m.healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (m *ProbeMonitor) notifyTransition(online bool) {
	m.mu.Lock()
	callbacks := make([]func(online bool), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(online)
	}
}
