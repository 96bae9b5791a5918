package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/uploader"
)

// Summary reports the outcome of one reconciliation pass over a snapshot of
// queued captures.
type Summary struct {
	PassID   string
	Trigger  Trigger
	Synced   int
	Failed   int
	Total    int
	Duration time.Duration
}

// Trigger names what started a pass.
type Trigger string

const (
	TriggerTimer      Trigger = "timer"
	TriggerTransition Trigger = "transition"
	TriggerManual     Trigger = "manual"
)

// SummaryHook receives the summary of every completed pass. Hooks replace ad
// hoc status printing: a UI or telemetry layer subscribes instead of polling.
type SummaryHook func(Summary)

// Manager drives reconciliation passes over the capture queue. At most one
// pass executes at a time regardless of how triggers race; a losing trigger
// is dropped, not queued.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	client   uploader.Client
	monitor  connectivity.Monitor
	logger   *slog.Logger
	interval time.Duration

	passGate atomic.Bool

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	hooks       []SummaryHook
	lastSummary *Summary
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithSummaryHook registers a hook invoked after every completed pass.
func WithSummaryHook(hook SummaryHook) Option {
	return func(m *Manager) {
		if hook != nil {
			m.hooks = append(m.hooks, hook)
		}
	}
}

// WithInterval overrides the periodic pass interval (used in tests).
func WithInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// NewManager constructs a reconciliation manager.
func NewManager(cfg *config.Config, store *queue.Store, client uploader.Client, monitor connectivity.Monitor, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		store:    store,
		client:   client,
		monitor:  monitor,
		logger:   logging.NewComponentLogger(logger, "reconcile"),
		interval: time.Duration(cfg.Sync.Interval) * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
