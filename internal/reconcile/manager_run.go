package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// Start launches the periodic pass loop and hooks connectivity transitions.
// An offline-to-online flip triggers an immediate pass.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("reconcile manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.monitor.OnTransition(func(online bool) {
		if !online {
			return
		}
		// Transition callbacks arrive on the monitor's goroutine; joining the
		// WaitGroup under the lock lets Stop wait out an in-flight pass
		// instead of racing it to the store.
		m.mu.Lock()
		if !m.running {
			m.mu.Unlock()
			return
		}
		m.wg.Add(1)
		m.mu.Unlock()
		defer m.wg.Done()

		m.runPass(runCtx, TriggerTransition)
	})

	go m.tickLoop(runCtx)

	m.logger.Info("reconcile manager started",
		logging.String(logging.FieldEventType, "reconcile_started"),
		logging.Duration("interval", m.interval),
	)
	return nil
}

// Stop terminates the pass loop and waits for it to exit. An in-flight pass
// runs to completion over its snapshot.
func (m *Manager) Stop() {
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
	m.wg.Wait()

	m.logger.Info("reconcile manager stopped",
		logging.String(logging.FieldEventType, "reconcile_stopped"),
	)
}

// RunNow triggers one reconciliation pass on demand and returns its summary.
// When a pass is already running the trigger is coalesced: a zero summary
// comes back and no store mutation is attributable to the caller.
func (m *Manager) RunNow(ctx context.Context) Summary {
	return m.runPass(ctx, TriggerManual)
}

func (m *Manager) tickLoop(ctx context.Context) {
	defer m.wg.Done()

	// The ticker keeps firing while offline; those ticks hit the offline
	// fast path and touch nothing.
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runPass(ctx, TriggerTimer)
		}
	}
}

// runPass executes the reconciliation algorithm. Entry is guarded by an
// atomic check-and-set so racing timer, transition, and manual triggers
// collapse to a single pass.
func (m *Manager) runPass(ctx context.Context, trigger Trigger) Summary {
	if !m.passGate.CompareAndSwap(false, true) {
		m.logger.Debug("pass already running, trigger dropped",
			logging.String(logging.FieldEventType, "sync_coalesced"),
			logging.String(logging.FieldTrigger, string(trigger)),
		)
		return Summary{}
	}
	defer m.passGate.Store(false)

	summary := Summary{
		PassID:  uuid.NewString(),
		Trigger: trigger,
	}
	started := time.Now()
	logger := m.logger.With(
		logging.String(logging.FieldPassID, summary.PassID),
		logging.String(logging.FieldTrigger, string(trigger)),
	)

	if !m.monitor.IsOnline() {
		summary.Duration = time.Since(started)
		logger.Debug("offline, nothing attempted",
			logging.String(logging.FieldEventType, "sync_skipped_offline"),
		)
		m.finishPass(summary)
		return summary
	}

	// Snapshot: captures enqueued mid-pass wait for the next pass, keeping
	// a single pass bounded even when captures arrive faster than uploads.
	snapshot, err := m.store.List(ctx)
	if err != nil {
		summary.Duration = time.Since(started)
		logger.Error("failed to snapshot capture queue",
			logging.Error(err),
			logging.String(logging.FieldEventType, "sync_snapshot_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		m.finishPass(summary)
		return summary
	}
	summary.Total = len(snapshot)

	for _, capture := range snapshot {
		select {
		case <-ctx.Done():
			// Remaining captures stay queued; abandoning them is the same
			// as not having reached them yet.
			summary.Duration = time.Since(started)
			m.finishPass(summary)
			return summary
		default:
		}

		if m.deliverOne(ctx, logger, capture) {
			summary.Synced++
		} else {
			summary.Failed++
		}
	}

	summary.Duration = time.Since(started)
	logger.Info("reconciliation pass complete",
		logging.String(logging.FieldEventType, "sync_pass_complete"),
		logging.Int("synced", summary.Synced),
		logging.Int("failed", summary.Failed),
		logging.Int("total", summary.Total),
		logging.Duration("duration", summary.Duration),
	)
	m.finishPass(summary)
	return summary
}

// deliverOne attempts one capture and records the outcome in the store.
// Failures are absorbed: the capture stays queued with a bumped retry count
// and surfaces only through the pass counters.
func (m *Manager) deliverOne(ctx context.Context, logger *slog.Logger, capture *queue.Capture) bool {
	receipt, err := m.client.Deliver(ctx, capture)
	if err != nil {
		logger.Debug("capture delivery failed",
			logging.Error(err),
			logging.Int64(logging.FieldCaptureID, capture.ID),
			logging.String(logging.FieldEventType, "capture_delivery_failed"),
		)
		if retryErr := m.store.IncrementRetry(ctx, capture.ID); retryErr != nil {
			// Left as-is for the next pass; the retry counter just lags by one.
			logger.Warn("failed to record retry",
				logging.Error(retryErr),
				logging.Int64(logging.FieldCaptureID, capture.ID),
				logging.String(logging.FieldEventType, "retry_record_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		return false
	}

	if _, err := m.store.Remove(ctx, capture.ID); err != nil {
		// Delivered but not removed: the capture will be re-sent next pass.
		// At-least-once delivery makes this safe on the remote side.
		logger.Warn("failed to remove delivered capture",
			logging.Error(err),
			logging.Int64(logging.FieldCaptureID, capture.ID),
			logging.String(logging.FieldEventType, "capture_remove_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		return false
	}

	logger.Debug("capture delivered",
		logging.Int64(logging.FieldCaptureID, capture.ID),
		logging.String("analysis_id", receipt.AnalysisID),
		logging.String(logging.FieldEventType, "capture_delivered"),
	)
	return true
}

func (m *Manager) finishPass(summary Summary) {
	m.mu.Lock()
	recorded := summary
	m.lastSummary = &recorded
	hooks := make([]SummaryHook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(summary)
	}
}
