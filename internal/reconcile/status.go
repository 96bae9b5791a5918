package reconcile

import "context"

// Status describes the manager's runtime state for status surfaces.
type Status struct {
	Running     bool
	Pending     int
	LastSummary *Summary
}

// Status returns the current engine state and queue depth.
func (m *Manager) Status(ctx context.Context) Status {
	m.mu.Lock()
	running := m.running
	var last *Summary
	if m.lastSummary != nil {
		copied := *m.lastSummary
		last = &copied
	}
	m.mu.Unlock()

	status := Status{Running: running, LastSummary: last}
	if count, err := m.store.Count(ctx); err == nil {
		status.Pending = count
	}
	return status
}
