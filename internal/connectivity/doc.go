// Package connectivity decides whether the remote analysis service is
// reachable and notifies listeners of transitions.
//
// The ProbeMonitor polls the service health endpoint; kernel net-subsystem
// uevents (when enabled) trigger an immediate re-probe. Unknown or failed
// probes count as offline so the reconciliation engine defers rather than
// attempting doomed uploads.
package connectivity
