// Package reconcile drives sync passes over the capture queue.
//
// A pass snapshots the queue, attempts each capture sequentially through the
// upload client, removes confirmed deliveries, and bumps the retry counter
// on failures. At most one pass runs at a time: timer ticks, connectivity
// transitions, and manual triggers that race an active pass are dropped
// silently. A pass never fails as a whole; per-item failures are absorbed
// and counted in the Summary.
package reconcile
