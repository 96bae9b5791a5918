// Package queue persists deferred capture uploads in SQLite and exposes the
// operations the reconciliation engine needs to drain them.
//
// The Store is the only component with durable state. A capture row exists
// exactly while its upload is unacknowledged: Enqueue creates it, a failed
// delivery bumps retry_count, and a confirmed delivery removes it. There is
// no retained "done" state and identifiers are never reused (AUTOINCREMENT).
//
// Subscribe provides a pending-count-changed signal so status surfaces can
// track queue depth without polling.
//
// Treat this package as the single source of truth for queue semantics; when
// the row shape changes, update schema.sql and bump schemaVersion.
package queue
