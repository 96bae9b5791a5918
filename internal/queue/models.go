package queue

import "time"

// Location carries optional GPS metadata. Each field is independently
// nullable: a device may report a fix with no accuracy estimate, or
// nothing at all.
type Location struct {
	Latitude  *float64
	Longitude *float64
	AccuracyM *float64
}

// HasFix reports whether any location field is present.
func (l Location) HasFix() bool {
	return l.Latitude != nil || l.Longitude != nil || l.AccuracyM != nil
}

// NewCapture describes a capture before the store assigns its identity.
type NewCapture struct {
	FileName string
	Payload  []byte
	Location Location
}

// Capture is a queued unit of deferred upload work persisted in SQLite.
// Its presence in the store means the remote service has not acknowledged
// it; there is no retained "done" state.
type Capture struct {
	ID         int64
	FileName   string
	Payload    []byte
	Location   Location
	CreatedAt  time.Time
	RetryCount int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	PendingCaptures  int
	Error            string
}
