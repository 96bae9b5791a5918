package logging

// Standardized attribute keys shared across components so log lines stay
// greppable regardless of which subsystem emitted them.
const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldCaptureID identifies a queued capture.
	FieldCaptureID = "capture_id"
	// FieldPassID identifies a reconciliation pass.
	FieldPassID = "pass_id"
	// FieldTrigger records what started a pass (timer, transition, manual).
	FieldTrigger = "trigger"
	// FieldEventType tags machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next diagnostic step for a failure.
	FieldErrorHint = "error_hint"
)
