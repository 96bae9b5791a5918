package testsupport

import (
	"context"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// EnqueueCapture inserts a capture for tests using the provided store.
func EnqueueCapture(t testing.TB, store *queue.Store, fileName string, payload []byte) *queue.Capture {
	t.Helper()

	capture, err := store.Enqueue(context.Background(), queue.NewCapture{
		FileName: fileName,
		Payload:  payload,
	})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return capture
}

// FloatPtr returns a pointer to the given float, for optional location fields.
func FloatPtr(v float64) *float64 {
	return &v
}
