package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestEnqueueAssignsIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	capture, err := store.Enqueue(ctx, queue.NewCapture{
		FileName: "ridge.jpg",
		Payload:  []byte("jpeg-bytes"),
		Location: queue.Location{
			Latitude:  testsupport.FloatPtr(47.6097),
			Longitude: testsupport.FloatPtr(-122.3331),
			AccuracyM: testsupport.FloatPtr(8),
		},
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if capture.ID == 0 {
		t.Fatal("expected capture ID to be assigned")
	}
	if capture.RetryCount != 0 {
		t.Fatalf("expected zero retry count, got %d", capture.RetryCount)
	}
	if capture.CreatedAt.IsZero() {
		t.Fatal("expected created time to be set")
	}
	if time.Since(capture.CreatedAt) > time.Minute {
		t.Fatalf("created time too far in the past: %v", capture.CreatedAt)
	}

	fetched, err := store.GetByID(ctx, capture.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.FileName != "ridge.jpg" {
		t.Fatalf("unexpected fetched capture: %#v", fetched)
	}
	if fetched.Location.Latitude == nil || *fetched.Location.Latitude != 47.6097 {
		t.Fatalf("latitude not round-tripped: %#v", fetched.Location)
	}
	if fetched.Location.AccuracyM == nil || *fetched.Location.AccuracyM != 8 {
		t.Fatalf("accuracy not round-tripped: %#v", fetched.Location)
	}
}

func TestEnqueueRequiresFileNameAndPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.Enqueue(ctx, queue.NewCapture{FileName: "", Payload: []byte("x")}); err == nil {
		t.Fatal("expected error when file name missing")
	}
	if _, err := store.Enqueue(ctx, queue.NewCapture{FileName: "a.jpg"}); err == nil {
		t.Fatal("expected error when payload empty")
	}
}

func TestMissingLocationStaysAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	capture := testsupport.EnqueueCapture(t, store, "nofix.jpg", []byte("x"))

	fetched, err := store.GetByID(context.Background(), capture.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Location.HasFix() {
		t.Fatalf("expected absent location, got %#v", fetched.Location)
	}
	if fetched.Location.Latitude != nil || fetched.Location.Longitude != nil || fetched.Location.AccuracyM != nil {
		t.Fatalf("expected nil location fields, got %#v", fetched.Location)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	names := []string{"first.jpg", "second.jpg", "third.jpg"}
	for _, name := range names {
		testsupport.EnqueueCapture(t, store, name, []byte(name))
	}

	captures, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(captures) != len(names) {
		t.Fatalf("expected %d captures, got %d", len(names), len(captures))
	}
	for i, name := range names {
		if captures[i].FileName != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, captures[i].FileName)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	capture := testsupport.EnqueueCapture(t, store, "gone.jpg", []byte("x"))

	removed, err := store.Remove(ctx, capture.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected first remove to delete a row")
	}

	removed, err = store.Remove(ctx, capture.ID)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to be a no-op")
	}
}

func TestIdentifiersNeverReused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.EnqueueCapture(t, store, "one.jpg", []byte("x"))
	if _, err := store.Remove(ctx, first.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	second := testsupport.EnqueueCapture(t, store, "two.jpg", []byte("y"))
	if second.ID <= first.ID {
		t.Fatalf("expected fresh identifier after removal, got %d after %d", second.ID, first.ID)
	}
}

func TestIncrementRetryIsMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	capture := testsupport.EnqueueCapture(t, store, "retry.jpg", []byte("x"))

	for i := 1; i <= 3; i++ {
		if err := store.IncrementRetry(ctx, capture.ID); err != nil {
			t.Fatalf("IncrementRetry failed: %v", err)
		}
		fetched, err := store.GetByID(ctx, capture.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.RetryCount != i {
			t.Fatalf("expected retry count %d, got %d", i, fetched.RetryCount)
		}
	}
}

func TestIncrementRetryMissingIDIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.IncrementRetry(context.Background(), 9999); err != nil {
		t.Fatalf("expected no-op for missing id, got %v", err)
	}
}

func TestCountAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		testsupport.EnqueueCapture(t, store, fmt.Sprintf("c-%d.jpg", i), []byte("x"))
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 queued captures, got %d", count)
	}

	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cleared != 4 {
		t.Fatalf("expected 4 captures cleared, got %d", cleared)
	}

	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count after clear failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty queue, got %d", count)
	}
}

func TestSubscribeObservesPendingChanges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var observed []int
	cancel := store.Subscribe(func(pending int) {
		observed = append(observed, pending)
	})

	capture := testsupport.EnqueueCapture(t, store, "watched.jpg", []byte("x"))
	if _, err := store.Remove(ctx, capture.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if len(observed) != 2 || observed[0] != 1 || observed[1] != 0 {
		t.Fatalf("expected pending observations [1 0], got %v", observed)
	}

	cancel()
	testsupport.EnqueueCapture(t, store, "unwatched.jpg", []byte("x"))
	if len(observed) != 2 {
		t.Fatalf("expected no observations after cancel, got %v", observed)
	}
}

func TestCheckHealthReportsPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.EnqueueCapture(t, store, "health.jpg", []byte("x"))

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %#v", health)
	}
	if !health.IntegrityCheck {
		t.Fatalf("expected integrity check to pass: %#v", health)
	}
	if health.PendingCaptures != 1 {
		t.Fatalf("expected 1 pending capture, got %d", health.PendingCaptures)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.EnqueueCapture(t, store, "durable.jpg", []byte("x"))
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected capture to survive reopen, got %d", count)
	}
}
