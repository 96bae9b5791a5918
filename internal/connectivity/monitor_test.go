package connectivity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/testsupport"
)

func TestCheckNowTracksHealthEndpoint(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEndpoint(server.URL))
	monitor := connectivity.NewProbeMonitor(cfg, logging.NewNop())

	ctx := context.Background()
	if monitor.IsOnline() {
		t.Fatal("expected initial state to be offline")
	}
	if monitor.CheckNow(ctx) {
		t.Fatal("expected offline while health endpoint fails")
	}

	healthy.Store(true)
	if !monitor.CheckNow(ctx) {
		t.Fatal("expected online after health endpoint recovers")
	}
	if !monitor.IsOnline() {
		t.Fatal("expected IsOnline to reflect last probe")
	}

	healthy.Store(false)
	if monitor.CheckNow(ctx) {
		t.Fatal("expected offline after health endpoint degrades")
	}
}

func TestTransitionCallbacksFireOnFlipsOnly(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEndpoint(server.URL))
	monitor := connectivity.NewProbeMonitor(cfg, logging.NewNop())

	var (
		mu          sync.Mutex
		transitions []bool
	)
	monitor.OnTransition(func(online bool) {
		mu.Lock()
		transitions = append(transitions, online)
		mu.Unlock()
	})

	ctx := context.Background()
	monitor.CheckNow(ctx) // offline, no flip from initial state
	healthy.Store(true)
	monitor.CheckNow(ctx) // flip to online
	monitor.CheckNow(ctx) // still online, no flip
	healthy.Store(false)
	monitor.CheckNow(ctx) // flip to offline

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || transitions[0] != true || transitions[1] != false {
		t.Fatalf("expected transitions [true false], got %v", transitions)
	}
}

func TestUnreachableEndpointReadsAsOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEndpoint("http://127.0.0.1:1"))
	monitor := connectivity.NewProbeMonitor(cfg, logging.NewNop())

	if monitor.CheckNow(context.Background()) {
		t.Fatal("expected unreachable endpoint to read as offline")
	}
}
