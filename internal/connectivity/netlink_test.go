package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"fieldsync/internal/logging"
	"fieldsync/internal/testsupport"
)

func TestBuildMatcher(t *testing.T) {
	w := newNetlinkWatcher(logging.NewNop(), nil)

	matcher := w.buildMatcher()
	if matcher == nil {
		t.Fatal("expected non-nil matcher")
	}

	accepted := []netlink.UEvent{
		{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan0"}},
		{Action: netlink.REMOVE, Env: map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan0"}},
		{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "net", "INTERFACE": "eth0"}},
		{Action: netlink.KObjAction("move"), Env: map[string]string{"SUBSYSTEM": "net", "INTERFACE": "eth0"}},
	}
	for _, event := range accepted {
		if !matcher.Evaluate(event) {
			t.Errorf("expected matcher to accept %s event for %s", event.Action, event.Env["INTERFACE"])
		}
	}

	// Other subsystems are not this watcher's business.
	blockEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "block", "DEVNAME": "/dev/sda"},
	}
	if matcher.Evaluate(blockEvent) {
		t.Error("expected matcher to reject non-net subsystem event")
	}

	bindEvent := netlink.UEvent{
		Action: netlink.KObjAction("bind"),
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "eth0"},
	}
	if matcher.Evaluate(bindEvent) {
		t.Error("expected matcher to reject bind action")
	}
}

func TestNetlinkWatcherStopStartIdempotency(t *testing.T) {
	t.Run("start on nil watcher is safe", func(t *testing.T) {
		var w *netlinkWatcher
		w.Start(context.Background()) // must not panic
	})

	t.Run("stop on nil watcher is safe", func(t *testing.T) {
		var w *netlinkWatcher
		w.Stop() // must not panic
	})

	t.Run("stop on unstarted watcher is safe", func(t *testing.T) {
		w := newNetlinkWatcher(logging.NewNop(), nil)
		w.Stop()
		w.Stop() // double stop must not panic
	})

	t.Run("start failure leaves watcher stopped", func(t *testing.T) {
		w := newNetlinkWatcher(logging.NewNop(), nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Connecting may fail without netlink privileges; either way Start
		// must not panic and repeated Start/Stop must stay consistent.
		w.Start(ctx)
		w.Start(ctx)
		w.Stop()
		w.Stop()

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.running {
			t.Error("expected watcher to be stopped")
		}
		if w.conn != nil {
			t.Error("expected netlink connection to be released")
		}
	})
}

func TestProbeMonitorWiresNetlinkWatcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEndpoint(server.URL))
	cfg.Sync.NetlinkEvents = true

	monitor := NewProbeMonitor(cfg, logging.NewNop())
	if monitor.netlink == nil {
		t.Fatal("expected netlink watcher when netlink_events is enabled")
	}

	// An interface event forces an immediate probe instead of waiting out
	// the probe interval.
	if monitor.IsOnline() {
		t.Fatal("expected initial state to be offline")
	}
	monitor.netlink.onEvent(context.Background())
	if !monitor.IsOnline() {
		t.Fatal("expected interface event to force a probe and flip online")
	}

	disabled := NewProbeMonitor(testsupport.NewConfig(t), logging.NewNop())
	if disabled.netlink != nil {
		t.Fatal("expected no netlink watcher when netlink_events is disabled")
	}
}
