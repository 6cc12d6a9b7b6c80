package editor

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kaelemc/clabedit/topology"
)

func newAutosaveUnderTest(saver *fakeSaver) (*Autosave, *VirtualClock) {
	clock := NewVirtualClock()
	snap := func() topology.Snapshot { return topology.Snapshot{} }
	a := NewAutosave(clock, testQuiet, saver, snap, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return a, clock
}

func TestDebounceCoalescesBurstIntoOneSave(t *testing.T) {
	saver := &fakeSaver{auto: true}
	a, clock := newAutosaveUnderTest(saver)

	// Five mutations inside the quiet period.
	for i := 0; i < 5; i++ {
		a.NoteMutation()
		clock.Advance(100 * time.Millisecond)
	}
	if len(saver.requests) != 0 {
		t.Fatalf("save fired before the quiet period elapsed: %d", len(saver.requests))
	}

	clock.Advance(testQuiet)
	if len(saver.requests) != 1 {
		t.Fatalf("expected exactly 1 save after quiet period, got %d", len(saver.requests))
	}

	// A sixth mutation after the quiet period produces a second save.
	a.NoteMutation()
	clock.Advance(testQuiet)
	if len(saver.requests) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(saver.requests))
	}
}

func TestDebounceIsTrailingEdge(t *testing.T) {
	saver := &fakeSaver{auto: true}
	a, clock := newAutosaveUnderTest(saver)

	a.NoteMutation()
	clock.Advance(testQuiet - time.Millisecond)
	if len(saver.requests) != 0 {
		t.Fatal("leading-edge save observed")
	}
	// The late mutation resets the window.
	a.NoteMutation()
	clock.Advance(testQuiet - time.Millisecond)
	if len(saver.requests) != 0 {
		t.Fatal("timer was not reset by the second mutation")
	}
	clock.Advance(time.Millisecond)
	if len(saver.requests) != 1 {
		t.Fatalf("expected 1 trailing save, got %d", len(saver.requests))
	}
}

func TestAutosaveSuppressesNotification(t *testing.T) {
	saver := &fakeSaver{auto: true}
	a, clock := newAutosaveUnderTest(saver)

	a.NoteMutation()
	clock.Advance(testQuiet)
	if !saver.requests[0].suppress {
		t.Error("autosave must request notification suppression")
	}

	a.SaveNow()
	if saver.requests[1].suppress {
		t.Error("explicit save must notify")
	}
}

func TestSavesAreSerialized(t *testing.T) {
	saver := &fakeSaver{} // manual completion
	a, clock := newAutosaveUnderTest(saver)

	a.NoteMutation()
	clock.Advance(testQuiet)
	if len(saver.requests) != 1 || len(saver.pending) != 1 {
		t.Fatalf("expected 1 in-flight save, got %d/%d", len(saver.requests), len(saver.pending))
	}

	// Two more timer firings while the first save is still in flight.
	a.NoteMutation()
	clock.Advance(testQuiet)
	a.NoteMutation()
	clock.Advance(testQuiet)
	if len(saver.requests) != 1 {
		t.Fatalf("second save started before the first completed: %d", len(saver.requests))
	}

	// Completing the first dispatches exactly one queued follow-up.
	saver.completeNext(nil)
	if len(saver.requests) != 2 {
		t.Fatalf("expected queued save after completion, got %d", len(saver.requests))
	}
	saver.completeNext(nil)
	if len(saver.requests) != 2 {
		t.Fatalf("phantom save dispatched: %d", len(saver.requests))
	}
}

func TestQueuedExplicitSaveKeepsNotification(t *testing.T) {
	saver := &fakeSaver{}
	a, clock := newAutosaveUnderTest(saver)

	a.NoteMutation()
	clock.Advance(testQuiet) // in flight, suppressed
	a.SaveNow()              // queued behind it

	saver.completeNext(nil)
	if len(saver.requests) != 2 {
		t.Fatalf("expected queued explicit save, got %d", len(saver.requests))
	}
	if saver.requests[1].suppress {
		t.Error("queued explicit save lost its notification")
	}
}

func TestSaveFailureDoesNotWedgeCoordinator(t *testing.T) {
	saver := &fakeSaver{}
	a, clock := newAutosaveUnderTest(saver)

	a.NoteMutation()
	clock.Advance(testQuiet)
	saver.completeNext(errors.New("disk full"))

	// The coordinator keeps working after a rejection.
	a.NoteMutation()
	clock.Advance(testQuiet)
	if len(saver.requests) != 2 {
		t.Fatalf("coordinator wedged after failed save: %d", len(saver.requests))
	}
}

// The model belongs to one goroutine; a timer firing elsewhere must not
// snapshot it directly. Dispatch (and with it the snapshot call) has to go
// through the runner, so production wiring can funnel it onto the event loop.
func TestTimerDispatchGoesThroughRunner(t *testing.T) {
	saver := &fakeSaver{auto: true}
	clock := NewVirtualClock()
	snapshots := 0
	snap := func() topology.Snapshot { snapshots++; return topology.Snapshot{} }
	var posted []func()
	run := func(fn func()) { posted = append(posted, fn) }
	a := NewAutosave(clock, testQuiet, saver, snap, run, slog.New(slog.NewTextHandler(io.Discard, nil)))

	a.NoteMutation()
	clock.Advance(testQuiet)
	if snapshots != 0 || len(saver.requests) != 0 {
		t.Fatalf("timer touched the model off the runner: %d snapshots, %d saves", snapshots, len(saver.requests))
	}
	if len(posted) != 1 {
		t.Fatalf("expected 1 posted dispatch, got %d", len(posted))
	}

	posted[0]()
	if snapshots != 1 || len(saver.requests) != 1 {
		t.Fatalf("posted dispatch did not save: %d snapshots, %d saves", snapshots, len(saver.requests))
	}
}

// A queued follow-up save is released by the saver's done callback, which
// also arrives on a foreign goroutine; it must requeue through the runner too.
func TestQueuedRerunGoesThroughRunner(t *testing.T) {
	saver := &fakeSaver{}
	clock := NewVirtualClock()
	var posted []func()
	run := func(fn func()) { posted = append(posted, fn) }
	a := NewAutosave(clock, testQuiet, saver, func() topology.Snapshot { return topology.Snapshot{} }, run, slog.New(slog.NewTextHandler(io.Discard, nil)))

	a.NoteMutation()
	clock.Advance(testQuiet)
	require := func(cond bool, format string, args ...any) {
		if !cond {
			t.Fatalf(format, args...)
		}
	}
	require(len(posted) == 1, "timer dispatch not posted")
	posted[0]() // first save now in flight
	require(len(saver.pending) == 1, "no in-flight save")

	a.SaveNow() // queued behind it
	saver.completeNext(nil)
	require(len(saver.requests) == 1, "rerun dispatched off the runner")
	require(len(posted) == 2, "rerun not posted to the runner")

	posted[1]()
	require(len(saver.requests) == 2, "posted rerun did not save")
	require(!saver.requests[1].suppress, "queued explicit save lost its notification")
}

func TestFlushDispatchesPendingSave(t *testing.T) {
	saver := &fakeSaver{auto: true}
	a, clock := newAutosaveUnderTest(saver)

	a.NoteMutation()
	a.Flush()
	if len(saver.requests) != 1 {
		t.Fatalf("expected flushed save, got %d", len(saver.requests))
	}
	// Nothing left on the timer.
	clock.Advance(10 * testQuiet)
	if len(saver.requests) != 1 {
		t.Fatalf("flush left a timer behind: %d", len(saver.requests))
	}
}
