package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kaelemc/clabedit/topology"
)

// Saver is the external persistence collaborator. RequestSave is
// fire-and-continue: it must eventually call done exactly once with the
// outcome, and must not block. Calling done synchronously is allowed.
type Saver interface {
	RequestSave(snap topology.Snapshot, suppressNotify bool, done func(error))
}

// Autosave coalesces model mutations into save requests. The debounce is
// trailing-edge: every mutation inside the quiet period pushes the save
// out again. Saves are serialized — a request arriving while one is in
// flight queues exactly one follow-up save behind it, so the document
// never sees two writers racing on the same snapshot.
type Autosave struct {
	mu sync.Mutex

	sched    Scheduler
	quiet    time.Duration
	saver    Saver
	snapshot func() topology.Snapshot
	run      func(func())
	log      *slog.Logger

	cancelTimer  func()
	inFlight     bool
	queued       bool
	queuedNotify bool // a queued explicit save still notifies when it runs
}

// NewAutosave creates the coordinator. snapshot is called at dispatch time
// so a save always writes the latest model state; because the model belongs
// to a single goroutine, every dispatch that a timer or a save-completion
// callback triggers is handed to run, which must execute it on that
// goroutine. A nil run calls inline.
func NewAutosave(sched Scheduler, quiet time.Duration, saver Saver, snapshot func() topology.Snapshot, run func(func()), log *slog.Logger) *Autosave {
	if run == nil {
		run = func(fn func()) { fn() }
	}
	if log == nil {
		log = slog.Default()
	}
	return &Autosave{
		sched:    sched,
		quiet:    quiet,
		saver:    saver,
		snapshot: snapshot,
		run:      run,
		log:      log,
	}
}

// NoteMutation records that the model changed and (re)starts the quiet
// period. The eventual save is an autosave: user notification suppressed.
func (a *Autosave) NoteMutation() {
	a.mu.Lock()
	if a.cancelTimer != nil {
		a.cancelTimer()
	}
	a.cancelTimer = a.sched.Schedule(a.quiet, func() {
		a.mu.Lock()
		a.cancelTimer = nil
		a.mu.Unlock()
		// The wall-clock scheduler fires on its own goroutine; the snapshot
		// inside dispatch must happen on the model's goroutine.
		a.run(func() { a.dispatch(true) })
	})
	a.mu.Unlock()
}

// SaveNow performs an explicit user-invoked save: no debounce, and the
// host is asked to notify the user.
func (a *Autosave) SaveNow() {
	a.mu.Lock()
	if a.cancelTimer != nil {
		a.cancelTimer()
		a.cancelTimer = nil
	}
	a.mu.Unlock()
	a.dispatch(false)
}

// Flush dispatches any pending debounced save immediately. Used on teardown.
func (a *Autosave) Flush() {
	a.mu.Lock()
	pending := a.cancelTimer != nil
	if pending {
		a.cancelTimer()
		a.cancelTimer = nil
	}
	a.mu.Unlock()
	if pending {
		a.dispatch(true)
	}
}

// dispatch issues a save, or queues it behind the one already in flight.
// RequestSave is invoked outside the lock so a collaborator completing
// synchronously cannot deadlock the coordinator.
func (a *Autosave) dispatch(suppressNotify bool) {
	a.mu.Lock()
	if a.inFlight {
		a.queued = true
		if !suppressNotify {
			a.queuedNotify = true
		}
		a.mu.Unlock()
		return
	}
	a.inFlight = true
	a.mu.Unlock()

	a.saver.RequestSave(a.snapshot(), suppressNotify, a.onDone)
}

func (a *Autosave) onDone(err error) {
	if err != nil {
		// Best effort: report and carry on, never panic into the event path.
		a.log.Warn("save request failed", "error", err)
	}
	a.mu.Lock()
	a.inFlight = false
	rerun := a.queued
	notify := a.queuedNotify
	a.queued = false
	a.queuedNotify = false
	a.mu.Unlock()

	if rerun {
		// done arrives on the saver's goroutine; requeue on the model's.
		a.run(func() { a.dispatch(!notify) })
	}
}
