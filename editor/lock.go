package editor

import (
	"log/slog"
)

// lockMachine tracks whether the underlying lab is deployed. Deployment
// state only ever changes on an external deployment-state-changed
// notification, never by local inference.
type lockMachine struct {
	locked  bool
	surface Surface
	draw    *EdgeDraw
	log     *slog.Logger
}

// Locked reports the current state.
func (l *lockMachine) Locked() bool {
	return l.locked
}

// Apply transitions the machine. Re-delivering the current state is a no-op:
// side effects run only on an actual transition, so listeners and
// restrictions are never applied twice. Returns whether a transition
// happened.
func (l *lockMachine) Apply(locked bool) bool {
	if locked == l.locked {
		l.log.Debug("deployment state redelivered", "locked", locked)
		return false
	}
	l.locked = locked
	if locked {
		l.restrict()
	} else {
		l.release()
	}
	return true
}

// restrict applies the Locked side effects: no dragging, no edge drawing,
// no mutation menus, locked pointer. Inspection-only affordances (including
// the free-text menu's read-only entry) stay available.
func (l *lockMachine) restrict() {
	l.log.Info("lab deployed, locking editor")
	l.surface.SetDraggingEnabled(false)
	l.draw.SetEnabled(false)
	l.surface.SetEdgeDrawEnabled(false)
	l.surface.SetMenusEnabled(false)
	l.surface.SetPointer(PointerLocked)
}

// release undoes restrict.
func (l *lockMachine) release() {
	l.log.Info("lab undeployed, unlocking editor")
	l.surface.SetDraggingEnabled(true)
	l.draw.SetEnabled(true)
	l.surface.SetEdgeDrawEnabled(true)
	l.surface.SetMenusEnabled(true)
	l.surface.SetPointer(PointerDefault)
}
