package surface

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kaelemc/clabedit/editor"
)

// commandEvent carries a function posted from another goroutine into the
// event loop, which is the only goroutine allowed to touch the model.
type commandEvent struct {
	tcell.EventTime
	fn func()
}

// Post schedules fn on the event-loop goroutine. The autosave timer, the
// save-completion callback and the file watcher all reach the model through
// here.
func (t *TUI) Post(fn func()) {
	ev := &commandEvent{fn: fn}
	ev.SetEventTime(time.Now())
	t.screen.PostEventWait(ev)
}

// Run is the event loop. It blocks until the user quits and leaves
// persistence to the controller: a final Flush runs before returning.
func (t *TUI) Run() error {
	t.Refresh()
	for {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
			t.Refresh()

		case *tcell.EventKey:
			if t.handleKey(ev) {
				t.ed.Flush()
				return nil
			}

		case *tcell.EventMouse:
			t.handleMouse(ev)

		case *commandEvent:
			ev.fn()
			t.Refresh()

		case nil:
			return nil
		}
	}
}

// handleKey returns true when the session should end.
func (t *TUI) handleKey(ev *tcell.EventKey) bool {
	if t.menu != nil && ev.Key() == tcell.KeyEscape {
		t.menu = nil
		t.Refresh()
		return false
	}

	switch {
	case ev.Key() == tcell.KeyCtrlC:
		return true
	case ev.Key() == tcell.KeyCtrlS:
		t.ed.SaveNow()
		t.setStatus("saved")
	case ev.Key() == tcell.KeyTab:
		if t.ed.Mode() == editor.ModeEdit {
			t.ed.SetMode(editor.ModeView)
		} else {
			t.ed.SetMode(editor.ModeEdit)
		}
		t.Refresh()
	case ev.Rune() == 'q':
		return true
	case ev.Rune() == 'u':
		if !t.ed.Undo() {
			t.setStatus("nothing to undo")
		} else {
			t.Refresh()
		}
	case ev.Rune() == 'r':
		if !t.ed.Redo() {
			t.setStatus("nothing to redo")
		} else {
			t.Refresh()
		}
	case ev.Key() == tcell.KeyEscape:
		t.ed.HandleClick(editor.Input{Target: editor.TargetCanvas})
	}
	return false
}

func (t *TUI) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()

	// An open menu swallows the next click.
	if t.menu != nil {
		if buttons&tcell.Button1 != 0 {
			t.clickMenu(x, y)
		}
		return
	}

	switch {
	case buttons&tcell.Button1 != 0:
		t.pressPrimary(x, y, ev.Modifiers())
	case buttons&tcell.Button2 != 0:
		t.openContextMenu(x, y)
	case buttons == tcell.ButtonNone:
		t.releasePrimary(x, y)
	}
}

// pressPrimary handles the left button. A plain press on a node arms a
// drag, but the controller only hears about it on the first motion event;
// press-and-release in place stays an ordinary click.
func (t *TUI) pressPrimary(x, y int, mods tcell.ModMask) {
	hit, ok := t.hitAt(x, y)

	if t.dragID != "" {
		// Motion with the button held.
		if !t.dragLive {
			t.dragLive = true
			t.ed.BeginDrag(t.dragID)
		}
		t.ed.Drag(t.dragID, toModel(x, y))
		t.Refresh()
		return
	}

	if ok && hit.kind == hitNode && mods == 0 && t.draggingEnabled && !t.ed.EdgeDraw().Active() {
		if n, exists := t.ed.Model().Node(hit.id); exists && !n.IsGroupRole() {
			t.dragID = hit.id
			return
		}
	}

	t.ed.HandleClick(t.inputFor(hit, ok, x, y, mods))
	t.Refresh()
}

func (t *TUI) releasePrimary(x, y int) {
	if t.dragID == "" {
		return
	}
	id := t.dragID
	live := t.dragLive
	t.dragID = ""
	t.dragLive = false

	if live {
		t.ed.EndDrag(id, toModel(x, y))
	} else if hit, ok := t.hitAt(x, y); ok {
		// Press and release in place: a plain click, not a drag.
		t.ed.HandleClick(t.inputFor(hit, true, x, y, 0))
	}
	t.Refresh()
}

// inputFor builds the controller's click descriptor from a hit region.
func (t *TUI) inputFor(hit hitRegion, ok bool, x, y int, mods tcell.ModMask) editor.Input {
	in := editor.Input{
		Target:   editor.TargetCanvas,
		Mods:     translateMods(mods),
		Position: toModel(x, y),
	}
	if !ok {
		return in
	}
	in.ID = hit.id
	if hit.kind == hitEdge {
		in.Target = editor.TargetEdge
		if e, exists := t.ed.Model().Edge(hit.id); exists {
			in.FromEditor = e.FromEditor
		}
		return in
	}
	in.Target = editor.TargetNode
	if n, exists := t.ed.Model().Node(hit.id); exists {
		in.Role = n.Role
		in.HasParent = n.Parent != ""
		in.IsGroup = t.ed.Model().IsGroup(n.ID)
		in.FromEditor = n.FromEditor
	}
	return in
}

func translateMods(mods tcell.ModMask) editor.Modifier {
	var out editor.Modifier
	if mods&tcell.ModShift != 0 {
		out |= editor.ModShift
	}
	if mods&tcell.ModCtrl != 0 {
		out |= editor.ModCtrl
	}
	if mods&tcell.ModAlt != 0 {
		out |= editor.ModAlt
	}
	return out
}

// openContextMenu asks the dispatcher for entries; it already strips
// mutation items while the lab is deployed, so inspection-only menus (the
// free-text one) keep working under the lock.
func (t *TUI) openContextMenu(x, y int) {
	hit, ok := t.hitAt(x, y)
	if !ok {
		return
	}
	items := t.ed.MenuFor(hit.id)
	if len(items) == 0 {
		return
	}
	t.menu = &menuState{items: items, x: x, y: y}
	t.Refresh()
}

func (t *TUI) clickMenu(x, y int) {
	m := t.menu
	t.menu = nil
	idx := y - m.y
	if x < m.x || idx < 0 || idx >= len(m.items) {
		t.Refresh()
		return
	}
	if err := m.items[idx].Do(); err != nil {
		t.log.Warn("menu action failed", "label", m.items[idx].Label, "error", err)
		t.setStatus(m.items[idx].Label + ": " + err.Error())
		return
	}
	t.Refresh()
}
