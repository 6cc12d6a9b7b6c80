package host

import "github.com/kaelemc/clabedit/editor"

// Bindings is the flat registry of host-invokable commands. Entries are
// bound once at startup; each forwards to the collaborator that owns the
// behavior and keeps no logic of its own. Nil entries are commands the
// current session does not support.
type Bindings struct {
	ZoomToFit      func()
	RunLayout      func(preset string)
	ExportSVG      func(path string) error
	OpenGroupPanel func(groupID string)

	Save   func()
	Undo   func()
	Redo   func()
	Reload func() error
}

// NewBindings wires the standard command set for an edit session. View-only
// affordances (zoom, layout, export, group panel) stay nil until a surface
// that implements them registers itself via the returned struct. Undo and
// reload announce themselves to the peer so it can refresh its own view.
func NewBindings(ed *editor.Editor, h *Host) *Bindings {
	return &Bindings{
		Save: ed.SaveNow,
		Undo: func() {
			if ed.Undo() {
				h.notify(MsgUndoRequested, nil)
			}
		},
		Redo: func() { ed.Redo() },
		Reload: func() error {
			h.notify(MsgReload, nil)
			return h.reload(ed)
		},
	}
}

// Invoke runs a bound command by name and reports whether it was bound.
// Commands with arguments or results are called directly on the struct.
func (b *Bindings) Invoke(name string) bool {
	var fn func()
	switch name {
	case "zoom-to-fit":
		fn = b.ZoomToFit
	case "save":
		fn = b.Save
	case "undo":
		fn = b.Undo
	case "redo":
		fn = b.Redo
	default:
		return false
	}
	if fn == nil {
		return false
	}
	fn()
	return true
}
