// Package editor implements the graph-editing controller: it owns the
// element model, disambiguates pointer interactions, draws links, gates
// everything on the deployment lock, and autosaves through the host.
package editor

// Mode represents how clicks are routed.
type Mode int

const (
	ModeEdit Mode = iota // clicks mutate the topology
	ModeView             // clicks open read-only inspectors
)

// String returns the mode name for display.
func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "EDIT"
	case ModeView:
		return "VIEW"
	default:
		return "UNKNOWN"
	}
}

// Pointer is the cursor affordance the surface should show.
type Pointer int

const (
	PointerDefault Pointer = iota
	PointerLocked
)
