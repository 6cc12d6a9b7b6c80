package editor

import (
	"github.com/kaelemc/clabedit/topology"
)

// Surface is the sandboxed rendering surface the controller drives. The
// controller never reaches into rendering internals; everything it needs
// from the UI goes through this interface, which also keeps the whole
// controller testable with a recording fake.
type Surface interface {
	// Lock-state affordances.
	SetDraggingEnabled(enabled bool)
	SetEdgeDrawEnabled(enabled bool)
	SetMenusEnabled(enabled bool)
	SetPointer(p Pointer)

	// Read-only inspector panels (view mode).
	ShowNodeInspector(n topology.Node)
	ShowGroupInspector(group topology.Node, children []topology.Node)
	ShowLinkInspector(e topology.Edge)
	CloseInspectors()
	ClearSelection()

	// RecolorEdge marks an inspected edge, distinguishing interactively
	// created links from loaded ones.
	RecolorEdge(id string, fromEditor bool)

	// Property editing panels (edit mode); these are external form widgets,
	// the controller only opens them.
	EditNode(n topology.Node)
	EditGroup(group topology.Node)
	EditLink(e topology.Edge)
	EditText(n topology.Node)
	ShowText(n topology.Node)

	// Refresh redraws the surface from the current model.
	Refresh()
}
