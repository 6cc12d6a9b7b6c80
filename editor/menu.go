package editor

import (
	"github.com/kaelemc/clabedit/topology"
)

// MenuItem is one context-menu entry. Do runs on the controller goroutine.
type MenuItem struct {
	Label string
	Do    func() error
}

// MenuFor selects the context menu for an element by role predicate. The
// returned slice is empty when no menu applies (unknown id, or the element's
// mutations are gated by mode/lock state). Menu construction never panics
// out: a broken entry for one element must not take the rest of the UI down,
// so the recover stays local to this dispatcher.
func (e *Editor) MenuFor(elementID string) (items []MenuItem) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("menu construction failed", "element", elementID, "panic", r)
			items = nil
		}
	}()

	if edge, ok := e.model.Edge(elementID); ok {
		return e.edgeMenu(edge)
	}
	n, ok := e.model.Node(elementID)
	if !ok {
		return nil
	}

	switch {
	case n.IsAnnotation():
		return e.freeTextMenu(n)
	case e.model.IsGroup(n.ID) || n.Role == topology.RoleDummyChild:
		return e.groupMenu(n)
	default:
		return e.nodeMenu(n)
	}
}

// freeTextMenu applies in both modes. While the lab is deployed annotations
// are inspection-only: the menu degrades to a read-only entry.
func (e *Editor) freeTextMenu(n topology.Node) []MenuItem {
	if e.lock.Locked() {
		return []MenuItem{
			{Label: "Show text", Do: func() error { e.surface.ShowText(n); return nil }},
		}
	}
	return []MenuItem{
		{Label: "Edit text", Do: func() error { e.surface.EditText(n); return nil }},
		{Label: "Remove text", Do: func() error {
			if err := e.model.RemoveNode(n.ID); err != nil {
				return err
			}
			e.recordHistory()
			return nil
		}},
	}
}

// nodeMenu applies to plain nodes in edit mode only.
func (e *Editor) nodeMenu(n topology.Node) []MenuItem {
	if e.mode != ModeEdit || e.lock.Locked() {
		return nil
	}
	return []MenuItem{
		{Label: "Edit node", Do: func() error { e.surface.EditNode(n); return nil }},
		{Label: "Delete node", Do: func() error { return e.deleteNodeFromMenu(n.ID) }},
		{Label: "Add link", Do: func() error { return e.draw.Start(n.ID) }},
	}
}

// groupMenu applies to groups and their dummyChild placeholder in edit mode.
// A dummyChild is normalized to its owning group before dispatch.
func (e *Editor) groupMenu(n topology.Node) []MenuItem {
	if e.mode != ModeEdit || e.lock.Locked() {
		return nil
	}
	groupID := n.ID
	if n.Role == topology.RoleDummyChild && n.Parent != "" {
		groupID = n.Parent
	}
	return []MenuItem{
		{Label: "Edit group", Do: func() error {
			if g, ok := e.model.Node(groupID); ok {
				e.surface.EditGroup(g)
			}
			return nil
		}},
		{Label: "Delete group", Do: func() error {
			if err := e.model.RemoveGroup(groupID); err != nil {
				return err
			}
			e.recordHistory()
			return nil
		}},
	}
}

// edgeMenu applies in edit mode only.
func (e *Editor) edgeMenu(edge topology.Edge) []MenuItem {
	if e.mode != ModeEdit || e.lock.Locked() {
		return nil
	}
	return []MenuItem{
		{Label: "Edit link", Do: func() error { e.surface.EditLink(edge); return nil }},
		{Label: "Delete link", Do: func() error {
			if err := e.model.RemoveEdge(edge.ID); err != nil {
				return err
			}
			e.recordHistory()
			return nil
		}},
	}
}

// deleteNodeFromMenu removes a node and, when that leaves its parent group
// childless, removes the group too.
func (e *Editor) deleteNodeFromMenu(nodeID string) error {
	n, ok := e.model.Node(nodeID)
	if !ok {
		return nil
	}
	parent := n.Parent
	if err := e.model.RemoveNode(nodeID); err != nil {
		return err
	}
	if parent != "" {
		if _, ok := e.model.Node(parent); ok && len(e.model.Children(parent)) == 0 {
			if err := e.model.RemoveGroup(parent); err != nil {
				e.log.Debug("childless group cleanup failed", "group", parent, "error", err)
			}
		}
	}
	e.recordHistory()
	return nil
}
