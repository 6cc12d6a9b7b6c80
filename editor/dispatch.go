package editor

import (
	"github.com/kaelemc/clabedit/topology"
)

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
)

// Target identifies what kind of element a pointer event landed on.
type Target int

const (
	TargetCanvas Target = iota // empty canvas, no element under the pointer
	TargetNode
	TargetEdge
)

// Action is what the disambiguator decided a raw pointer event means.
type Action int

const (
	ActionNone Action = iota
	ActionOrphanNode
	ActionBeginEdgeDraw
	ActionDeleteNode
	ActionCreateNode
	ActionDeleteEdge
	ActionOpenNodeInspector
	ActionOpenGroupInspector
	ActionOpenLinkInspector
	ActionClosePanels
)

// String returns the action name for logging.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionOrphanNode:
		return "orphan-node"
	case ActionBeginEdgeDraw:
		return "begin-edge-draw"
	case ActionDeleteNode:
		return "delete-node"
	case ActionCreateNode:
		return "create-node"
	case ActionDeleteEdge:
		return "delete-edge"
	case ActionOpenNodeInspector:
		return "open-node-inspector"
	case ActionOpenGroupInspector:
		return "open-group-inspector"
	case ActionOpenLinkInspector:
		return "open-link-inspector"
	case ActionClosePanels:
		return "close-panels"
	default:
		return "unknown"
	}
}

// Input is a raw pointer event reduced to the facts dispatch cares about.
type Input struct {
	ID         string // element id when Target != TargetCanvas
	Target     Target
	Mods       Modifier
	Role       topology.Role // node role when Target == TargetNode
	HasParent  bool          // node currently nested in a group
	IsGroup    bool          // group role or has children
	FromEditor bool          // element provenance (interactively created)
	Position   topology.Position
}

// dispatchRule is one row of the interaction dispatch table. Rows are
// evaluated top to bottom; the first match wins.
type dispatchRule struct {
	mode   Mode
	target Target
	mods   Modifier
	match  func(Input) bool // extra per-row condition, nil for always
	action Action
}

// dispatchTable is the complete interaction table, in priority order.
var dispatchTable = []dispatchRule{
	// Edit mode.
	{ModeEdit, TargetNode, ModCtrl, func(in Input) bool { return in.HasParent }, ActionOrphanNode},
	{ModeEdit, TargetNode, ModShift, func(in Input) bool { return in.Role != topology.RoleFreeText && in.Role != topology.RoleTextbox }, ActionBeginEdgeDraw},
	{ModeEdit, TargetNode, ModAlt, func(in Input) bool { return in.FromEditor }, ActionDeleteNode},
	{ModeEdit, TargetCanvas, ModShift, nil, ActionCreateNode},
	{ModeEdit, TargetEdge, ModAlt, nil, ActionDeleteEdge},

	// View mode.
	{ModeView, TargetNode, ModNone, func(in Input) bool { return in.IsGroup }, ActionOpenGroupInspector},
	{ModeView, TargetNode, ModNone, func(in Input) bool {
		return in.Role != topology.RoleFreeText && in.Role != topology.RoleTextbox && in.Role != topology.RoleDummyChild
	}, ActionOpenNodeInspector},
	{ModeView, TargetEdge, ModNone, nil, ActionOpenLinkInspector},
	{ModeView, TargetCanvas, ModNone, nil, ActionClosePanels},
}

// mutating reports whether an action changes the model.
func (a Action) mutating() bool {
	switch a {
	case ActionOrphanNode, ActionBeginEdgeDraw, ActionDeleteNode, ActionCreateNode, ActionDeleteEdge:
		return true
	default:
		return false
	}
}

// Classify maps a raw pointer event to an action given the current mode and
// lock state. It is a pure function: all interaction disambiguation lives in
// the table above so it can be tested exhaustively without a UI harness.
// Mutating actions while locked resolve to ActionNone.
func Classify(in Input, mode Mode, locked bool) Action {
	for _, rule := range dispatchTable {
		if rule.mode != mode || rule.target != in.Target {
			continue
		}
		if rule.mods != in.Mods {
			continue
		}
		if rule.match != nil && !rule.match(in) {
			continue
		}
		if locked && rule.action.mutating() {
			return ActionNone
		}
		return rule.action
	}
	return ActionNone
}
