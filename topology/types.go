// Package topology contains the in-memory element model for a containerlab
// topology: nodes, links, nested groups and free-text annotations.
package topology

import (
	"github.com/go-playground/validator/v10"
)

// Role classifies what an element in the graph represents.
type Role string

const (
	RoleNode       Role = "regular"    // a lab node (container)
	RoleGroup      Role = "group"      // a bounding container owning children
	RoleDummyChild Role = "dummyChild" // synthetic child keeping an empty group visible
	RoleFreeText   Role = "freeText"   // free-floating annotation
	RoleTextbox    Role = "textbox"    // styled text box annotation
)

// Position is a 2D coordinate on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the typed attribute record carried by a node. It is used for
// display and inspection only; the editor never derives behavior from it
// beyond kind-based endpoint naming. Fields the schema does not know about
// are preserved in Extra so a round-trip never drops them.
type NodeData struct {
	Kind     string            `json:"kind,omitempty" validate:"omitempty,max=64"`
	Image    string            `json:"image,omitempty" validate:"omitempty,max=256"`
	MgmtIPv4 string            `json:"mgmtIpv4Address,omitempty" validate:"omitempty,ip4_addr"`
	MgmtIPv6 string            `json:"mgmtIpv6Address,omitempty" validate:"omitempty,ip6_addr"`
	State    string            `json:"state,omitempty" validate:"omitempty,oneof=deployed undeployed unknown"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Node is a vertex in the topology graph. A node with Role == RoleGroup acts
// as a container; Parent, when set, names the group this node is nested in.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label,omitempty"`
	Role     Role     `json:"role"`
	Parent   string   `json:"parent,omitempty"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Classes  []string `json:"classes,omitempty"`

	// FromEditor marks nodes created interactively in this editor, as
	// opposed to ones loaded from the persisted document.
	FromEditor bool `json:"editor,omitempty"`
}

// IsGroupRole reports whether the node is a group by role alone. Whether a
// node acts as a group also depends on it having children; see Model.IsGroup.
func (n Node) IsGroupRole() bool {
	return n.Role == RoleGroup
}

// IsAnnotation reports whether the node is a non-topology annotation.
func (n Node) IsAnnotation() bool {
	return n.Role == RoleFreeText || n.Role == RoleTextbox
}

// Edge is a link between two nodes. Source and Target must resolve to
// existing nodes at all times; removing a node removes its edges.
type Edge struct {
	ID             string   `json:"id"`
	Source         string   `json:"source"`
	Target         string   `json:"target"`
	SourceEndpoint string   `json:"sourceEndpoint,omitempty"`
	TargetEndpoint string   `json:"targetEndpoint,omitempty"`
	FromEditor     bool     `json:"editor,omitempty"` // drawn interactively, not loaded
	Classes        []string `json:"classes,omitempty"`
}

// Touches reports whether the edge has the given node as either endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

var validate = validator.New()

// ValidateNodeData checks the typed attribute record against its schema.
func ValidateNodeData(d NodeData) error {
	return validate.Struct(d)
}
