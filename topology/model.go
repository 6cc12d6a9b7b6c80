package topology

import (
	"fmt"
	"sort"
)

// MutationKind labels a change made to the model.
type MutationKind int

const (
	MutationAdd MutationKind = iota
	MutationRemove
	MutationData
	MutationMove
)

// String returns the mutation kind for logging.
func (k MutationKind) String() string {
	switch k {
	case MutationAdd:
		return "add"
	case MutationRemove:
		return "remove"
	case MutationData:
		return "data"
	case MutationMove:
		return "move"
	default:
		return "unknown"
	}
}

// Mutation describes a single change to the model, delivered to the
// registered observer in arrival order.
type Mutation struct {
	Kind MutationKind
	ID   string
}

// Model is the canonical in-memory graph. It is owned by the editing
// controller and must only be mutated from the controller's goroutine;
// every external change request is funneled through the same methods
// interactive edits use, so the observer sees a uniform stream.
type Model struct {
	nodes map[string]*Node
	edges map[string]*Edge

	nodeOrder []string // insertion order, for deterministic iteration
	edgeOrder []string

	observer func(Mutation)
}

// NewModel creates an empty element model.
func NewModel() *Model {
	return &Model{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// SetObserver registers the single mutation observer. Passing nil detaches it.
func (m *Model) SetObserver(fn func(Mutation)) {
	m.observer = fn
}

func (m *Model) notify(kind MutationKind, id string) {
	if m.observer != nil {
		m.observer(Mutation{Kind: kind, ID: id})
	}
}

// Node returns a copy of the node with the given id.
func (m *Model) Node(id string) (Node, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge returns a copy of the edge with the given id.
func (m *Model) Edge(id string) (Edge, bool) {
	e, ok := m.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Nodes returns all nodes in insertion order.
func (m *Model) Nodes() []Node {
	out := make([]Node, 0, len(m.nodeOrder))
	for _, id := range m.nodeOrder {
		out = append(out, *m.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (m *Model) Edges() []Edge {
	out := make([]Edge, 0, len(m.edgeOrder))
	for _, id := range m.edgeOrder {
		out = append(out, *m.edges[id])
	}
	return out
}

// EdgesOf returns every edge touching the given node.
func (m *Model) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for _, id := range m.edgeOrder {
		if e := m.edges[id]; e.Touches(nodeID) {
			out = append(out, *e)
		}
	}
	return out
}

// Children returns the ids of all nodes parented to the given group,
// sorted for determinism.
func (m *Model) Children(groupID string) []string {
	var out []string
	for _, id := range m.nodeOrder {
		if m.nodes[id].Parent == groupID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// IsGroup reports whether the node acts as a group: it either carries the
// group role or has children parented to it.
func (m *Model) IsGroup(id string) bool {
	n, ok := m.nodes[id]
	if !ok {
		return false
	}
	if n.Role == RoleGroup {
		return true
	}
	for _, other := range m.nodes {
		if other.Parent == id {
			return true
		}
	}
	return false
}

// AddNode inserts a node. The id must be unique and the attribute record
// must pass schema validation. A parent set on the incoming node is applied
// through the same acyclicity check as SetParent.
func (m *Model) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("add node: empty id")
	}
	if _, exists := m.nodes[n.ID]; exists {
		return fmt.Errorf("add node %q: id already in use", n.ID)
	}
	if err := ValidateNodeData(n.Data); err != nil {
		return fmt.Errorf("add node %q: %w", n.ID, err)
	}
	parent := n.Parent
	n.Parent = ""
	stored := n
	m.nodes[n.ID] = &stored
	m.nodeOrder = append(m.nodeOrder, n.ID)
	m.notify(MutationAdd, n.ID)
	if parent != "" {
		if err := m.SetParent(n.ID, parent); err != nil {
			return err
		}
	}
	return nil
}

// SetParent assigns a parent group to a node. The parent must exist, must be
// a group-role node, and the assignment must not create a cycle: a node can
// never become its own ancestor.
func (m *Model) SetParent(id, parentID string) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("set parent: node %q not found", id)
	}
	p, ok := m.nodes[parentID]
	if !ok {
		return fmt.Errorf("set parent: group %q not found", parentID)
	}
	if p.Role != RoleGroup {
		return fmt.Errorf("set parent: node %q is not a group", parentID)
	}
	if id == parentID || m.isAncestor(id, parentID) {
		return fmt.Errorf("set parent: %q -> %q would create a cycle", id, parentID)
	}
	if n.Parent == parentID {
		return nil
	}
	n.Parent = parentID
	m.notify(MutationData, id)
	return nil
}

// isAncestor reports whether candidate appears on the parent chain above id.
// Walks at most len(nodes) steps, so a corrupt chain cannot loop forever.
func (m *Model) isAncestor(candidate, id string) bool {
	seen := 0
	for cur := id; cur != "" && seen <= len(m.nodes); seen++ {
		n, ok := m.nodes[cur]
		if !ok {
			return false
		}
		if n.Parent == candidate {
			return true
		}
		cur = n.Parent
	}
	return false
}

// Orphan removes the node's parent relation, leaving the node and its edges
// untouched. Returns the former parent id, or "" if the node had none.
func (m *Model) Orphan(id string) string {
	n, ok := m.nodes[id]
	if !ok || n.Parent == "" {
		return ""
	}
	former := n.Parent
	n.Parent = ""
	m.notify(MutationData, id)
	return former
}

// MoveNode updates a node's canvas position.
func (m *Model) MoveNode(id string, pos Position) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("move node: %q not found", id)
	}
	n.Position = pos
	m.notify(MutationMove, id)
	return nil
}

// SetNodeLabel updates a node's display label.
func (m *Model) SetNodeLabel(id, label string) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("set label: node %q not found", id)
	}
	n.Label = label
	m.notify(MutationData, id)
	return nil
}

// SetNodeData replaces a node's attribute record after validating it.
func (m *Model) SetNodeData(id string, d NodeData) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("set data: node %q not found", id)
	}
	if err := ValidateNodeData(d); err != nil {
		return fmt.Errorf("set data %q: %w", id, err)
	}
	n.Data = d
	m.notify(MutationData, id)
	return nil
}

// RemoveNode deletes a node and, to preserve the edge-endpoint invariant,
// every edge referencing it.
func (m *Model) RemoveNode(id string) error {
	if _, ok := m.nodes[id]; !ok {
		return fmt.Errorf("remove node: %q not found", id)
	}
	for _, e := range m.EdgesOf(id) {
		m.removeEdgeInternal(e.ID)
	}
	// Children of a removed group are unparented, never deleted.
	for _, child := range m.Children(id) {
		m.nodes[child].Parent = ""
		m.notify(MutationData, child)
	}
	m.deleteNodeEntry(id)
	m.notify(MutationRemove, id)
	return nil
}

// RemoveGroup deletes a group with cascade semantics: regular children are
// unparented and kept, the synthetic dummyChild that only exists to render
// an empty group's boundary is deleted with it.
func (m *Model) RemoveGroup(groupID string) error {
	if _, ok := m.nodes[groupID]; !ok {
		return fmt.Errorf("remove group: %q not found", groupID)
	}
	for _, child := range m.Children(groupID) {
		c := m.nodes[child]
		if c.Role == RoleDummyChild {
			for _, e := range m.EdgesOf(child) {
				m.removeEdgeInternal(e.ID)
			}
			m.deleteNodeEntry(child)
			m.notify(MutationRemove, child)
			continue
		}
		c.Parent = ""
		m.notify(MutationData, child)
	}
	for _, e := range m.EdgesOf(groupID) {
		m.removeEdgeInternal(e.ID)
	}
	m.deleteNodeEntry(groupID)
	m.notify(MutationRemove, groupID)
	return nil
}

func (m *Model) deleteNodeEntry(id string) {
	delete(m.nodes, id)
	for i, nid := range m.nodeOrder {
		if nid == id {
			m.nodeOrder = append(m.nodeOrder[:i], m.nodeOrder[i+1:]...)
			break
		}
	}
}

// AddEdge inserts an edge between two existing nodes. The id is derived from
// the endpoint pair at creation time and stays stable afterwards; parallel
// edges between the same pair get a numeric suffix.
func (m *Model) AddEdge(e Edge) (Edge, error) {
	if _, ok := m.nodes[e.Source]; !ok {
		return Edge{}, fmt.Errorf("add edge: source %q not found", e.Source)
	}
	if _, ok := m.nodes[e.Target]; !ok {
		return Edge{}, fmt.Errorf("add edge: target %q not found", e.Target)
	}
	if e.ID == "" {
		e.ID = m.deriveEdgeID(e.Source, e.Target)
	}
	if _, exists := m.edges[e.ID]; exists {
		return Edge{}, fmt.Errorf("add edge %q: id already in use", e.ID)
	}
	stored := e
	m.edges[e.ID] = &stored
	m.edgeOrder = append(m.edgeOrder, e.ID)
	m.notify(MutationAdd, e.ID)
	return e, nil
}

func (m *Model) deriveEdgeID(source, target string) string {
	base := source + "--" + target
	if _, exists := m.edges[base]; !exists {
		return base
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-%d", base, i)
		if _, exists := m.edges[id]; !exists {
			return id
		}
	}
}

// SetEdgeEndpoints updates the per-endpoint interface names of an edge.
func (m *Model) SetEdgeEndpoints(id, sourceEP, targetEP string) error {
	e, ok := m.edges[id]
	if !ok {
		return fmt.Errorf("set endpoints: edge %q not found", id)
	}
	e.SourceEndpoint = sourceEP
	e.TargetEndpoint = targetEP
	m.notify(MutationData, id)
	return nil
}

// RemoveEdge deletes an edge.
func (m *Model) RemoveEdge(id string) error {
	if _, ok := m.edges[id]; !ok {
		return fmt.Errorf("remove edge: %q not found", id)
	}
	m.removeEdgeInternal(id)
	return nil
}

func (m *Model) removeEdgeInternal(id string) {
	delete(m.edges, id)
	for i, eid := range m.edgeOrder {
		if eid == id {
			m.edgeOrder = append(m.edgeOrder[:i], m.edgeOrder[i+1:]...)
			break
		}
	}
	m.notify(MutationRemove, id)
}

// Clear empties the model without emitting per-element mutations. Used for
// bulk reloads, where the caller schedules its own follow-up.
func (m *Model) Clear() {
	m.nodes = make(map[string]*Node)
	m.edges = make(map[string]*Edge)
	m.nodeOrder = nil
	m.edgeOrder = nil
}

// Snapshot captures a deep copy of the model state for the undo history.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Nodes: make([]Node, 0, len(m.nodeOrder)),
		Edges: make([]Edge, 0, len(m.edgeOrder)),
	}
	for _, id := range m.nodeOrder {
		n := *m.nodes[id]
		n.Classes = append([]string(nil), n.Classes...)
		if n.Data.Extra != nil {
			extra := make(map[string]string, len(n.Data.Extra))
			for k, v := range n.Data.Extra {
				extra[k] = v
			}
			n.Data.Extra = extra
		}
		s.Nodes = append(s.Nodes, n)
	}
	for _, id := range m.edgeOrder {
		e := *m.edges[id]
		e.Classes = append([]string(nil), e.Classes...)
		s.Edges = append(s.Edges, e)
	}
	return s
}

// Restore replaces the model contents with a previously captured snapshot.
// A single MutationData event with an empty id is emitted so the autosave
// path observes the restore like any other mutation.
func (m *Model) Restore(s Snapshot) {
	m.Clear()
	for i := range s.Nodes {
		n := s.Nodes[i]
		m.nodes[n.ID] = &n
		m.nodeOrder = append(m.nodeOrder, n.ID)
	}
	for i := range s.Edges {
		e := s.Edges[i]
		m.edges[e.ID] = &e
		m.edgeOrder = append(m.edgeOrder, e.ID)
	}
	m.notify(MutationData, "")
}

// Snapshot is an immutable copy of the model used by the undo history.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
