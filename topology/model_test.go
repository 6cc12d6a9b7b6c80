package topology

import (
	"testing"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel()
	nodes := []Node{
		{ID: "srl1", Role: RoleNode, Data: NodeData{Kind: "nokia_srlinux"}},
		{ID: "srl2", Role: RoleNode, Data: NodeData{Kind: "nokia_srlinux"}},
		{ID: "ceos1", Role: RoleNode, Data: NodeData{Kind: "ceos"}},
	}
	for _, n := range nodes {
		if err := m.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s) failed: %v", n.ID, err)
		}
	}
	return m
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	m := newTestModel(t)
	if err := m.AddNode(Node{ID: "srl1", Role: RoleNode}); err == nil {
		t.Error("expected duplicate id to be rejected")
	}
}

func TestAddEdgeRequiresBothEndpoints(t *testing.T) {
	m := newTestModel(t)
	if _, err := m.AddEdge(Edge{Source: "srl1", Target: "ghost"}); err == nil {
		t.Error("expected edge to missing target to be rejected")
	}
	if _, err := m.AddEdge(Edge{Source: "ghost", Target: "srl1"}); err == nil {
		t.Error("expected edge from missing source to be rejected")
	}
}

func TestEdgeIDDerivedAndStable(t *testing.T) {
	m := newTestModel(t)
	e1, err := m.AddEdge(Edge{Source: "srl1", Target: "srl2"})
	if err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if e1.ID != "srl1--srl2" {
		t.Errorf("expected derived id srl1--srl2, got %q", e1.ID)
	}

	// A parallel edge between the same pair gets a distinct id.
	e2, err := m.AddEdge(Edge{Source: "srl1", Target: "srl2"})
	if err != nil {
		t.Fatalf("AddEdge (parallel) failed: %v", err)
	}
	if e2.ID == e1.ID {
		t.Errorf("parallel edge reused id %q", e2.ID)
	}

	// The id stays put when endpoint attributes change.
	if err := m.SetEdgeEndpoints(e1.ID, "eth5", "eth6"); err != nil {
		t.Fatalf("SetEdgeEndpoints failed: %v", err)
	}
	got, ok := m.Edge(e1.ID)
	if !ok || got.SourceEndpoint != "eth5" {
		t.Errorf("edge lost after endpoint update: %+v ok=%v", got, ok)
	}
}

func TestRemoveNodeRemovesIncidentEdges(t *testing.T) {
	m := newTestModel(t)
	m.AddEdge(Edge{Source: "srl1", Target: "srl2"})
	m.AddEdge(Edge{Source: "srl2", Target: "ceos1"})
	m.AddEdge(Edge{Source: "srl1", Target: "ceos1"})

	if err := m.RemoveNode("srl2"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}

	for _, e := range m.Edges() {
		if e.Touches("srl2") {
			t.Errorf("dangling edge %q survived node removal", e.ID)
		}
		if _, ok := m.Node(e.Source); !ok {
			t.Errorf("edge %q has missing source %q", e.ID, e.Source)
		}
		if _, ok := m.Node(e.Target); !ok {
			t.Errorf("edge %q has missing target %q", e.ID, e.Target)
		}
	}
	if len(m.Edges()) != 1 {
		t.Errorf("expected 1 surviving edge, got %d", len(m.Edges()))
	}
}

func TestGroupDeletionCascade(t *testing.T) {
	m := newTestModel(t)
	if err := m.AddNode(Node{ID: "dc1", Role: RoleGroup}); err != nil {
		t.Fatalf("AddNode group failed: %v", err)
	}
	if err := m.AddNode(Node{ID: "dc1:dummy", Role: RoleDummyChild, Parent: "dc1"}); err != nil {
		t.Fatalf("AddNode dummy failed: %v", err)
	}
	if err := m.SetParent("srl1", "dc1"); err != nil {
		t.Fatalf("SetParent failed: %v", err)
	}
	if err := m.SetParent("srl2", "dc1"); err != nil {
		t.Fatalf("SetParent failed: %v", err)
	}

	if err := m.RemoveGroup("dc1"); err != nil {
		t.Fatalf("RemoveGroup failed: %v", err)
	}

	for _, id := range []string{"srl1", "srl2"} {
		n, ok := m.Node(id)
		if !ok {
			t.Fatalf("child %q was deleted with its group", id)
		}
		if n.Parent != "" {
			t.Errorf("child %q still parented to %q", id, n.Parent)
		}
	}
	if _, ok := m.Node("dc1:dummy"); ok {
		t.Error("dummyChild survived group deletion")
	}
	if _, ok := m.Node("dc1"); ok {
		t.Error("group survived its own deletion")
	}
}

func TestSetParentRejectsCycles(t *testing.T) {
	m := NewModel()
	for _, id := range []string{"outer", "mid", "inner"} {
		if err := m.AddNode(Node{ID: id, Role: RoleGroup}); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	if err := m.SetParent("mid", "outer"); err != nil {
		t.Fatalf("SetParent mid->outer failed: %v", err)
	}
	if err := m.SetParent("inner", "mid"); err != nil {
		t.Fatalf("SetParent inner->mid failed: %v", err)
	}

	if err := m.SetParent("outer", "outer"); err == nil {
		t.Error("self-parent was accepted")
	}
	if err := m.SetParent("outer", "inner"); err == nil {
		t.Error("ancestor cycle was accepted")
	}
}

func TestSetParentRequiresGroupRole(t *testing.T) {
	m := newTestModel(t)
	if err := m.SetParent("srl1", "srl2"); err == nil {
		t.Error("non-group parent was accepted")
	}
}

func TestOrphanRemovesOnlyParentRelation(t *testing.T) {
	m := newTestModel(t)
	m.AddNode(Node{ID: "dc1", Role: RoleGroup})
	m.SetParent("srl1", "dc1")
	m.AddEdge(Edge{Source: "srl1", Target: "srl2"})

	former := m.Orphan("srl1")
	if former != "dc1" {
		t.Errorf("expected former parent dc1, got %q", former)
	}
	n, _ := m.Node("srl1")
	if n.Parent != "" {
		t.Errorf("node still parented to %q", n.Parent)
	}
	if len(m.EdgesOf("srl1")) != 1 {
		t.Error("orphaning touched the node's edges")
	}
}

func TestMutationsArriveInOrder(t *testing.T) {
	m := newTestModel(t)
	var got []Mutation
	m.SetObserver(func(mu Mutation) { got = append(got, mu) })

	m.AddEdge(Edge{Source: "srl1", Target: "srl2"})
	m.MoveNode("srl1", Position{X: 10, Y: 20})
	m.RemoveNode("srl1")

	want := []Mutation{
		{MutationAdd, "srl1--srl2"},
		{MutationMove, "srl1"},
		{MutationRemove, "srl1--srl2"}, // cascade runs before the node removal event
		{MutationRemove, "srl1"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d mutations, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mutation %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := newTestModel(t)
	m.AddEdge(Edge{Source: "srl1", Target: "srl2", SourceEndpoint: "eth1", TargetEndpoint: "eth1", FromEditor: true})
	snap := m.Snapshot()

	m.RemoveNode("srl1")
	m.AddNode(Node{ID: "extra", Role: RoleNode})

	m.Restore(snap)
	if len(m.Nodes()) != 3 || len(m.Edges()) != 1 {
		t.Fatalf("restore mismatch: %d nodes, %d edges", len(m.Nodes()), len(m.Edges()))
	}
	e, ok := m.Edge("srl1--srl2")
	if !ok || !e.FromEditor || e.SourceEndpoint != "eth1" {
		t.Errorf("restored edge lost attributes: %+v ok=%v", e, ok)
	}
	if _, ok := m.Node("extra"); ok {
		t.Error("restore kept a node added after the snapshot")
	}
}

func TestValidateNodeDataRejectsBadAddress(t *testing.T) {
	m := NewModel()
	err := m.AddNode(Node{ID: "bad", Role: RoleNode, Data: NodeData{MgmtIPv4: "not-an-ip"}})
	if err == nil {
		t.Error("expected malformed management address to be rejected")
	}
}
