package editor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kaelemc/clabedit/topology"
)

// fakeSurface records every call the controller makes.
type fakeSurface struct {
	dragEnabled   []bool
	drawEnabled   []bool
	menusEnabled  []bool
	pointers      []Pointer
	nodePanels    []topology.Node
	groupPanels   []topology.Node
	groupChildren [][]topology.Node
	linkPanels    []topology.Edge
	recolored     map[string]bool
	closed        int
	cleared       int
	refreshed     int
	editedNodes   []topology.Node
	editedGroups  []topology.Node
	editedLinks   []topology.Edge
	editedTexts   []topology.Node
	shownTexts    []topology.Node
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{recolored: make(map[string]bool)}
}

func (s *fakeSurface) SetDraggingEnabled(v bool) { s.dragEnabled = append(s.dragEnabled, v) }
func (s *fakeSurface) SetEdgeDrawEnabled(v bool) { s.drawEnabled = append(s.drawEnabled, v) }
func (s *fakeSurface) SetMenusEnabled(v bool)    { s.menusEnabled = append(s.menusEnabled, v) }
func (s *fakeSurface) SetPointer(p Pointer)      { s.pointers = append(s.pointers, p) }
func (s *fakeSurface) ShowNodeInspector(n topology.Node) {
	s.nodePanels = append(s.nodePanels, n)
}
func (s *fakeSurface) ShowGroupInspector(g topology.Node, children []topology.Node) {
	s.groupPanels = append(s.groupPanels, g)
	s.groupChildren = append(s.groupChildren, children)
}
func (s *fakeSurface) ShowLinkInspector(e topology.Edge) { s.linkPanels = append(s.linkPanels, e) }
func (s *fakeSurface) CloseInspectors()                  { s.closed++ }
func (s *fakeSurface) ClearSelection()                   { s.cleared++ }
func (s *fakeSurface) RecolorEdge(id string, fromEditor bool) {
	s.recolored[id] = fromEditor
}
func (s *fakeSurface) EditNode(n topology.Node)  { s.editedNodes = append(s.editedNodes, n) }
func (s *fakeSurface) EditGroup(n topology.Node) { s.editedGroups = append(s.editedGroups, n) }
func (s *fakeSurface) EditLink(e topology.Edge)  { s.editedLinks = append(s.editedLinks, e) }
func (s *fakeSurface) EditText(n topology.Node)  { s.editedTexts = append(s.editedTexts, n) }
func (s *fakeSurface) ShowText(n topology.Node)  { s.shownTexts = append(s.shownTexts, n) }
func (s *fakeSurface) Refresh()                  { s.refreshed++ }

// fakeSaver records save requests; completion is driven manually so tests
// can hold a save in flight.
type fakeSaver struct {
	requests []saveRequest
	pending  []func(error)
	auto     bool // complete each request immediately
}

type saveRequest struct {
	snap     topology.Snapshot
	suppress bool
}

func (s *fakeSaver) RequestSave(snap topology.Snapshot, suppress bool, done func(error)) {
	s.requests = append(s.requests, saveRequest{snap: snap, suppress: suppress})
	if s.auto {
		done(nil)
		return
	}
	s.pending = append(s.pending, done)
}

// completeNext finishes the oldest in-flight save.
func (s *fakeSaver) completeNext(err error) bool {
	if len(s.pending) == 0 {
		return false
	}
	done := s.pending[0]
	s.pending = s.pending[1:]
	done(err)
	return true
}

type testHarness struct {
	editor  *Editor
	surface *fakeSurface
	saver   *fakeSaver
	clock   *VirtualClock
}

const (
	testQuiet = 800 * time.Millisecond
	testGrace = 300 * time.Millisecond
)

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	surface := newFakeSurface()
	saver := &fakeSaver{auto: true}
	clock := NewVirtualClock()
	ed, err := New(Options{
		Surface:          surface,
		Scheduler:        clock,
		Saver:            saver,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		EndpointPatterns: map[string]string{"nokia_srlinux": "e1-{n}"},
		QuietPeriod:      testQuiet,
		GracePeriod:      testGrace,
		HistoryDepth:     20,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &testHarness{editor: ed, surface: surface, saver: saver, clock: clock}
}

// seedTopology loads two routers and a group into the harness model without
// dirtying autosave, mirroring an initial document load.
func (h *testHarness) seedTopology(t *testing.T) {
	t.Helper()
	m := topology.NewModel()
	mustAdd := func(n topology.Node) {
		t.Helper()
		if err := m.AddNode(n); err != nil {
			t.Fatalf("seed AddNode(%s): %v", n.ID, err)
		}
	}
	mustAdd(topology.Node{ID: "srl1", Role: topology.RoleNode, Data: topology.NodeData{Kind: "nokia_srlinux"}})
	mustAdd(topology.Node{ID: "srl2", Role: topology.RoleNode, Data: topology.NodeData{Kind: "nokia_srlinux"}})
	mustAdd(topology.Node{ID: "dc1", Role: topology.RoleGroup})
	mustAdd(topology.Node{ID: "note1", Role: topology.RoleFreeText, Label: "spine layer"})
	h.editor.Reload(m.Snapshot())
}
