package surface

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaelemc/clabedit/editor"
	"github.com/kaelemc/clabedit/topology"
)

type nopSaver struct{}

func (nopSaver) RequestSave(_ topology.Snapshot, _ bool, done func(error)) { done(nil) }

func newTestTUI(t *testing.T) (*TUI, *editor.Editor) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	sim.SetSize(120, 40)

	tui := NewWithScreen(sim, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ed, err := editor.New(editor.Options{
		Surface: tui,
		Saver:   nopSaver{},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	tui.Attach(ed)

	m := topology.NewModel()
	require.NoError(t, m.AddNode(topology.Node{
		ID: "srl1", Label: "srl1", Role: topology.RoleNode,
		Position: topology.Position{X: 100, Y: 50},
		Data:     topology.NodeData{Kind: "nokia_srlinux"},
	}))
	require.NoError(t, m.AddNode(topology.Node{
		ID: "srl2", Label: "srl2", Role: topology.RoleNode,
		Position: topology.Position{X: 400, Y: 50},
		Data:     topology.NodeData{Kind: "nokia_srlinux"},
	}))
	_, err = m.AddEdge(topology.Edge{
		Source: "srl1", Target: "srl2",
		SourceEndpoint: "e1-1", TargetEndpoint: "e1-1",
	})
	require.NoError(t, err)
	ed.Reload(m.Snapshot())
	return tui, ed
}

func TestCellModelRoundTrip(t *testing.T) {
	p := topology.Position{X: 100, Y: 50}
	x, y := toCell(p)
	assert.Equal(t, 10, x)
	assert.Equal(t, 10, y)
	back := toModel(x, y)
	assert.Equal(t, p, back)
}

func TestRefreshRegistersHitRegions(t *testing.T) {
	tui, _ := newTestTUI(t)
	tui.Refresh()

	hit, ok := tui.hitAt(11, 10) // inside "[srl1]" at cell (10,10)
	require.True(t, ok)
	assert.Equal(t, "srl1", hit.id)
	assert.Equal(t, hitNode, hit.kind)

	_, ok = tui.hitAt(0, 0)
	assert.False(t, ok, "empty canvas has no hit")
}

func TestEdgeMidpointIsClickable(t *testing.T) {
	tui, ed := newTestTUI(t)
	tui.Refresh()

	// Midpoint of srl1 (10,10) and srl2 (40,10).
	hit, ok := tui.hitAt(25, 10)
	require.True(t, ok)
	assert.Equal(t, hitEdge, hit.kind)

	e, exists := ed.Model().Edge(hit.id)
	require.True(t, exists)
	assert.Equal(t, "srl1", e.Source)
}

func TestTranslateMods(t *testing.T) {
	assert.Equal(t, editor.ModNone, translateMods(0))
	assert.Equal(t, editor.ModShift, translateMods(tcell.ModShift))
	assert.Equal(t, editor.ModCtrl|editor.ModAlt, translateMods(tcell.ModCtrl|tcell.ModAlt))
}

func TestInputForNodeCarriesModelFacts(t *testing.T) {
	tui, ed := newTestTUI(t)
	require.NoError(t, ed.Model().AddNode(topology.Node{
		ID: "dc1", Label: "dc1", Role: topology.RoleGroup,
		Position: topology.Position{X: 60, Y: 100},
	}))
	require.NoError(t, ed.Model().SetParent("srl1", "dc1"))
	tui.Refresh()

	hit, ok := tui.hitAt(11, 10)
	require.True(t, ok)
	in := tui.inputFor(hit, true, 11, 10, tcell.ModCtrl)
	assert.Equal(t, editor.TargetNode, in.Target)
	assert.Equal(t, "srl1", in.ID)
	assert.True(t, in.HasParent)
	assert.False(t, in.IsGroup)
	assert.Equal(t, editor.ModCtrl, in.Mods)
}

func TestShiftCanvasClickCreatesNode(t *testing.T) {
	tui, ed := newTestTUI(t)
	tui.Refresh()

	before := len(ed.Model().Nodes())
	tui.pressPrimary(5, 20, tcell.ModShift)
	assert.Len(t, ed.Model().Nodes(), before+1)
}

func TestDragOnlyStartsOnMotion(t *testing.T) {
	tui, ed := newTestTUI(t)
	tui.Refresh()

	// Press on srl1 and release in place: position unchanged.
	tui.pressPrimary(11, 10, 0)
	tui.releasePrimary(11, 10)
	n, _ := ed.Model().Node("srl1")
	assert.Equal(t, topology.Position{X: 100, Y: 50}, n.Position)

	// Press, move, release: node follows.
	tui.pressPrimary(11, 10, 0)
	tui.pressPrimary(20, 14, 0)
	tui.releasePrimary(20, 14)
	n, _ = ed.Model().Node("srl1")
	assert.Equal(t, toModel(20, 14), n.Position)
}

func TestContextMenuExecutesAction(t *testing.T) {
	tui, ed := newTestTUI(t)
	tui.Refresh()

	tui.openContextMenu(11, 10)
	require.NotNil(t, tui.menu)
	labels := make([]string, len(tui.menu.items))
	for i, item := range tui.menu.items {
		labels[i] = item.Label
	}
	assert.Contains(t, labels, "Delete node")

	// Click the Delete node row.
	row := -1
	for i, l := range labels {
		if l == "Delete node" {
			row = i
		}
	}
	tui.clickMenu(tui.menu.x, tui.menu.y+row)
	_, exists := ed.Model().Node("srl1")
	assert.False(t, exists)
	assert.Nil(t, tui.menu)
}

func TestLockedMenusComeFromDispatcher(t *testing.T) {
	tui, ed := newTestTUI(t)
	require.NoError(t, ed.Model().AddNode(topology.Node{
		ID: "note1", Label: "spine layer", Role: topology.RoleFreeText,
		Position: topology.Position{X: 50, Y: 150},
	}))
	tui.Refresh()

	ed.SetDeploymentState(true)

	// Mutation menus are gone while deployed.
	tui.openContextMenu(11, 10)
	assert.Nil(t, tui.menu, "node menu reachable while locked")

	// The free-text menu stays, reduced to its read-only entry.
	tui.openContextMenu(5, 30)
	require.NotNil(t, tui.menu, "free-text menu unreachable while locked")
	require.Len(t, tui.menu.items, 1)
	assert.Equal(t, "Show text", tui.menu.items[0].Label)
}

func TestPostRunsOnEventLoop(t *testing.T) {
	tui, ed := newTestTUI(t)

	done := make(chan struct{})
	go func() {
		_ = tui.Run()
		close(done)
	}()

	ran := make(chan struct{})
	tui.Post(func() {
		// Executed by the event loop, so the model is safe to touch.
		_ = ed.Model().Nodes()
		close(ran)
	})
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("posted command never ran")
	}

	tui.screen.(tcell.SimulationScreen).InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("event loop did not quit")
	}
}

func TestLockDisablesDragAffordance(t *testing.T) {
	tui, ed := newTestTUI(t)
	tui.Refresh()

	ed.SetDeploymentState(true)
	assert.False(t, tui.draggingEnabled)
	assert.False(t, tui.edgeDrawEnabled)
	assert.Equal(t, editor.PointerLocked, tui.pointer)

	tui.pressPrimary(11, 10, 0)
	tui.pressPrimary(20, 14, 0)
	tui.releasePrimary(20, 14)
	n, _ := ed.Model().Node("srl1")
	assert.Equal(t, topology.Position{X: 100, Y: 50}, n.Position, "locked nodes do not move")

	ed.SetDeploymentState(false)
	assert.True(t, tui.draggingEnabled)
	assert.True(t, tui.edgeDrawEnabled)
	assert.Equal(t, editor.PointerDefault, tui.pointer)
}
