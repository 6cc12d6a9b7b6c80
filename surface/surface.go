// Package surface renders the topology in a terminal with tcell and feeds
// pointer and key events back into the editing controller.
package surface

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kaelemc/clabedit/editor"
	"github.com/kaelemc/clabedit/topology"
)

// Cell size of one model unit. Lab files position nodes in pixels; the
// terminal grid is much coarser, so positions are scaled down on draw and
// back up on drag.
const (
	cellsPerUnitX = 10.0
	cellsPerUnitY = 5.0
)

type hitKind int

const (
	hitNode hitKind = iota
	hitEdge
)

// hitRegion maps a screen rectangle back to the element drawn there.
type hitRegion struct {
	kind           hitKind
	id             string
	x1, y1, x2, y2 int
}

func (h hitRegion) contains(x, y int) bool {
	return x >= h.x1 && x <= h.x2 && y >= h.y1 && y <= h.y2
}

type menuState struct {
	items []editor.MenuItem
	x, y  int
}

// TUI is the tcell rendering surface. It implements editor.Surface; the
// controller drives all state changes and the TUI redraws from the model.
type TUI struct {
	screen tcell.Screen
	model  *topology.Model
	ed     *editor.Editor
	log    *slog.Logger

	draggingEnabled bool
	edgeDrawEnabled bool
	pointer         editor.Pointer

	hits      []hitRegion
	menu      *menuState
	inspector []string
	selection string
	status    string

	dragID   string
	dragLive bool
}

// New opens the real terminal screen. Screen initialization failure is
// fatal for the session, so it fails fast instead of limping on.
func New(log *slog.Logger) (*TUI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("surface: create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("surface: init screen: %w", err)
	}
	return NewWithScreen(screen, log), nil
}

// NewWithScreen wraps an already-initialized screen. Tests pass a tcell
// simulation screen here.
func NewWithScreen(screen tcell.Screen, log *slog.Logger) *TUI {
	if log == nil {
		log = slog.Default()
	}
	screen.EnableMouse()
	return &TUI{
		screen:          screen,
		log:             log,
		draggingEnabled: true,
		edgeDrawEnabled: true,
	}
}

// Attach binds the controller and its model. Must happen before Run.
func (t *TUI) Attach(ed *editor.Editor) {
	t.ed = ed
	t.model = ed.Model()
}

// Close releases the terminal.
func (t *TUI) Close() {
	t.screen.Fini()
}

// --- editor.Surface ---

func (t *TUI) SetDraggingEnabled(enabled bool) { t.draggingEnabled = enabled }
func (t *TUI) SetEdgeDrawEnabled(enabled bool) { t.edgeDrawEnabled = enabled }

// SetMenusEnabled tracks the mutation-menu affordance. Which entries a menu
// actually offers is the dispatcher's call, so disabling only closes a menu
// that may have just lost its entries; fresh menus keep coming from MenuFor.
func (t *TUI) SetMenusEnabled(enabled bool) {
	if !enabled {
		t.menu = nil
	}
}

func (t *TUI) SetPointer(p Pointer) { t.pointer = p }

// Pointer aliases the controller's pointer type so the interface methods
// read naturally at call sites.
type Pointer = editor.Pointer

func (t *TUI) ShowNodeInspector(n topology.Node) {
	lines := []string{
		"Node " + n.ID,
		"label: " + n.Label,
		"kind:  " + n.Data.Kind,
	}
	if n.Data.Image != "" {
		lines = append(lines, "image: "+n.Data.Image)
	}
	if n.Data.MgmtIPv4 != "" {
		lines = append(lines, "mgmt4: "+n.Data.MgmtIPv4)
	}
	if n.Data.State != "" {
		lines = append(lines, "state: "+n.Data.State)
	}
	t.inspector = lines
	t.selection = n.ID
	t.Refresh()
}

func (t *TUI) ShowGroupInspector(group topology.Node, children []topology.Node) {
	lines := []string{"Group " + group.ID, fmt.Sprintf("members: %d", len(children))}
	for _, c := range children {
		lines = append(lines, "  "+c.ID)
	}
	t.inspector = lines
	t.selection = group.ID
	t.Refresh()
}

func (t *TUI) ShowLinkInspector(e topology.Edge) {
	t.inspector = []string{
		"Link " + e.ID,
		e.Source + ":" + e.SourceEndpoint,
		e.Target + ":" + e.TargetEndpoint,
	}
	t.selection = e.ID
	t.Refresh()
}

func (t *TUI) CloseInspectors() {
	t.inspector = nil
	t.Refresh()
}

func (t *TUI) ClearSelection() {
	t.selection = ""
	t.Refresh()
}

func (t *TUI) RecolorEdge(id string, fromEditor bool) {
	// Drawn edges already render in the drawn-link style; an inspected edge
	// just becomes the selection.
	t.selection = id
	t.Refresh()
}

func (t *TUI) EditNode(n topology.Node)  { t.setStatus("edit node " + n.ID) }
func (t *TUI) EditGroup(g topology.Node) { t.setStatus("edit group " + g.ID) }
func (t *TUI) EditLink(e topology.Edge)  { t.setStatus("edit link " + e.ID) }
func (t *TUI) EditText(n topology.Node)  { t.setStatus("edit text " + n.ID) }

func (t *TUI) ShowText(n topology.Node) {
	t.inspector = append([]string{"Text " + n.ID}, strings.Split(n.Label, "\n")...)
	t.Refresh()
}

func (t *TUI) setStatus(s string) {
	t.status = s
	t.Refresh()
}

// Refresh redraws everything from the model. Hit regions are rebuilt on
// every pass so clicks always resolve against what is on screen.
func (t *TUI) Refresh() {
	if t.model == nil {
		return
	}
	t.screen.Clear()
	t.hits = t.hits[:0]

	t.drawGroups()
	t.drawEdges()
	t.drawNodes()
	t.drawAnnotations()
	t.drawInspector()
	if t.menu != nil {
		t.drawMenu()
	}
	t.drawStatusBar()

	t.screen.Show()
}

// toCell converts a model position to a screen cell.
func toCell(p topology.Position) (int, int) {
	return int(p.X / cellsPerUnitX), int(p.Y / cellsPerUnitY)
}

// toModel converts a screen cell back to a model position.
func toModel(x, y int) topology.Position {
	return topology.Position{X: float64(x) * cellsPerUnitX, Y: float64(y) * cellsPerUnitY}
}

func (t *TUI) hitAt(x, y int) (hitRegion, bool) {
	// Later regions are drawn on top; scan back to front.
	for i := len(t.hits) - 1; i >= 0; i-- {
		if t.hits[i].contains(x, y) {
			return t.hits[i], true
		}
	}
	return hitRegion{}, false
}

// sortedNodes returns regular and annotation nodes in stable draw order.
func (t *TUI) sortedNodes() []topology.Node {
	nodes := t.model.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}
