package surface

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/kaelemc/clabedit/editor"
	"github.com/kaelemc/clabedit/topology"
)

var (
	styleNode     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDrawn    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorAqua)
	styleGroup    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleText     = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleEdge     = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleMenu     = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy).Reverse(true)
)

func (t *TUI) putString(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (t *TUI) drawNodes() {
	for _, n := range t.sortedNodes() {
		if n.Role != topology.RoleNode {
			continue
		}
		x, y := toCell(n.Position)
		label := n.Label
		if label == "" {
			label = n.ID
		}
		box := "[" + label + "]"
		style := styleNode
		if n.FromEditor {
			style = styleDrawn
		}
		if n.ID == t.selection {
			style = styleSelected
		}
		t.putString(x, y, box, style)
		t.hits = append(t.hits, hitRegion{
			kind: hitNode, id: n.ID,
			x1: x, y1: y, x2: x + len(box) - 1, y2: y,
		})
	}
}

func (t *TUI) drawAnnotations() {
	for _, n := range t.sortedNodes() {
		if !n.IsAnnotation() {
			continue
		}
		x, y := toCell(n.Position)
		style := styleText
		if n.ID == t.selection {
			style = styleSelected
		}
		t.putString(x, y, n.Label, style)
		width := len(n.Label)
		if width == 0 {
			width = 1
		}
		t.hits = append(t.hits, hitRegion{
			kind: hitNode, id: n.ID,
			x1: x, y1: y, x2: x + width - 1, y2: y,
		})
	}
}

// drawGroups renders each group as a dashed bounding box around its members
// plus the group label. The box itself is the group's hit region.
func (t *TUI) drawGroups() {
	for _, g := range t.sortedNodes() {
		if g.Role != topology.RoleGroup {
			continue
		}
		minX, minY, maxX, maxY := t.groupBounds(g)
		for x := minX; x <= maxX; x++ {
			t.screen.SetContent(x, minY, '-', nil, styleGroup)
			t.screen.SetContent(x, maxY, '-', nil, styleGroup)
		}
		for y := minY; y <= maxY; y++ {
			t.screen.SetContent(minX, y, '|', nil, styleGroup)
			t.screen.SetContent(maxX, y, '|', nil, styleGroup)
		}
		t.putString(minX+1, minY, g.Label, styleGroup)
		// Register only the border so member nodes inside stay clickable.
		t.hits = append(t.hits, hitRegion{
			kind: hitNode, id: g.ID,
			x1: minX, y1: minY, x2: maxX, y2: minY,
		})
	}
}

func (t *TUI) groupBounds(g topology.Node) (minX, minY, maxX, maxY int) {
	gx, gy := toCell(g.Position)
	minX, minY, maxX, maxY = gx, gy, gx+4, gy+2
	for _, childID := range t.model.Children(g.ID) {
		c, ok := t.model.Node(childID)
		if !ok || c.Role == topology.RoleDummyChild {
			continue
		}
		x, y := toCell(c.Position)
		w := len(c.Label) + 2
		if x-1 < minX {
			minX = x - 1
		}
		if y-1 < minY {
			minY = y - 1
		}
		if x+w > maxX {
			maxX = x + w
		}
		if y+1 > maxY {
			maxY = y + 1
		}
	}
	return minX, minY, maxX, maxY
}

// drawEdges renders each link as a straight run of cells between node
// anchors. The midpoint carries the endpoint pair and doubles as the edge's
// hit region.
func (t *TUI) drawEdges() {
	for _, e := range t.model.Edges() {
		src, ok1 := t.model.Node(e.Source)
		tgt, ok2 := t.model.Node(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		x1, y1 := toCell(src.Position)
		x2, y2 := toCell(tgt.Position)

		style := styleEdge
		if e.FromEditor {
			style = styleDrawn
		}
		if e.ID == t.selection {
			style = styleSelected
		}
		t.lineBetween(x1, y1, x2, y2, style)

		mx, my := (x1+x2)/2, (y1+y2)/2
		tag := edgeTag(e)
		t.putString(mx, my, tag, style)
		t.hits = append(t.hits, hitRegion{
			kind: hitEdge, id: e.ID,
			x1: mx, y1: my, x2: mx + len(tag) - 1, y2: my,
		})
	}
}

func edgeTag(e topology.Edge) string {
	if e.SourceEndpoint == "" && e.TargetEndpoint == "" {
		return "*"
	}
	return fmt.Sprintf("%s--%s", e.SourceEndpoint, e.TargetEndpoint)
}

// lineBetween draws a coarse Bresenham line.
func (t *TUI) lineBetween(x1, y1, x2, y2 int, style tcell.Style) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	x, y := x1, y1
	for {
		t.screen.SetContent(x, y, lineRune(dx, dy), nil, style)
		if x == x2 && y == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func lineRune(dx, dy int) rune {
	switch {
	case dy == 0:
		return '-'
	case dx == 0:
		return '|'
	default:
		return '.'
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (t *TUI) drawInspector() {
	if len(t.inspector) == 0 {
		return
	}
	w, _ := t.screen.Size()
	col := w - 30
	if col < 0 {
		col = 0
	}
	for i, line := range t.inspector {
		t.putString(col, i, line, styleNode)
	}
}

func (t *TUI) drawMenu() {
	m := t.menu
	width := 0
	for _, item := range m.items {
		if len(item.Label) > width {
			width = len(item.Label)
		}
	}
	for i, item := range m.items {
		pad := item.Label
		for len(pad) < width {
			pad += " "
		}
		t.putString(m.x, m.y+i, " "+pad+" ", styleMenu)
	}
}

func (t *TUI) drawStatusBar() {
	if t.ed == nil {
		return
	}
	w, h := t.screen.Size()
	bar := fmt.Sprintf(" %s ", t.ed.Mode())
	if t.pointer == editor.PointerLocked {
		bar += "| DEPLOYED (read-only) "
	}
	switch {
	case t.ed.EdgeDraw().Active():
		bar += "| drawing link: click target node "
	case t.edgeDrawEnabled && t.ed.Mode() == editor.ModeEdit:
		bar += "| shift+click draws a link "
	}
	if t.status != "" {
		bar += "| " + t.status + " "
	}
	for len(bar) < w {
		bar += " "
	}
	t.putString(0, h-1, bar, styleStatus)
}
