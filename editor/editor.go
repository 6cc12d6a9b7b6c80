package editor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kaelemc/clabedit/topology"
)

// Options configures a controller instance.
type Options struct {
	Surface   Surface
	Scheduler Scheduler
	Saver     Saver
	Logger    *slog.Logger

	// RunOn posts a function onto the goroutine that owns the model.
	// Production wiring points it at the surface's event loop so timer and
	// save-completion callbacks never touch the model from their own
	// goroutines. Nil means call inline, which is only safe with a
	// synchronous scheduler and saver.
	RunOn func(func())

	EndpointPatterns map[string]string // node kind -> pattern with {n}
	QuietPeriod      time.Duration     // autosave debounce window
	GracePeriod      time.Duration     // canvas-click suppression after a draw
	HistoryDepth     int
}

// Editor is the graph-editing controller. One instance per rendering
// surface; it exclusively owns the element model and must be driven from a
// single goroutine.
type Editor struct {
	model *topology.Model
	alloc *topology.EndpointAllocator
	draw  *EdgeDraw
	lock  *lockMachine

	surface  Surface
	sched    Scheduler
	autosave *Autosave
	history  *History
	log      *slog.Logger

	mode       Mode
	dragging   bool
	reloading  bool
	grace      time.Duration
	graceUntil time.Time
	nodeSeq    int
}

// New creates a controller bound to a rendering surface. A missing surface
// is an initialization failure: the constructor fails fast and nothing is
// wired up.
func New(opts Options) (*Editor, error) {
	if opts.Surface == nil {
		return nil, fmt.Errorf("editor: no rendering surface")
	}
	if opts.Saver == nil {
		return nil, fmt.Errorf("editor: no persistence collaborator")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = 800 * time.Millisecond
	}
	if opts.GracePeriod < 0 {
		opts.GracePeriod = 0
	}

	model := topology.NewModel()
	alloc := topology.NewEndpointAllocator(opts.EndpointPatterns)

	e := &Editor{
		model:   model,
		alloc:   alloc,
		draw:    NewEdgeDraw(model, alloc),
		surface: opts.Surface,
		sched:   opts.Scheduler,
		history: NewHistory(opts.HistoryDepth),
		log:     opts.Logger,
		mode:    ModeEdit,
		grace:   opts.GracePeriod,
	}
	e.lock = &lockMachine{surface: opts.Surface, draw: e.draw, log: opts.Logger}
	e.autosave = NewAutosave(opts.Scheduler, opts.QuietPeriod, opts.Saver, model.Snapshot, opts.RunOn, opts.Logger)

	model.SetObserver(e.onMutation)
	e.draw.Observe(e.onDrawSignal)
	e.history.Record(model.Snapshot())
	return e, nil
}

// Model exposes the element model. Callers must stay on the controller's
// goroutine; every mutation flows through the observer either way.
func (e *Editor) Model() *topology.Model {
	return e.model
}

// EdgeDraw exposes the edge-draw subsystem for surface wiring.
func (e *Editor) EdgeDraw() *EdgeDraw {
	return e.draw
}

// Mode returns the current click-routing mode.
func (e *Editor) Mode() Mode {
	return e.mode
}

// SetMode switches between edit and view click routing.
func (e *Editor) SetMode(m Mode) {
	e.mode = m
	e.surface.CloseInspectors()
}

// Locked reports the deployment-lock state.
func (e *Editor) Locked() bool {
	return e.lock.Locked()
}

// onMutation is the model's observer: every change, interactive or external,
// lands here in arrival order. Changes made mid-drag or mid-draw are not
// autosave triggers; the drag release or draw completion is.
func (e *Editor) onMutation(mu topology.Mutation) {
	if e.reloading || e.dragging || e.draw.Active() {
		return
	}
	e.autosave.NoteMutation()
	e.surface.Refresh()
}

// onDrawSignal reacts to edge-draw lifecycle events. Completion opens the
// grace window that swallows the stray canvas click some surfaces deliver
// right after a draw.
func (e *Editor) onDrawSignal(s DrawSignal) {
	e.log.Debug("edge draw", "signal", s.String())
	if s == DrawStopped {
		e.graceUntil = e.sched.Now().Add(e.grace)
		e.autosave.NoteMutation()
		e.recordHistory()
		e.surface.Refresh()
	}
}

// HandleClick routes a classified pointer event. This is the single entry
// point for surface clicks in both modes.
func (e *Editor) HandleClick(in Input) {
	// An active draw consumes the next click: node completes, anything else
	// cancels without touching the model.
	if e.draw.Active() {
		if in.Target == TargetNode {
			if _, err := e.draw.Complete(in.ID); err != nil {
				e.log.Debug("draw rejected", "error", err)
			}
		} else {
			e.draw.Cancel()
		}
		return
	}

	if in.Target == TargetCanvas && e.sched.Now().Before(e.graceUntil) {
		e.log.Debug("canvas click suppressed inside post-draw grace")
		return
	}

	action := Classify(in, e.mode, e.lock.Locked())
	if action == ActionNone {
		if e.lock.Locked() {
			if would := Classify(in, e.mode, false); would.mutating() {
				// Expected on residual listeners during the unlock race.
				e.log.Debug("mutation ignored while deployed", "action", would.String())
			}
		}
		return
	}
	e.execute(action, in)
}

func (e *Editor) execute(action Action, in Input) {
	switch action {
	case ActionOrphanNode:
		if former := e.model.Orphan(in.ID); former != "" {
			e.recordHistory()
		}

	case ActionBeginEdgeDraw:
		if err := e.draw.Start(in.ID); err != nil {
			e.log.Debug("draw not started", "node", in.ID, "error", err)
		}

	case ActionDeleteNode:
		if err := e.model.RemoveNode(in.ID); err != nil {
			e.log.Debug("delete failed", "node", in.ID, "error", err)
			return
		}
		e.recordHistory()

	case ActionCreateNode:
		e.createNodeAt(in.Position)

	case ActionDeleteEdge:
		if err := e.model.RemoveEdge(in.ID); err != nil {
			e.log.Debug("delete failed", "edge", in.ID, "error", err)
			return
		}
		e.recordHistory()

	case ActionOpenNodeInspector:
		if n, ok := e.model.Node(in.ID); ok {
			e.surface.ShowNodeInspector(n)
		}

	case ActionOpenGroupInspector:
		e.openGroupInspector(in.ID)

	case ActionOpenLinkInspector:
		if edge, ok := e.model.Edge(in.ID); ok {
			e.surface.ShowLinkInspector(edge)
			e.surface.RecolorEdge(edge.ID, edge.FromEditor)
		}

	case ActionClosePanels:
		e.surface.CloseInspectors()
		e.surface.ClearSelection()
	}
}

func (e *Editor) openGroupInspector(id string) {
	group, ok := e.model.Node(id)
	if !ok {
		return
	}
	var children []topology.Node
	for _, childID := range e.model.Children(id) {
		if child, ok := e.model.Node(childID); ok && child.Role != topology.RoleDummyChild {
			children = append(children, child)
		}
	}
	e.surface.ShowGroupInspector(group, children)
}

// createNodeAt inserts a fresh editor-provenance node at the pointer.
func (e *Editor) createNodeAt(pos topology.Position) {
	for {
		e.nodeSeq++
		id := fmt.Sprintf("node%d", e.nodeSeq)
		if _, exists := e.model.Node(id); exists {
			continue
		}
		n := topology.Node{
			ID:         id,
			Label:      id,
			Role:       topology.RoleNode,
			Position:   pos,
			Data:       topology.NodeData{Kind: "linux"},
			FromEditor: true,
			Classes:    []string{"editor-created"},
		}
		if err := e.model.AddNode(n); err != nil {
			e.log.Warn("create node failed", "id", id, "error", err)
			return
		}
		e.recordHistory()
		return
	}
}

// BeginDrag marks a node drag in progress; position updates stop feeding
// the autosave debounce until the release.
func (e *Editor) BeginDrag(nodeID string) {
	if e.lock.Locked() {
		e.log.Debug("drag ignored while deployed", "node", nodeID)
		return
	}
	e.dragging = true
}

// Drag applies an intermediate drag position.
func (e *Editor) Drag(nodeID string, pos topology.Position) {
	if !e.dragging {
		return
	}
	if err := e.model.MoveNode(nodeID, pos); err != nil {
		e.log.Debug("drag move failed", "node", nodeID, "error", err)
	}
}

// EndDrag releases the drag; the final position is a regular mutation and
// schedules an autosave.
func (e *Editor) EndDrag(nodeID string, pos topology.Position) {
	if !e.dragging {
		return
	}
	e.dragging = false
	if err := e.model.MoveNode(nodeID, pos); err != nil {
		e.log.Debug("drag release failed", "node", nodeID, "error", err)
		return
	}
	e.recordHistory()
}

// SetDeploymentState drives the deployment-lock machine from the external
// notification. Idempotent on redelivery.
func (e *Editor) SetDeploymentState(deployed bool) {
	if e.lock.Apply(deployed) && deployed {
		// Entering Locked mid-draw abandons the draw; SetEnabled cancelled it
		// already, this is just the render.
		e.surface.Refresh()
	}
}

// Reload replaces the whole model from the persisted document, e.g. on a
// yaml-saved notification. It does not dirty the autosave debounce: what was
// loaded is what is on disk.
func (e *Editor) Reload(snap topology.Snapshot) {
	e.reloading = true
	e.model.Restore(snap)
	e.reloading = false
	e.alloc.Reset()
	e.history.Clear()
	e.history.Record(e.model.Snapshot())
	e.surface.Refresh()
}

// ApplyTopologyPatches merges externally supplied element patches. Patches
// travel the same mutation path as interactive edits, so they autosave.
func (e *Editor) ApplyTopologyPatches(patches []topology.ElementPatch) error {
	applied, err := e.model.ApplyPatches(patches)
	if applied > 0 {
		e.recordHistory()
	}
	return err
}

// SaveNow performs an explicit, user-visible save.
func (e *Editor) SaveNow() {
	e.autosave.SaveNow()
}

// Flush pushes out any pending debounced save. Called on teardown.
func (e *Editor) Flush() {
	e.autosave.Flush()
}

// Undo restores the previous model state. The restore is itself a mutation,
// so it flows through the autosave debounce like any edit.
func (e *Editor) Undo() bool {
	snap, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.model.Restore(snap)
	e.surface.Refresh()
	return true
}

// Redo restores the next model state; autosaved the same way as Undo.
func (e *Editor) Redo() bool {
	snap, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.model.Restore(snap)
	e.surface.Refresh()
	return true
}

func (e *Editor) recordHistory() {
	e.history.Record(e.model.Snapshot())
}
