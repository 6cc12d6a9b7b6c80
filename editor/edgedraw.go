package editor

import (
	"fmt"

	"github.com/kaelemc/clabedit/topology"
)

// DrawSignal is an externally observable edge-draw lifecycle event.
type DrawSignal int

const (
	DrawStarted DrawSignal = iota
	DrawStopped
	DrawCancelled
)

// String returns the signal name for logging.
func (s DrawSignal) String() string {
	switch s {
	case DrawStarted:
		return "draw-started"
	case DrawStopped:
		return "draw-stopped"
	case DrawCancelled:
		return "draw-cancelled"
	default:
		return "unknown"
	}
}

// EdgeDraw wraps guided, pointer-driven link creation. It decides which node
// pairs may be connected and stamps completed links with allocator-assigned
// interface names and editor provenance.
type EdgeDraw struct {
	model   *topology.Model
	alloc   *topology.EndpointAllocator
	enabled bool
	active  bool
	source  string

	observers []func(DrawSignal)
}

// NewEdgeDraw creates the subsystem, initially enabled.
func NewEdgeDraw(model *topology.Model, alloc *topology.EndpointAllocator) *EdgeDraw {
	return &EdgeDraw{model: model, alloc: alloc, enabled: true}
}

// Observe registers a lifecycle observer. Observers run synchronously in
// signal order.
func (d *EdgeDraw) Observe(fn func(DrawSignal)) {
	d.observers = append(d.observers, fn)
}

func (d *EdgeDraw) signal(s DrawSignal) {
	for _, fn := range d.observers {
		fn(s)
	}
}

// SetEnabled toggles the subsystem. Disabling cancels any draw in progress.
func (d *EdgeDraw) SetEnabled(enabled bool) {
	if !enabled && d.active {
		d.Cancel()
	}
	d.enabled = enabled
}

// Enabled reports whether draws may start.
func (d *EdgeDraw) Enabled() bool {
	return d.enabled
}

// Active reports whether a draw is in progress.
func (d *EdgeDraw) Active() bool {
	return d.active
}

// Source returns the node the active draw started from.
func (d *EdgeDraw) Source() string {
	return d.source
}

// eligible checks one endpoint. Annotations never carry links, and a group
// (by role or by having children) is a container, not a connectable node.
func (d *EdgeDraw) eligible(nodeID string) error {
	n, ok := d.model.Node(nodeID)
	if !ok {
		return fmt.Errorf("node %q not found", nodeID)
	}
	if n.IsAnnotation() {
		return fmt.Errorf("node %q is an annotation", nodeID)
	}
	if d.model.IsGroup(nodeID) {
		return fmt.Errorf("node %q is a group", nodeID)
	}
	return nil
}

// CanConnect reports whether a link between the two nodes is permitted.
func (d *EdgeDraw) CanConnect(sourceID, targetID string) error {
	if sourceID == targetID {
		return fmt.Errorf("cannot link %q to itself", sourceID)
	}
	if err := d.eligible(sourceID); err != nil {
		return err
	}
	if err := d.eligible(targetID); err != nil {
		return err
	}
	if t, ok := d.model.Node(targetID); ok && t.Role == topology.RoleDummyChild {
		return fmt.Errorf("node %q is a structural placeholder", targetID)
	}
	return nil
}

// Start begins a draw from the given node.
func (d *EdgeDraw) Start(sourceID string) error {
	if !d.enabled {
		return fmt.Errorf("edge drawing is disabled")
	}
	if d.active {
		return fmt.Errorf("a draw is already in progress")
	}
	if err := d.eligible(sourceID); err != nil {
		return err
	}
	d.active = true
	d.source = sourceID
	d.signal(DrawStarted)
	return nil
}

// Complete finishes the active draw onto the target node. On success the
// new edge carries allocator-assigned endpoint names on both sides and the
// editor provenance flag. An ineligible target cancels the draw and leaves
// the model unchanged.
func (d *EdgeDraw) Complete(targetID string) (topology.Edge, error) {
	if !d.active {
		return topology.Edge{}, fmt.Errorf("no draw in progress")
	}
	source := d.source
	if err := d.CanConnect(source, targetID); err != nil {
		d.Cancel()
		return topology.Edge{}, err
	}

	edge := topology.Edge{
		Source:         source,
		Target:         targetID,
		SourceEndpoint: d.alloc.Next(d.model, source),
		TargetEndpoint: d.alloc.Next(d.model, targetID),
		FromEditor:     true,
		Classes:        []string{"editor-created"},
	}
	created, err := d.model.AddEdge(edge)
	if err != nil {
		d.Cancel()
		return topology.Edge{}, err
	}
	d.active = false
	d.source = ""
	d.signal(DrawStopped)
	return created, nil
}

// Cancel abandons the active draw without touching the model.
func (d *EdgeDraw) Cancel() {
	if !d.active {
		return
	}
	d.active = false
	d.source = ""
	d.signal(DrawCancelled)
}
