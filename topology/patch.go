package topology

import (
	"fmt"
)

// PatchData is the attribute payload of a single element patch. Which fields
// are meaningful depends on whether the element is a node or an edge; an
// edge patch is recognized by carrying both Source and Target.
type PatchData struct {
	ID             string   `json:"id"`
	Label          string   `json:"name,omitempty"`
	Role           Role     `json:"topoViewerRole,omitempty"`
	Parent         *string  `json:"parent,omitempty"`
	Position       *Position `json:"position,omitempty"`
	Kind           string   `json:"kind,omitempty"`
	Image          string   `json:"image,omitempty"`
	MgmtIPv4       string   `json:"mgmtIpv4Address,omitempty"`
	MgmtIPv6       string   `json:"mgmtIpv6Address,omitempty"`
	State          string   `json:"state,omitempty"`
	Source         string   `json:"source,omitempty"`
	Target         string   `json:"target,omitempty"`
	SourceEndpoint string   `json:"sourceEndpoint,omitempty"`
	TargetEndpoint string   `json:"targetEndpoint,omitempty"`
}

// ElementPatch is one entry of an updateTopology payload: attribute data to
// merge plus an optional class list that, when present, replaces the
// element's classes wholesale.
type ElementPatch struct {
	Data    PatchData `json:"data"`
	Classes []string  `json:"classes,omitempty"`
}

// IsEdge reports whether the patch describes an edge element.
func (p ElementPatch) IsEdge() bool {
	return p.Data.Source != "" && p.Data.Target != ""
}

// ApplyPatches merges a batch of element patches into the model. An existing
// id is updated in place; an unknown id is inserted as a new element. A
// patch without an id is skipped rather than treated as an error. Returns
// the number of patches applied.
func (m *Model) ApplyPatches(patches []ElementPatch) (int, error) {
	applied := 0
	for _, p := range patches {
		if p.Data.ID == "" {
			continue
		}
		var err error
		if p.IsEdge() {
			err = m.applyEdgePatch(p)
		} else {
			err = m.applyNodePatch(p)
		}
		if err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (m *Model) applyNodePatch(p ElementPatch) error {
	n, exists := m.nodes[p.Data.ID]
	if !exists {
		node := Node{ID: p.Data.ID, Role: RoleNode}
		mergeNodePatch(&node, p)
		if node.Role == "" {
			node.Role = RoleNode
		}
		parent := node.Parent
		node.Parent = ""
		if err := m.AddNode(node); err != nil {
			return fmt.Errorf("patch insert: %w", err)
		}
		if parent != "" {
			if err := m.SetParent(node.ID, parent); err != nil {
				return fmt.Errorf("patch insert: %w", err)
			}
		}
		return nil
	}
	before := *n
	mergeNodePatch(n, p)
	if n.Parent != before.Parent && n.Parent != "" {
		// Re-run the assignment through the acyclicity check.
		wanted := n.Parent
		n.Parent = before.Parent
		if err := m.SetParent(n.ID, wanted); err != nil {
			return fmt.Errorf("patch update: %w", err)
		}
	}
	m.notify(MutationData, n.ID)
	return nil
}

func mergeNodePatch(n *Node, p ElementPatch) {
	d := p.Data
	if d.Label != "" {
		n.Label = d.Label
	}
	if d.Role != "" {
		n.Role = d.Role
	}
	if d.Parent != nil {
		n.Parent = *d.Parent
	}
	if d.Position != nil {
		n.Position = *d.Position
	}
	if d.Kind != "" {
		n.Data.Kind = d.Kind
	}
	if d.Image != "" {
		n.Data.Image = d.Image
	}
	if d.MgmtIPv4 != "" {
		n.Data.MgmtIPv4 = d.MgmtIPv4
	}
	if d.MgmtIPv6 != "" {
		n.Data.MgmtIPv6 = d.MgmtIPv6
	}
	if d.State != "" {
		n.Data.State = d.State
	}
	if p.Classes != nil {
		n.Classes = append([]string(nil), p.Classes...)
	}
}

func (m *Model) applyEdgePatch(p ElementPatch) error {
	e, exists := m.edges[p.Data.ID]
	if !exists {
		edge := Edge{
			ID:             p.Data.ID,
			Source:         p.Data.Source,
			Target:         p.Data.Target,
			SourceEndpoint: p.Data.SourceEndpoint,
			TargetEndpoint: p.Data.TargetEndpoint,
			Classes:        append([]string(nil), p.Classes...),
		}
		if _, err := m.AddEdge(edge); err != nil {
			return fmt.Errorf("patch insert: %w", err)
		}
		return nil
	}
	if p.Data.SourceEndpoint != "" {
		e.SourceEndpoint = p.Data.SourceEndpoint
	}
	if p.Data.TargetEndpoint != "" {
		e.TargetEndpoint = p.Data.TargetEndpoint
	}
	if p.Classes != nil {
		e.Classes = append([]string(nil), p.Classes...)
	}
	m.notify(MutationData, e.ID)
	return nil
}
