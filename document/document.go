// Package document reads and writes containerlab topology files and the
// annotations sidecar, translating between the on-disk form and the
// editor's element model.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kaelemc/clabedit/topology"
)

// Labels the editor owns on lab nodes. Everything else in the labels map
// belongs to the user and survives a round trip untouched.
const (
	labelPosX  = "graph-posX"
	labelPosY  = "graph-posY"
	labelGroup = "graph-group"
	labelLevel = "graph-level"
)

// TopologyYAML is the on-disk containerlab topology document.
type TopologyYAML struct {
	Name     string       `yaml:"name"`
	Prefix   *string      `yaml:"prefix,omitempty"`
	Mgmt     *MgmtYAML    `yaml:"mgmt,omitempty"`
	Topology TopoBodyYAML `yaml:"topology"`
}

// MgmtYAML is the lab management network section, passed through untouched.
type MgmtYAML struct {
	Network string `yaml:"network,omitempty"`
	IPv4    string `yaml:"ipv4-subnet,omitempty"`
	IPv6    string `yaml:"ipv6-subnet,omitempty"`
}

// TopoBodyYAML is the topology section.
type TopoBodyYAML struct {
	Defaults *NodeYAML            `yaml:"defaults,omitempty"`
	Kinds    map[string]*NodeYAML `yaml:"kinds,omitempty"`
	Nodes    map[string]*NodeYAML `yaml:"nodes"`
	Links    []LinkYAML           `yaml:"links,omitempty"`
}

// NodeYAML is one node entry.
type NodeYAML struct {
	Kind     string            `yaml:"kind,omitempty"`
	Image    string            `yaml:"image,omitempty"`
	MgmtIPv4 string            `yaml:"mgmt-ipv4,omitempty"`
	MgmtIPv6 string            `yaml:"mgmt-ipv6,omitempty"`
	Labels   map[string]string `yaml:"labels,omitempty"`
}

// LinkYAML is one link entry in endpoints shorthand:
// endpoints: ["node1:eth1", "node2:eth1"].
type LinkYAML struct {
	Endpoints []string `yaml:"endpoints"`
}

// Document couples a topology file with its annotations sidecar.
type Document struct {
	Path string
}

// New creates a document handle for a lab file.
func New(path string) *Document {
	return &Document{Path: path}
}

// LabName derives the display name: the document's name field, falling back
// to the file stem.
func LabName(doc *TopologyYAML, path string) string {
	if doc.Name != "" {
		return doc.Name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(strings.TrimSuffix(base, ".yml"), ".clab.yml")
}

// Load parses the topology file and its sidecar into a model snapshot.
func (d *Document) Load() (topology.Snapshot, string, error) {
	raw, err := os.ReadFile(d.Path)
	if err != nil {
		return topology.Snapshot{}, "", fmt.Errorf("read topology: %w", err)
	}
	var doc TopologyYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return topology.Snapshot{}, "", fmt.Errorf("parse topology: %w", err)
	}

	ann, err := loadAnnotations(d.annotationsPath())
	if err != nil {
		return topology.Snapshot{}, "", err
	}

	snap, err := toSnapshot(&doc, ann)
	if err != nil {
		return topology.Snapshot{}, "", err
	}
	return snap, LabName(&doc, d.Path), nil
}

// Save writes the snapshot back to the topology file and sidecar. Only the
// sections the editor owns (nodes, links, its graph-* labels) are rewritten;
// everything else in the document passes through from disk. The file is
// replaced via a temp-file rename so a crash mid-write never leaves a
// truncated document behind.
func (d *Document) Save(snap topology.Snapshot) error {
	doc := d.currentDoc()
	ann := applySnapshot(doc, snap)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal topology: %w", err)
	}
	if err := writeAtomic(d.Path, out); err != nil {
		return fmt.Errorf("write topology: %w", err)
	}
	return saveAnnotations(d.annotationsPath(), ann)
}

func (d *Document) annotationsPath() string {
	return d.Path + ".annotations.json"
}

// currentDoc re-reads the on-disk document so a save never renames the lab
// and never drops the sections the editor does not manage: prefix, mgmt,
// topology defaults and kinds all come straight back from disk.
func (d *Document) currentDoc() *TopologyYAML {
	var doc TopologyYAML
	if raw, err := os.ReadFile(d.Path); err == nil {
		if uerr := yaml.Unmarshal(raw, &doc); uerr != nil {
			doc = TopologyYAML{}
		}
	}
	if doc.Name == "" {
		doc.Name = LabName(&doc, d.Path)
	}
	return &doc
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".clabedit-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// toSnapshot converts the parsed document into model elements.
func toSnapshot(doc *TopologyYAML, ann *Annotations) (topology.Snapshot, error) {
	var snap topology.Snapshot
	groups := make(map[string]bool)
	levels := make(map[string]int)

	names := make([]string, 0, len(doc.Topology.Nodes))
	for name := range doc.Topology.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ny := doc.Topology.Nodes[name]
		if ny == nil {
			ny = &NodeYAML{}
		}
		n := topology.Node{
			ID:    name,
			Label: name,
			Role:  topology.RoleNode,
			Data: topology.NodeData{
				Kind:     ny.Kind,
				Image:    ny.Image,
				MgmtIPv4: ny.MgmtIPv4,
				MgmtIPv6: ny.MgmtIPv6,
			},
		}
		level := 0
		for k, v := range ny.Labels {
			switch k {
			case labelPosX:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					n.Position.X = f
				}
			case labelPosY:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					n.Position.Y = f
				}
			case labelGroup:
				n.Parent = v
				groups[v] = true
			case labelLevel:
				// carried by the owning group, not the member
				if lvl, err := strconv.Atoi(v); err == nil {
					level = lvl
				}
			default:
				if n.Data.Extra == nil {
					n.Data.Extra = make(map[string]string)
				}
				n.Data.Extra[k] = v
			}
		}
		if level != 0 && n.Parent != "" {
			levels[n.Parent] = level
		}
		snap.Nodes = append(snap.Nodes, n)
	}

	// Groups come from the sidecar first, then any graph-group label that
	// references a group the sidecar does not know.
	seen := make(map[string]bool)
	for _, g := range ann.Groups {
		if g.ID == "" {
			continue
		}
		seen[g.ID] = true
		gn := topology.Node{
			ID:       g.ID,
			Label:    g.Label,
			Role:     topology.RoleGroup,
			Position: g.Position,
		}
		if g.Level != 0 {
			setGroupLevel(&gn, g.Level)
		} else if lvl := levels[g.ID]; lvl != 0 {
			setGroupLevel(&gn, lvl)
		}
		snap.Nodes = append([]topology.Node{gn}, snap.Nodes...)
	}
	groupNames := make([]string, 0, len(groups))
	for g := range groups {
		if !seen[g] {
			groupNames = append(groupNames, g)
		}
	}
	sort.Strings(groupNames)
	for _, g := range groupNames {
		gn := topology.Node{ID: g, Label: g, Role: topology.RoleGroup}
		if lvl := levels[g]; lvl != 0 {
			setGroupLevel(&gn, lvl)
		}
		snap.Nodes = append([]topology.Node{gn}, snap.Nodes...)
	}

	for _, t := range ann.FreeTexts {
		if t.ID == "" {
			continue
		}
		snap.Nodes = append(snap.Nodes, topology.Node{
			ID:       t.ID,
			Label:    t.Text,
			Role:     topology.RoleFreeText,
			Position: t.Position,
		})
	}

	for i, link := range doc.Topology.Links {
		if len(link.Endpoints) != 2 {
			return snap, fmt.Errorf("link %d: expected 2 endpoints, got %d", i, len(link.Endpoints))
		}
		srcNode, srcEP, err := splitEndpoint(link.Endpoints[0])
		if err != nil {
			return snap, fmt.Errorf("link %d: %w", i, err)
		}
		tgtNode, tgtEP, err := splitEndpoint(link.Endpoints[1])
		if err != nil {
			return snap, fmt.Errorf("link %d: %w", i, err)
		}
		snap.Edges = append(snap.Edges, topology.Edge{
			ID:             deriveLinkID(snap.Edges, srcNode, tgtNode),
			Source:         srcNode,
			Target:         tgtNode,
			SourceEndpoint: srcEP,
			TargetEndpoint: tgtEP,
		})
	}
	return snap, nil
}

func splitEndpoint(ep string) (node, iface string, err error) {
	node, iface, ok := strings.Cut(ep, ":")
	if !ok || node == "" || iface == "" {
		return "", "", fmt.Errorf("malformed endpoint %q", ep)
	}
	return node, iface, nil
}

func deriveLinkID(existing []topology.Edge, source, target string) string {
	base := source + "--" + target
	id := base
	for n := 1; ; n++ {
		clash := false
		for _, e := range existing {
			if e.ID == id {
				clash = true
				break
			}
		}
		if !clash {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// A group's hierarchy level rides along on the group node's Extra map so it
// survives the trip through the model and back to the member labels.
func groupLevel(n topology.Node) int {
	lvl, _ := strconv.Atoi(n.Data.Extra[labelLevel])
	return lvl
}

func setGroupLevel(n *topology.Node, level int) {
	if n.Data.Extra == nil {
		n.Data.Extra = make(map[string]string)
	}
	n.Data.Extra[labelLevel] = strconv.Itoa(level)
}

// applySnapshot rewrites the editor-owned sections of doc in place from the
// model elements and returns the matching sidecar.
func applySnapshot(doc *TopologyYAML, snap topology.Snapshot) *Annotations {
	doc.Topology.Nodes = make(map[string]*NodeYAML)
	doc.Topology.Links = nil
	ann := &Annotations{}

	levels := make(map[string]int)
	for _, n := range snap.Nodes {
		if n.Role == topology.RoleGroup {
			if lvl := groupLevel(n); lvl != 0 {
				levels[n.ID] = lvl
			}
		}
	}

	for _, n := range snap.Nodes {
		switch {
		case n.Role == topology.RoleGroup:
			ann.Groups = append(ann.Groups, GroupAnnotation{
				ID:       n.ID,
				Label:    n.Label,
				Level:    groupLevel(n),
				Position: n.Position,
			})
		case n.IsAnnotation():
			ann.FreeTexts = append(ann.FreeTexts, TextAnnotation{
				ID:       n.ID,
				Text:     n.Label,
				Position: n.Position,
			})
		case n.Role == topology.RoleDummyChild:
			// render-only, never persisted
		default:
			ny := &NodeYAML{
				Kind:     n.Data.Kind,
				Image:    n.Data.Image,
				MgmtIPv4: n.Data.MgmtIPv4,
				MgmtIPv6: n.Data.MgmtIPv6,
				Labels:   make(map[string]string),
			}
			for k, v := range n.Data.Extra {
				ny.Labels[k] = v
			}
			ny.Labels[labelPosX] = strconv.FormatFloat(n.Position.X, 'f', -1, 64)
			ny.Labels[labelPosY] = strconv.FormatFloat(n.Position.Y, 'f', -1, 64)
			if n.Parent != "" {
				ny.Labels[labelGroup] = n.Parent
				if lvl := levels[n.Parent]; lvl != 0 {
					ny.Labels[labelLevel] = strconv.Itoa(lvl)
				}
			}
			doc.Topology.Nodes[n.ID] = ny
		}
	}

	for _, e := range snap.Edges {
		doc.Topology.Links = append(doc.Topology.Links, LinkYAML{
			Endpoints: []string{
				e.Source + ":" + e.SourceEndpoint,
				e.Target + ":" + e.TargetEndpoint,
			},
		})
	}
	return ann
}
