package document

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kaelemc/clabedit/topology"
)

// Annotations is the editor's sidecar: everything visual that has no home
// in the containerlab document itself.
type Annotations struct {
	Groups    []GroupAnnotation `json:"groups,omitempty"`
	FreeTexts []TextAnnotation  `json:"freeTexts,omitempty"`
}

// GroupAnnotation stores a group container's display state.
type GroupAnnotation struct {
	ID       string            `json:"id"`
	Label    string            `json:"label,omitempty"`
	Level    int               `json:"level,omitempty"`
	Position topology.Position `json:"position"`
}

// TextAnnotation stores one free-text note.
type TextAnnotation struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Position topology.Position `json:"position"`
}

// loadAnnotations reads the sidecar; a missing file is an empty sidecar.
func loadAnnotations(path string) (*Annotations, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Annotations{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	var ann Annotations
	if err := json.Unmarshal(raw, &ann); err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return &ann, nil
}

// saveAnnotations writes the sidecar; an empty sidecar removes the file.
func saveAnnotations(path string, ann *Annotations) error {
	if len(ann.Groups) == 0 && len(ann.FreeTexts) == 0 {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove annotations: %w", err)
		}
		return nil
	}
	out, err := json.MarshalIndent(ann, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	if err := writeAtomic(path, out); err != nil {
		return fmt.Errorf("write annotations: %w", err)
	}
	return nil
}
