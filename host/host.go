package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kaelemc/clabedit/document"
	"github.com/kaelemc/clabedit/editor"
	"github.com/kaelemc/clabedit/topology"
)

// Host bridges the editor to the lab document and the message peer. It owns
// persistence: the editor hands it snapshots to save, and inbound messages
// from the peer flow back into the editor through Handle.
type Host struct {
	doc    *document.Document
	sender Sender
	log    *slog.Logger

	mu        sync.Mutex
	editor    *editor.Editor
	run       func(func())
	lastWrite time.Time
}

// New builds a host around the lab file at path. Attach the editor with
// Bind once it exists; the host is also the editor's Saver, so construction
// order is host first, editor second.
func New(path string, sender Sender, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{
		doc:    document.New(path),
		sender: sender,
		log:    log,
	}
}

// Bind attaches the editor the host forwards inbound messages to.
func (h *Host) Bind(ed *editor.Editor) {
	h.mu.Lock()
	h.editor = ed
	h.mu.Unlock()
}

// SetRunOn installs the funnel onto the goroutine that owns the model.
// The watcher goroutine routes every Handle call through it; without one,
// Handle runs on the caller's goroutine, which is only safe in synchronous
// setups.
func (h *Host) SetRunOn(run func(func())) {
	h.mu.Lock()
	h.run = run
	h.mu.Unlock()
}

// dispatch runs fn on the model's goroutine when a funnel is installed.
func (h *Host) dispatch(fn func()) {
	h.mu.Lock()
	run := h.run
	h.mu.Unlock()
	if run != nil {
		run(fn)
		return
	}
	fn()
}

// LoadInitial reads the lab file and returns the snapshot plus the
// environment bundle the peer expects on startup.
func (h *Host) LoadInitial(mode string) (topology.Snapshot, Environment, error) {
	snap, name, err := h.doc.Load()
	if err != nil {
		return topology.Snapshot{}, Environment{}, err
	}
	env := Environment{LabName: name, LabPath: h.doc.Path, Mode: mode}
	return snap, env, nil
}

// notify sends an outbound envelope when a peer is attached.
func (h *Host) notify(t MessageType, payload any) {
	if h.sender == nil {
		return
	}
	h.sender.Send(NewEnvelope(t, payload))
}

// AnnounceTopology sends the startup topology-data message.
func (h *Host) AnnounceTopology(snap topology.Snapshot, env Environment) {
	if h.sender == nil {
		return
	}
	h.sender.Send(NewEnvelope(MsgTopologyData, struct {
		Nodes       []topology.Node `json:"nodes"`
		Edges       []topology.Edge `json:"edges"`
		Environment Environment     `json:"environment"`
	}{snap.Nodes, snap.Edges, env}))
}

// RequestSave implements editor.Saver. The write happens off the caller's
// goroutine so a slow disk never stalls editing; done always fires.
func (h *Host) RequestSave(snap topology.Snapshot, suppressNotify bool, done func(error)) {
	go func() {
		h.mu.Lock()
		h.lastWrite = time.Now()
		h.mu.Unlock()

		err := h.doc.Save(snap)
		if err != nil {
			h.log.Warn("lab save failed", "path", h.doc.Path, "error", err)
			h.notify(MsgSaveFailed, err.Error())
		} else if !suppressNotify {
			h.notify(MsgTopologySaved, h.doc.Path)
		}
		done(err)
	}()
}

// Handle dispatches one inbound envelope. Unknown types are logged and
// dropped rather than failing the session.
func (h *Host) Handle(env Envelope) error {
	h.mu.Lock()
	ed := h.editor
	h.mu.Unlock()
	if ed == nil {
		return fmt.Errorf("no editor bound")
	}

	switch env.Type {
	case MsgYAMLSaved:
		return h.reload(ed)

	case MsgUpdateTopology:
		var patches []topology.ElementPatch
		if err := json.Unmarshal(env.Payload, &patches); err != nil {
			return fmt.Errorf("updateTopology payload: %w", err)
		}
		return ed.ApplyTopologyPatches(patches)

	case MsgDeploymentState:
		var payload struct {
			Deployed bool `json:"deployed"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("deployment-state payload: %w", err)
		}
		ed.SetDeploymentState(payload.Deployed)
		return nil

	default:
		h.log.Warn("unhandled message", "type", string(env.Type), "id", env.ID)
		return nil
	}
}

func (h *Host) reload(ed *editor.Editor) error {
	snap, name, err := h.doc.Load()
	if err != nil {
		return fmt.Errorf("reload lab: %w", err)
	}
	ed.Reload(snap)
	// The peer renders from its own copy of the graph; push the fresh one.
	h.AnnounceTopology(snap, Environment{
		LabName: name,
		LabPath: h.doc.Path,
		Mode:    ed.Mode().String(),
	})
	return nil
}

// echoWindow is how long after our own write a file event is treated as the
// echo of that write rather than an external edit.
const echoWindow = 500 * time.Millisecond

// Watch follows the lab file and feeds external edits back through Handle
// as yaml-saved messages. It returns when ctx is cancelled or the watcher
// breaks. Events landing inside echoWindow of our own save are dropped.
func (h *Host) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors that write via rename replace the inode,
	// which drops a watch placed on the file itself.
	if err := w.Add(filepath.Dir(h.doc.Path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.doc.Path), err)
	}
	target := filepath.Clean(h.doc.Path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.mu.Lock()
			echo := time.Since(h.lastWrite) < echoWindow
			h.mu.Unlock()
			if echo {
				continue
			}
			// Handle mutates the model, which the event loop owns.
			h.dispatch(func() {
				if err := h.Handle(NewEnvelope(MsgYAMLSaved, nil)); err != nil {
					h.log.Warn("external reload failed", "error", err)
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			h.log.Warn("watcher error", "error", err)
		}
	}
}
