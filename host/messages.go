// Package host connects the editing controller to its host process: tagged
// messages in, save/undo/reload requests out, plus the lab-file watcher.
package host

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// MessageType tags a host message payload.
type MessageType string

// Inbound message types (host -> controller).
const (
	MsgYAMLSaved       MessageType = "yaml-saved"
	MsgUpdateTopology  MessageType = "updateTopology"
	MsgDeploymentState MessageType = "deployment-state-changed"
)

// Outbound message types (controller -> host).
const (
	MsgTopologyData  MessageType = "topology-data"
	MsgTopologySaved MessageType = "topology-saved"
	MsgSaveFailed    MessageType = "save-failed"
	MsgUndoRequested MessageType = "undo"
	MsgReload        MessageType = "reload"
)

// Envelope is one tagged message. IDs correlate requests with any response
// the peer chooses to send.
type Envelope struct {
	ID      string          `json:"id"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps a payload in a fresh envelope. Marshal failures are the
// caller's programming error and surface as an empty payload.
func NewEnvelope(t MessageType, payload any) Envelope {
	env := Envelope{ID: uuid.NewString(), Type: t}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			env.Payload = raw
		}
	}
	return env
}

// Sender delivers outbound envelopes to the host process.
type Sender interface {
	Send(Envelope)
}

// LogSender records outbound envelopes in the log instead of delivering
// them. Standalone terminal sessions have no message peer and use this.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(env Envelope) {
	s.Log.Debug("outbound message", "type", string(env.Type), "id", env.ID)
}

// Environment is the metadata bundle sent with topology-data on startup.
type Environment struct {
	LabName string `json:"labName"`
	LabPath string `json:"labPath"`
	Mode    string `json:"mode"` // "edit" or "view"
}
