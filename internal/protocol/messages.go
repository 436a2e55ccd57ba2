package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies monitor stream payload variants.
type MessageType string

const (
	TypeInboundMessage  MessageType = "inbound_message"
	TypeOutboundMessage MessageType = "outbound_message"
	TypeActionStep      MessageType = "action_step"
	TypeImageSummary    MessageType = "image_summary"
	TypeSessionEvent    MessageType = "session_event"
	TypeErrorEvent      MessageType = "error_event"

	TypeClientFilter MessageType = "client_filter"
	TypeClientPing   MessageType = "client_ping"
	TypeServerPong   MessageType = "server_pong"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type InboundMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	SenderID  string      `json:"sender_id"`
	Kind      string      `json:"kind"`
	Text      string      `json:"text,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	TSMs      int64       `json:"ts_ms"`
}

type OutboundMessage struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id,omitempty"`
	RecipientID string      `json:"recipient_id"`
	Text        string      `json:"text"`
	Delivered   bool        `json:"delivered"`
	Error       string      `json:"error,omitempty"`
	TSMs        int64       `json:"ts_ms"`
}

type ActionStep struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Context   map[string]any `json:"context"`
	TSMs      int64          `json:"ts_ms"`
}

type ImageSummary struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	ImageURL  string      `json:"image_url"`
	Labels    string      `json:"labels,omitempty"`
	Faces     string      `json:"faces,omitempty"`
	TSMs      int64       `json:"ts_ms"`
}

type SessionEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	SenderID  string      `json:"sender_id,omitempty"`
	Code      string      `json:"code"`
	TSMs      int64       `json:"ts_ms"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
	TSMs      int64       `json:"ts_ms"`
}

// ClientFilter narrows a monitor stream to one session; an empty SessionID
// clears the filter.
type ClientFilter struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type ClientPing struct {
	Type MessageType `json:"type"`
	TSMs int64       `json:"ts_ms"`
}

type ServerPong struct {
	Type MessageType `json:"type"`
	TSMs int64       `json:"ts_ms"`
}

// SessionOf returns the session id carried by a monitor event, or "".
func SessionOf(event any) string {
	switch ev := event.(type) {
	case InboundMessage:
		return ev.SessionID
	case OutboundMessage:
		return ev.SessionID
	case ActionStep:
		return ev.SessionID
	case ImageSummary:
		return ev.SessionID
	case SessionEvent:
		return ev.SessionID
	case ErrorEvent:
		return ev.SessionID
	default:
		return ""
	}
}

// ParseClientMessage decodes a message sent by a monitor client.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientFilter:
		var msg ClientFilter
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeClientPing:
		var msg ClientPing
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
