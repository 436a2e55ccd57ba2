package protocol

import (
	"encoding/json"
	"fmt"
)

// ObjectPage is the webhook object type for page subscriptions.
const ObjectPage = "page"

// AttachmentImage is the attachment type that triggers image analysis.
const AttachmentImage = "image"

// Event is the body the platform POSTs to the webhook.
type Event struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

type Party struct {
	ID string `json:"id"`
}

type Messaging struct {
	Sender    Party    `json:"sender"`
	Recipient Party    `json:"recipient"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
}

type Message struct {
	MID         string       `json:"mid"`
	Seq         int64        `json:"seq"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

type AttachmentPayload struct {
	URL string `json:"url"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("invalid webhook event: %w", err)
	}
	return ev, nil
}

// FirstMessagingEntry returns the first messaging entry addressed to pageID.
// Only entry[0].messaging[0] is considered; later entries in a batched
// delivery are not processed. Entries without a message (deliveries, reads,
// postbacks) are rejected.
func FirstMessagingEntry(ev Event, pageID string) (Messaging, bool) {
	if ev.Object != ObjectPage || len(ev.Entry) == 0 {
		return Messaging{}, false
	}
	entry := ev.Entry[0]
	if entry.ID != pageID || len(entry.Messaging) == 0 {
		return Messaging{}, false
	}
	m := entry.Messaging[0]
	if m.Message == nil || m.Recipient.ID != pageID || m.Sender.ID == "" {
		return Messaging{}, false
	}
	return m, true
}

// Inbound is the routed form of an accepted message: either text for the
// NLP path or an image URL for the vision path.
type Inbound struct {
	SenderID string
	Text     string
	ImageURL string
	// HasAttachments is set when the message carried attachments of any
	// type. Such messages never take the text path.
	HasAttachments bool
}

// Route classifies an accepted messaging entry.
func Route(m Messaging) Inbound {
	in := Inbound{SenderID: m.Sender.ID}
	if m.Message == nil {
		return in
	}
	if len(m.Message.Attachments) > 0 {
		in.HasAttachments = true
		att := m.Message.Attachments[0]
		if att.Type == AttachmentImage && att.Payload.URL != "" {
			in.ImageURL = att.Payload.URL
		}
		return in
	}
	in.Text = m.Message.Text
	return in
}
