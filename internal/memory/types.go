package memory

import (
	"context"
	"time"
)

// Turn directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Turn kinds.
const (
	KindText  = "text"
	KindImage = "image"
)

// Page sizes for transcript reads.
const (
	DefaultTranscriptLimit = 20
	MaxTranscriptLimit     = 500
)

// TranscriptLimit clamps a requested page size to (0, MaxTranscriptLimit];
// zero or negative selects DefaultTranscriptLimit.
func TranscriptLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTranscriptLimit
	case limit > MaxTranscriptLimit:
		return MaxTranscriptLimit
	default:
		return limit
	}
}

// TurnRecord stores one message exchanged with a sender.
type TurnRecord struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	SessionID   string    `json:"session_id"`
	Direction   string    `json:"direction"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists and retrieves the message transcript.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentTurns(ctx context.Context, senderID string, limit int) ([]TurnRecord, error)
	Close() error
}
