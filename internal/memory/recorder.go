package memory

import (
	"context"
	"log"
	"time"

	"github.com/antoniostano/wayfinder/internal/policy"
)

// Recorder writes transcript turns, redacting content first when enabled.
// Failures are logged and never reach the caller.
type Recorder struct {
	store   Store
	redact  bool
	timeout time.Duration
}

func NewRecorder(store Store, redact bool, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{store: store, redact: redact, timeout: timeout}
}

// Record saves one turn. A nil Recorder records nothing.
func (r *Recorder) Record(ctx context.Context, record TurnRecord) {
	if r == nil || r.store == nil {
		return
	}
	if r.redact {
		record.Content, record.PIIRedacted = policy.RedactTranscript(record.Content)
	}

	// Detached from the request so a finished webhook does not cancel the write.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.store.SaveTurn(saveCtx, record); err != nil {
		log.Printf("memory: save %s turn for %s failed: %v", record.Direction, record.SenderID, err)
	}
}

// Recent returns the latest turns for senderID, oldest first.
func (r *Recorder) Recent(ctx context.Context, senderID string, limit int) ([]TurnRecord, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	return r.store.RecentTurns(ctx, senderID, limit)
}
