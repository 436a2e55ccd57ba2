package messenger

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/antoniostano/wayfinder/internal/observability"
)

// SendHook observes a delivery after it completed or failed.
type SendHook func(recipientID, text string, err error)

// ObservedSink wraps a Sink with logging, metrics and delivery hooks. It
// still returns the inner error so callers can decide whether to care.
type ObservedSink struct {
	inner   Sink
	metrics *observability.Metrics
	hooks   []SendHook
}

func NewObservedSink(inner Sink, metrics *observability.Metrics, hooks ...SendHook) *ObservedSink {
	return &ObservedSink{inner: inner, metrics: metrics, hooks: hooks}
}

func (s *ObservedSink) Send(ctx context.Context, recipientID, text string) error {
	start := time.Now()
	err := s.inner.Send(ctx, recipientID, text)
	s.metrics.ObserveCall("messenger", time.Since(start), err)
	if err != nil {
		log.Printf("messenger: delivery to %s failed: %v", recipientID, err)
		s.metrics.ObserveProviderError("messenger", errorCode(err))
		s.metrics.ObserveOutbound("failed")
	} else {
		s.metrics.ObserveOutbound("sent")
	}
	for _, hook := range s.hooks {
		hook(recipientID, text, err)
	}
	return err
}

func errorCode(err error) string {
	var sendErr *SendError
	switch {
	case errors.As(err, &sendErr) && sendErr.Code != 0:
		return strconv.Itoa(sendErr.Code)
	case errors.As(err, &sendErr):
		return strconv.Itoa(sendErr.Status)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyRecipient):
		return "empty_recipient"
	default:
		return "transport"
	}
}
