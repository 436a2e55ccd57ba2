package messenger

import (
	"context"
	"errors"
	"testing"
)

func TestObservedSinkRunsHooksAndKeepsError(t *testing.T) {
	inner := NewRecordingSink()
	var seen []string
	var seenErr error
	s := NewObservedSink(inner, nil, func(recipientID, text string, err error) {
		seen = append(seen, recipientID+":"+text)
		seenErr = err
	})

	if err := s.Send(context.Background(), "u1", "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	boom := errors.New("boom")
	inner.FailWith(boom)
	if err := s.Send(context.Background(), "u1", "again"); !errors.Is(err, boom) {
		t.Fatalf("Send() error = %v, want %v", err, boom)
	}

	if len(seen) != 2 || seen[0] != "u1:hi" || seen[1] != "u1:again" {
		t.Fatalf("hooks saw %v", seen)
	}
	if !errors.Is(seenErr, boom) {
		t.Fatalf("hook error = %v, want %v", seenErr, boom)
	}
	if got := inner.Sent(); len(got) != 1 {
		t.Fatalf("delivered = %d, want 1", len(got))
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&SendError{Status: 400, Code: 100}, "100"},
		{&SendError{Status: 503}, "503"},
		{context.DeadlineExceeded, "timeout"},
		{ErrEmptyRecipient, "empty_recipient"},
		{errors.New("dial tcp"), "transport"},
	}
	for _, tc := range cases {
		if got := errorCode(tc.err); got != tc.want {
			t.Fatalf("errorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
