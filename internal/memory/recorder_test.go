package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestInMemoryStoreRecentTurns(t *testing.T) {
	st := NewInMemoryStore(3)
	ctx := context.Background()
	for _, c := range []string{"one", "two", "three", "four"} {
		if err := st.SaveTurn(ctx, TurnRecord{SenderID: "fb-1", Direction: DirectionInbound, Kind: KindText, Content: c}); err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}
	_ = st.SaveTurn(ctx, TurnRecord{SenderID: "fb-2", Content: "other"})

	got, err := st.RecentTurns(ctx, "fb-1", 0)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(got) != 3 || got[0].Content != "two" || got[2].Content != "four" {
		t.Fatalf("RecentTurns() = %+v, want the latest three oldest first", got)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("SaveTurn() did not stamp id/time: %+v", got[0])
	}

	last, _ := st.RecentTurns(ctx, "fb-1", 1)
	if len(last) != 1 || last[0].Content != "four" {
		t.Fatalf("RecentTurns(limit 1) = %+v", last)
	}
	none, _ := st.RecentTurns(ctx, "nobody", 5)
	if len(none) != 0 {
		t.Fatalf("RecentTurns(nobody) = %+v", none)
	}
}

func TestRecorderRedacts(t *testing.T) {
	st := NewInMemoryStore(0)
	rec := NewRecorder(st, true, 0)
	rec.Record(context.Background(), TurnRecord{
		SenderID:  "fb-1",
		Direction: DirectionInbound,
		Kind:      KindText,
		Content:   "coffee near 5th ave, mail me at sam@example.com",
	})

	got, _ := rec.Recent(context.Background(), "fb-1", 10)
	if len(got) != 1 {
		t.Fatalf("Recent() = %+v", got)
	}
	if !got[0].PIIRedacted || strings.Contains(got[0].Content, "sam@example.com") {
		t.Fatalf("turn = %+v, want redacted", got[0])
	}
}

func TestRecorderWithoutRedaction(t *testing.T) {
	st := NewInMemoryStore(0)
	rec := NewRecorder(st, false, 0)
	rec.Record(context.Background(), TurnRecord{SenderID: "fb-1", Content: "sam@example.com"})

	got, _ := rec.Recent(context.Background(), "fb-1", 10)
	if len(got) != 1 || got[0].Content != "sam@example.com" || got[0].PIIRedacted {
		t.Fatalf("turn = %+v, want stored as-is", got)
	}
}

type failingStore struct{ InMemoryStore }

func (*failingStore) SaveTurn(context.Context, TurnRecord) error { return errors.New("disk full") }

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	rec := NewRecorder(&failingStore{}, true, 0)
	rec.Record(context.Background(), TurnRecord{SenderID: "fb-1", Content: "hi"})

	var nilRec *Recorder
	nilRec.Record(context.Background(), TurnRecord{SenderID: "fb-1"})
	if got, err := nilRec.Recent(context.Background(), "fb-1", 1); got != nil || err != nil {
		t.Fatalf("nil Recent() = (%v, %v)", got, err)
	}
}

func TestTranscriptLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultTranscriptLimit},
		{-3, DefaultTranscriptLimit},
		{7, 7},
		{MaxTranscriptLimit + 1, MaxTranscriptLimit},
	}
	for _, tc := range tests {
		if got := TranscriptLimit(tc.in); got != tc.want {
			t.Fatalf("TranscriptLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
