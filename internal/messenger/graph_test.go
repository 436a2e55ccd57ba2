package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGraphSink(url string, attempts int) *GraphSink {
	g := NewGraphSink(url, "page-token", attempts)
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestGraphSinkSendsMessage(t *testing.T) {
	var got sendRequest
	var token string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/me/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		token = r.URL.Query().Get("access_token")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"recipient_id":"u1","message_id":"m1"}`))
	}))
	defer ts.Close()

	if err := newTestGraphSink(ts.URL, 1).Send(context.Background(), "u1", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if token != "page-token" {
		t.Fatalf("access_token = %q, want %q", token, "page-token")
	}
	if got.Recipient.ID != "u1" || got.Message.Text != "hello" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestGraphSinkRetriesTransientFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"recipient_id":"u1","message_id":"m1"}`))
	}))
	defer ts.Close()

	if err := newTestGraphSink(ts.URL, 3).Send(context.Background(), "u1", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestGraphSinkDoesNotRetryRejectedMessage(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
	}))
	defer ts.Close()

	err := newTestGraphSink(ts.URL, 3).Send(context.Background(), "u1", "hello")
	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("Send() error = %v, want *SendError", err)
	}
	if sendErr.Code != 100 || sendErr.Message != "Invalid parameter" {
		t.Fatalf("SendError = %+v", sendErr)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGraphSinkErrorInSuccessfulStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"user unavailable","code":551}}`))
	}))
	defer ts.Close()

	err := newTestGraphSink(ts.URL, 2).Send(context.Background(), "u1", "hello")
	if err == nil {
		t.Fatalf("Send() expected error for error body")
	}
}

func TestGraphSinkRejectsEmptyRecipient(t *testing.T) {
	err := newTestGraphSink("http://example.test", 1).Send(context.Background(), " ", "hello")
	if !errors.Is(err, ErrEmptyRecipient) {
		t.Fatalf("Send() error = %v, want %v", err, ErrEmptyRecipient)
	}
}

func TestNewSinkModes(t *testing.T) {
	s, err := NewSink(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewSink(auto) error = %v", err)
	}
	if _, ok := s.(*MockSink); !ok {
		t.Fatalf("NewSink(auto) without token = %T, want *MockSink", s)
	}

	s, err = NewSink(Config{Mode: "auto", PageToken: "tok", GraphURL: "http://example.test"})
	if err != nil {
		t.Fatalf("NewSink(auto) error = %v", err)
	}
	if _, ok := s.(*GraphSink); !ok {
		t.Fatalf("NewSink(auto) with token = %T, want *GraphSink", s)
	}

	if _, err := NewSink(Config{Mode: "graph"}); err == nil {
		t.Fatalf("NewSink(graph) expected error without token")
	}
	if _, err := NewSink(Config{Mode: "carrier-pigeon"}); err == nil {
		t.Fatalf("NewSink() expected error for unknown mode")
	}
}
