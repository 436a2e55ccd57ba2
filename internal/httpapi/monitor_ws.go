package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/wayfinder/internal/protocol"
)

const monitorReplayDefault = 20

// handleMonitorWS streams monitor events to an operator. The optional
// session_id query parameter narrows the stream; replay sets how many recent
// events are sent first.
func (s *Server) handleMonitorWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "monitor not configured")
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	replay := monitorReplayDefault
	if raw := strings.TrimSpace(r.URL.Query().Get("replay")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_replay", "replay must be a non-negative integer")
			return
		}
		replay = n
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.metrics.ObserveSessionEvent("ws_connected", s.activeSessions())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var backlog []any
	if replay > 0 {
		backlog = s.hub.Recent(sessionID, replay)
	}
	subID, events, unsubscribe := s.hub.Subscribe(sessionID)
	defer unsubscribe()

	// Replies to the client share the writer goroutine with hub events.
	replies := make(chan any, 16)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		write := func(msg any) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				return false
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.ObserveWSMessage("outbound", string(t))
			}
			return true
		}
		for _, msg := range backlog {
			if !write(msg) {
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-replies:
				if !write(msg) {
					return
				}
			case msg, ok := <-events:
				if !ok {
					return
				}
				if !write(msg) {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		var reply any
		switch msg := parsed.(type) {
		case protocol.ClientFilter:
			s.hub.Filter(subID, strings.TrimSpace(msg.SessionID))
		case protocol.ClientPing:
			reply = protocol.ServerPong{Type: protocol.TypeServerPong, TSMs: time.Now().UnixMilli()}
		}
		if err != nil {
			reply = protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Source: "monitor",
				Detail: err.Error(),
				TSMs:   time.Now().UnixMilli(),
			}
		} else if t, ok := messageTypeOf(parsed); ok {
			s.metrics.ObserveWSMessage("inbound", string(t))
		}
		if reply == nil {
			continue
		}
		select {
		case replies <- reply:
		default:
			// Keep websocket writes single-threaded; drop if the reply queue is saturated.
		}
	}

	cancel()
	<-writerDone
	s.metrics.ObserveSessionEvent("ws_disconnected", s.activeSessions())
}
