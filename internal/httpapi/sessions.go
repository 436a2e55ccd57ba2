package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/wayfinder/internal/memory"
	"github.com/antoniostano/wayfinder/internal/session"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

type transcriptResponse struct {
	SessionID string              `json:"session_id"`
	SenderID  string              `json:"sender_id"`
	Turns     []memory.TurnRecord `json:"turns"`
}

func (s *Server) handleSessionTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	limit := memory.DefaultTranscriptLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > memory.MaxTranscriptLimit {
			respondError(w, http.StatusBadRequest, "invalid_limit", fmt.Sprintf("limit must be between 1 and %d", memory.MaxTranscriptLimit))
			return
		}
		limit = n
	}

	turns, err := s.transcript.Recent(r.Context(), sess.SenderID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "transcript_unavailable", err.Error())
		return
	}
	if turns == nil {
		turns = []memory.TurnRecord{}
	}
	respondJSON(w, http.StatusOK, transcriptResponse{
		SessionID: sess.ID,
		SenderID:  sess.SenderID,
		Turns:     turns,
	})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return nil, false
	}
	if s.sessions == nil {
		respondError(w, http.StatusNotFound, "session_not_found", session.ErrNotFound.Error())
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session_error", err.Error())
		return nil, false
	}
	return sess, true
}
