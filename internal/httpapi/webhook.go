package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/antoniostano/wayfinder/internal/config"
	"github.com/antoniostano/wayfinder/internal/protocol"
)

const (
	maxWebhookBody  = 1 << 20
	signatureHeader = "X-Hub-Signature-256"
)

// handleVerify answers the platform's subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(s.cfg.VerifyToken) == "" {
		respondError(w, http.StatusInternalServerError, "misconfigured", config.ErrMissingVerifyToken.Error())
		return
	}
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != s.cfg.VerifyToken {
		s.metrics.ObserveWebhook("verify_rejected")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.metrics.ObserveWebhook("verify")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}

// handleWebhook accepts a delivery and always answers 200: anything that is
// not a message for this page is dropped, accepted messages are handled in
// the background.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	body, err := readBody(r)
	if err != nil {
		log.Printf("webhook: read body failed: %v", err)
		s.metrics.ObserveWebhook("malformed")
		return
	}
	if s.cfg.AppSecret != "" && !validSignature(s.cfg.AppSecret, r.Header.Get(signatureHeader), body) {
		log.Printf("webhook: signature mismatch from %s", r.RemoteAddr)
		s.metrics.ObserveWebhook("bad_signature")
		return
	}

	ev, err := protocol.ParseEvent(body)
	if err != nil {
		s.metrics.ObserveWebhook("malformed")
		return
	}
	m, ok := protocol.FirstMessagingEntry(ev, s.cfg.PageID)
	if !ok {
		s.metrics.ObserveWebhook("ignored")
		return
	}

	in := protocol.Route(m)
	s.metrics.ObserveWebhook(inboundKind(in))
	if s.dispatcher == nil {
		return
	}
	sessionID, err := s.dispatcher.Dispatch(in)
	if err != nil {
		log.Printf("webhook: dispatch for %s failed: %v", in.SenderID, err)
		return
	}
	log.Printf("webhook: got a new %s message for session %s", inboundKind(in), sessionID)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errEmptyBody
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

// validSignature checks "sha256=<hex hmac of body>" keyed by the app secret.
func validSignature(secret, header string, body []byte) bool {
	sig, ok := strings.CutPrefix(strings.TrimSpace(header), "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func inboundKind(in protocol.Inbound) string {
	switch {
	case in.ImageURL != "":
		return "image"
	case in.HasAttachments:
		return "unsupported_attachment"
	case in.Text != "":
		return "text"
	default:
		return "empty"
	}
}
