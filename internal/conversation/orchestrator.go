// Package conversation routes accepted inbound messages to the text plan or
// the image pipeline and owns the background work they start.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/antoniostano/wayfinder/internal/actions"
	"github.com/antoniostano/wayfinder/internal/memory"
	"github.com/antoniostano/wayfinder/internal/messenger"
	"github.com/antoniostano/wayfinder/internal/monitor"
	"github.com/antoniostano/wayfinder/internal/nlp"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/protocol"
	"github.com/antoniostano/wayfinder/internal/session"
	"github.com/antoniostano/wayfinder/internal/vision"
)

// ImageAck is sent before an image is analyzed.
const ImageAck = "Got it, you sent me a picture, give me a minute to analyze it"

var ErrClosed = errors.New("conversation: orchestrator closed")

// Deps wires the orchestrator to its collaborators. Sink is the raw
// transport; the orchestrator wraps it with logging, metrics and transcript
// hooks.
type Deps struct {
	Sessions    *session.Store
	Extractor   nlp.Extractor
	Places      actions.PlaceFinder
	Vision      vision.Engine
	Sink        messenger.Sink
	Hub         *monitor.Hub
	Transcript  *memory.Recorder
	Metrics     *observability.Metrics
	CallTimeout time.Duration
	// PlanTimeout bounds one whole text plan, all of its engine steps and
	// actions included.
	PlanTimeout time.Duration
}

type Orchestrator struct {
	sessions    *session.Store
	extractor   nlp.Extractor
	runner      *actions.Runner
	vision      vision.Engine
	sink        messenger.Sink
	hub         *monitor.Hub
	transcript  *memory.Recorder
	metrics     *observability.Metrics
	callTimeout time.Duration
	planTimeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.CallTimeout <= 0 {
		d.CallTimeout = 10 * time.Second
	}
	if d.PlanTimeout <= 0 {
		d.PlanTimeout = 6 * d.CallTimeout
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		sessions:    d.Sessions,
		extractor:   d.Extractor,
		vision:      d.Vision,
		hub:         d.Hub,
		transcript:  d.Transcript,
		metrics:     d.Metrics,
		callTimeout: d.CallTimeout,
		planTimeout: d.PlanTimeout,
		baseCtx:     baseCtx,
		cancel:      cancel,
	}
	o.sink = messenger.NewObservedSink(d.Sink, d.Metrics, o.onSend)
	o.runner = actions.NewRunner(d.Sessions, o.sink, d.Places, d.Metrics, d.CallTimeout)
	o.runner.SetStepHook(o.onStep)
	d.Sessions.SetExpireHook(o.onExpire)
	return o
}

// Dispatch resolves the sender's session and starts the matching pipeline in
// the background. It returns the session id without waiting for the work or
// for the transcript write. Messages that are neither text nor an image are
// dropped.
func (o *Orchestrator) Dispatch(in protocol.Inbound) (string, error) {
	if !o.begin() {
		return "", ErrClosed
	}

	sessionID, created := o.sessions.Resolve(in.SenderID)
	if created {
		o.metrics.ObserveSessionEvent("created", o.sessions.Count())
		o.hub.Publish(protocol.SessionEvent{
			Type:      protocol.TypeSessionEvent,
			SessionID: sessionID,
			SenderID:  in.SenderID,
			Code:      "created",
			TSMs:      nowMs(),
		})
	}

	switch {
	case in.ImageURL != "":
		o.publishInbound(sessionID, in, memory.KindImage)
		o.spawn(func(ctx context.Context) {
			o.recordInbound(ctx, sessionID, in, memory.KindImage)
			o.handleImage(ctx, sessionID, in.SenderID, in.ImageURL)
		})
	case in.Text != "" && !in.HasAttachments:
		o.publishInbound(sessionID, in, memory.KindText)
		o.spawn(func(ctx context.Context) {
			o.recordInbound(ctx, sessionID, in, memory.KindText)
			o.handleText(ctx, sessionID, in.Text)
		})
	default:
		o.wg.Done()
		log.Printf("conversation: nothing to handle for session %s", sessionID)
	}
	return sessionID, nil
}

// Close stops accepting work and waits for in-flight pipelines. When ctx
// ends first, outstanding work is cancelled and ctx's error returned.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.cancel()
		<-done
		return ctx.Err()
	}
}

// begin registers one unit of work unless the orchestrator is closed. The
// caller must either spawn it or call o.wg.Done.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.wg.Add(1)
	return true
}

// spawn runs fn for the unit registered by begin.
func (o *Orchestrator) spawn(fn func(ctx context.Context)) {
	go func() {
		defer o.wg.Done()
		fn(o.baseCtx)
	}()
}

func (o *Orchestrator) handleText(ctx context.Context, sessionID, text string) {
	planCtx, cancel := context.WithTimeout(ctx, o.planTimeout)
	defer cancel()

	start := time.Now()
	err := o.sessions.Run(planCtx, sessionID, func(c session.Context) (session.Context, error) {
		return o.extractor.RunActions(planCtx, sessionID, text, c, o.runner)
	})
	if err != nil {
		log.Printf("conversation: plan for session %s failed after %s: %v", sessionID, time.Since(start).Round(time.Millisecond), err)
		o.metrics.ObserveProviderError("nlp", planErrorCode(err))
		o.publishError(sessionID, "nlp", planErrorCode(err), err)
		return
	}
	log.Printf("conversation: session %s waiting for further messages", sessionID)
}

func (o *Orchestrator) handleImage(ctx context.Context, sessionID, senderID, imageURL string) {
	o.send(ctx, senderID, ImageAck)

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	start := time.Now()
	annotations, err := o.vision.Analyze(callCtx, imageURL)
	cancel()
	o.metrics.ObserveCall("vision", time.Since(start), err)
	if err != nil {
		log.Printf("conversation: analyzing image for session %s failed: %v", sessionID, err)
		o.metrics.ObserveProviderError("vision", "annotate_failed")
		o.publishError(sessionID, "vision", "annotate_failed", err)
		return
	}

	summary := vision.Summarize(annotations)
	o.hub.Publish(protocol.ImageSummary{
		Type:      protocol.TypeImageSummary,
		SessionID: sessionID,
		ImageURL:  imageURL,
		Labels:    summary.Labels,
		Faces:     summary.Faces,
		TSMs:      nowMs(),
	})
	for _, msg := range summary.Messages() {
		o.send(ctx, senderID, msg)
	}
}

func (o *Orchestrator) send(ctx context.Context, recipientID, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	// Failures are logged by the observed sink.
	_ = o.sink.Send(sendCtx, recipientID, text)
}

func (o *Orchestrator) recordInbound(ctx context.Context, sessionID string, in protocol.Inbound, kind string) {
	content := in.Text
	if kind == memory.KindImage {
		content = in.ImageURL
	}
	o.transcript.Record(ctx, memory.TurnRecord{
		SenderID:  in.SenderID,
		SessionID: sessionID,
		Direction: memory.DirectionInbound,
		Kind:      kind,
		Content:   content,
	})
}

func (o *Orchestrator) publishInbound(sessionID string, in protocol.Inbound, kind string) {
	o.hub.Publish(protocol.InboundMessage{
		Type:      protocol.TypeInboundMessage,
		SessionID: sessionID,
		SenderID:  in.SenderID,
		Kind:      kind,
		Text:      in.Text,
		ImageURL:  in.ImageURL,
		TSMs:      nowMs(),
	})
}

func (o *Orchestrator) onSend(recipientID, text string, err error) {
	sessionID, _ := o.sessions.Lookup(recipientID)
	ev := protocol.OutboundMessage{
		Type:        protocol.TypeOutboundMessage,
		SessionID:   sessionID,
		RecipientID: recipientID,
		Text:        text,
		Delivered:   err == nil,
		TSMs:        nowMs(),
	}
	if err != nil {
		ev.Error = err.Error()
	} else {
		o.transcript.Record(o.baseCtx, memory.TurnRecord{
			SenderID:  recipientID,
			SessionID: sessionID,
			Direction: memory.DirectionOutbound,
			Kind:      memory.KindText,
			Content:   text,
		})
	}
	o.hub.Publish(ev)
}

func (o *Orchestrator) onStep(sessionID string, kind actions.Kind, c session.Context) {
	o.hub.Publish(protocol.ActionStep{
		Type:      protocol.TypeActionStep,
		SessionID: sessionID,
		Action:    string(kind),
		Context:   contextMap(c),
		TSMs:      nowMs(),
	})
}

func (o *Orchestrator) onExpire(s *session.Session) {
	o.metrics.ObserveSessionEvent("expired", o.sessions.Count())
	o.hub.Publish(protocol.SessionEvent{
		Type:      protocol.TypeSessionEvent,
		SessionID: s.ID,
		SenderID:  s.SenderID,
		Code:      "expired",
		TSMs:      nowMs(),
	})
}

func (o *Orchestrator) publishError(sessionID, source, code string, err error) {
	o.hub.Publish(protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      code,
		Source:    source,
		Retryable: errors.Is(err, context.DeadlineExceeded),
		Detail:    err.Error(),
		TSMs:      nowMs(),
	})
}

func planErrorCode(err error) string {
	switch {
	case errors.Is(err, nlp.ErrMaxSteps):
		return "max_steps"
	case errors.Is(err, actions.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, nlp.ErrEngine):
		return "engine_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, session.ErrNotFound):
		return "session_gone"
	default:
		return "transport"
	}
}

func contextMap(c session.Context) map[string]any {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func nowMs() int64 { return time.Now().UnixMilli() }
