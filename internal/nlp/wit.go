package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antoniostano/wayfinder/internal/actions"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/session"
)

// Converse step types returned by wit.ai.
const (
	stepMerge  = "merge"
	stepMsg    = "msg"
	stepAction = "action"
	stepStop   = "stop"
	stepError  = "error"
)

// WitExtractor drives the handlers through the wit.ai converse endpoint.
type WitExtractor struct {
	baseURL    string
	token      string
	apiVersion string
	maxSteps   int
	client     *http.Client
	metrics    *observability.Metrics
}

func NewWitExtractor(baseURL, token, apiVersion string, maxSteps int) *WitExtractor {
	if maxSteps <= 0 {
		maxSteps = 5
	}
	if strings.TrimSpace(apiVersion) == "" {
		apiVersion = "20160526"
	}
	return &WitExtractor{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		apiVersion: strings.TrimSpace(apiVersion),
		maxSteps:   maxSteps,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type converseStep struct {
	Type       string           `json:"type"`
	Msg        string           `json:"msg"`
	Action     string           `json:"action"`
	Entities   actions.Entities `json:"entities"`
	Confidence float64          `json:"confidence"`
	Error      string           `json:"error"`
}

func (w *WitExtractor) RunActions(ctx context.Context, sessionID, text string, c session.Context, h actions.Handlers) (session.Context, error) {
	q := text
	for step := 0; step < w.maxSteps; step++ {
		next, err := w.converse(ctx, sessionID, q, c)
		if err != nil {
			return c, err
		}
		// The message is only sent with the first step of a plan.
		q = ""

		switch next.Type {
		case stepStop:
			return c, nil
		case stepMsg:
			h.Say(ctx, sessionID, c, next.Msg)
		case stepMerge:
			c = h.Merge(ctx, sessionID, c, next.Entities, text)
		case stepAction:
			c, err = h.Action(ctx, next.Action, sessionID, c)
			if err != nil {
				return c, err
			}
		case stepError:
			h.Error(ctx, sessionID, c, text)
			return c, ErrEngine
		default:
			return c, fmt.Errorf("%w: unknown step type %q", ErrEngine, next.Type)
		}
	}
	log.Printf("nlp: session %s stopped after %d steps", sessionID, w.maxSteps)
	return c, ErrMaxSteps
}

func (w *WitExtractor) converse(ctx context.Context, sessionID, q string, c session.Context) (converseStep, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return converseStep{}, fmt.Errorf("marshal context: %w", err)
	}

	params := url.Values{}
	params.Set("v", w.apiVersion)
	params.Set("session_id", sessionID)
	if q != "" {
		params.Set("q", q)
	}
	endpoint := w.baseURL + "/converse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return converseStep{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Accept", "application/vnd.wit."+w.apiVersion+"+json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	step, err := w.do(req)
	w.metrics.ObserveCall("nlp", time.Since(start), err)
	if err != nil {
		w.metrics.ObserveProviderError("nlp", "converse_failed")
	}
	return step, err
}

func (w *WitExtractor) do(req *http.Request) (converseStep, error) {
	res, err := w.client.Do(req)
	if err != nil {
		return converseStep{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return converseStep{}, fmt.Errorf("read response: %w", err)
	}

	var step converseStep
	decodeErr := json.Unmarshal(raw, &step)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && step.Error != "" {
			msg = step.Error
		}
		return converseStep{}, fmt.Errorf("%w: wit status %d: %s", ErrEngine, res.StatusCode, msg)
	}
	if decodeErr != nil {
		return converseStep{}, fmt.Errorf("decode response: %w", decodeErr)
	}
	if step.Error != "" {
		return converseStep{}, fmt.Errorf("%w: %s", ErrEngine, step.Error)
	}
	return step, nil
}
