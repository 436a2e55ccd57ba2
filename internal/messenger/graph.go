package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antoniostano/wayfinder/internal/reliability"
)

const (
	retryBase = 200 * time.Millisecond
	retryCap  = 2 * time.Second
)

// GraphSink sends messages through the Messenger Send API.
type GraphSink struct {
	baseURL     string
	pageToken   string
	maxAttempts int
	client      *http.Client
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewGraphSink(baseURL, pageToken string, maxAttempts int) *GraphSink {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &GraphSink{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pageToken:   strings.TrimSpace(pageToken),
		maxAttempts: maxAttempts,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		sleep: sleepContext,
	}
}

type sendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers text, retrying transient failures with capped backoff.
func (g *GraphSink) Send(ctx context.Context, recipientID, text string) error {
	if strings.TrimSpace(recipientID) == "" {
		return ErrEmptyRecipient
	}

	var req sendRequest
	req.Recipient.ID = recipientID
	req.Message.Text = text
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := g.sleep(ctx, reliability.ExponentialBackoff(attempt-1, retryBase, retryCap)); err != nil {
				return err
			}
		}
		lastErr = g.sendOnce(ctx, payload)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (g *GraphSink) sendOnce(ctx context.Context, payload []byte) error {
	endpoint := g.baseURL + "/me/messages?" + url.Values{"access_token": {g.pageToken}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var out sendResponse
	_ = json.Unmarshal(body, &out)
	if out.Error != nil {
		return &SendError{Status: res.StatusCode, Code: out.Error.Code, Message: out.Error.Message}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &SendError{Status: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return nil
}

func retryable(err error) bool {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return reliability.IsRetryableHTTPStatus(sendErr.Status) || reliability.IsRetryableGraphErrorCode(sendErr.Code)
	}
	// Context errors end the attempt loop; transport errors are worth another try.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
