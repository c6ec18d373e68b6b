package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/preferredrecruit/intake-gateway/internal/model"
)

// Endpoint is one downstream notification receiver (Slack-style incoming
// webhook, internal bot, etc).
type Endpoint interface {
	Name() string
	Ready() bool
	Acquire() bool
	Send(ctx context.Context, ev model.NotificationEvent) error
}

type HTTPEndpoint struct {
	name   string
	url    string
	client *http.Client
	br     *MicroBreaker
}

func NewHTTPEndpoint(name, url string, timeoutMs, failThreshold, openForMs int) *HTTPEndpoint {
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}

	if failThreshold <= 0 {
		failThreshold = 3
	}

	if openForMs <= 0 {
		openForMs = 15000
	}

	return &HTTPEndpoint{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:     NewMicroBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (e *HTTPEndpoint) Name() string  { return e.name }
func (e *HTTPEndpoint) Ready() bool   { return e.br.Ready() }
func (e *HTTPEndpoint) Acquire() bool { return e.br.TryAcquire() }

func (e *HTTPEndpoint) Send(ctx context.Context, ev model.NotificationEvent) error {
	if err := e.post(ctx, ev); err != nil {
		e.br.OnFailure()
		return err
	}

	e.br.OnSuccess()

	return nil
}

func (e *HTTPEndpoint) post(ctx context.Context, ev model.NotificationEvent) error {
	b, _ := json.Marshal(ev)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("endpoint=%s status=%d", e.name, res.StatusCode)
	}

	return nil
}
