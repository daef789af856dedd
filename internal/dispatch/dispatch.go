// Package dispatch decouples "this work should happen" from "do it now".
//
// Callers enqueue a named endpoint plus JSON payload; the Loopback
// implementation delivers it as an HTTP POST back into the application's own
// API after an optional delay. Endpoints must therefore be idempotent: a
// delivery can race a user-triggered run of the same work.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Option configures one enqueue call.
type Option func(*options)

type options struct {
	delay time.Duration
	name  string
}

// WithDelay postpones delivery by d.
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithName names the enqueued work for deduplication: while a delivery with
// the same name is pending, further enqueues of that name are dropped.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Dispatcher enqueues work for asynchronous delivery.
type Dispatcher interface {
	Enqueue(ctx context.Context, endpoint string, payload any, opts ...Option) error
}

// Loopback delivers enqueued work by POSTing it to this application's own
// HTTP API. Deliveries are fire-and-forget: failures are logged, never
// retried, and never reported to the enqueuer.
type Loopback struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewLoopback creates a loopback dispatcher that delivers to baseURL.
func NewLoopback(httpClient *http.Client, baseURL string) *Loopback {
	return &Loopback{
		httpClient: httpClient,
		baseURL:    baseURL,
		pending:    make(map[string]struct{}),
	}
}

// Enqueue implements Dispatcher. The payload is serialized immediately so
// encoding errors surface to the caller; delivery itself happens on a
// background goroutine and is detached from ctx.
func (l *Loopback) Enqueue(ctx context.Context, endpoint string, payload any, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch payload: %w", err)
	}

	if o.name != "" {
		l.mu.Lock()
		if _, dup := l.pending[o.name]; dup {
			l.mu.Unlock()
			log.Printf("dispatch %q already pending, dropping duplicate", o.name)
			return nil
		}
		l.pending[o.name] = struct{}{}
		l.mu.Unlock()
	}

	go l.deliver(endpoint, body, o)
	return nil
}

func (l *Loopback) deliver(endpoint string, body []byte, o options) {
	if o.delay > 0 {
		time.Sleep(o.delay)
	}
	if o.name != "" {
		defer func() {
			l.mu.Lock()
			delete(l.pending, o.name)
			l.mu.Unlock()
		}()
	}

	resp, err := l.httpClient.Post(l.baseURL+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("dispatch to %s failed: %v", endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("dispatch to %s returned HTTP %d", endpoint, resp.StatusCode)
	}
}

// Recorded is one captured Enqueue call.
type Recorded struct {
	Endpoint string
	Payload  []byte
	Delay    time.Duration
	Name     string
}

// Recorder is a Dispatcher that captures enqueues instead of delivering them.
type Recorder struct {
	mu    sync.Mutex
	calls []Recorded
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Enqueue implements Dispatcher.
func (r *Recorder) Enqueue(_ context.Context, endpoint string, payload any, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Recorded{Endpoint: endpoint, Payload: body, Delay: o.delay, Name: o.name})
	return nil
}

// Calls returns a copy of the captured enqueues.
func (r *Recorder) Calls() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.calls...)
}
