package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
)

// Webhook is a registered automation callback: the payload of every
// event of the given kind is POSTed to the URL.
type Webhook struct {
	ID    string   `json:"id"`
	Event bus.Kind `json:"event"`
	URL   string   `json:"url"`
}

// WebhookDispatcher delivers bus events to registered webhooks.
// Deliveries are fire-and-forget; failures are logged, never retried.
type WebhookDispatcher struct {
	mu         sync.Mutex
	hooks      map[string]*Webhook
	unsubs     map[string]func()
	bus        *bus.Bus
	httpClient *http.Client
}

// NewWebhookDispatcher creates a dispatcher over the bus.
func NewWebhookDispatcher(b *bus.Bus) *WebhookDispatcher {
	return &WebhookDispatcher{
		hooks:      make(map[string]*Webhook),
		unsubs:     make(map[string]func()),
		bus:        b,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register subscribes a URL to an event kind and returns the hook.
func (d *WebhookDispatcher) Register(event bus.Kind, url string) *Webhook {
	hook := &Webhook{ID: uuid.New().String(), Event: event, URL: url}

	unsub := d.bus.Subscribe(event, func(e bus.Event) {
		go d.deliver(hook, e)
	})

	d.mu.Lock()
	d.hooks[hook.ID] = hook
	d.unsubs[hook.ID] = unsub
	d.mu.Unlock()
	return hook
}

// Unregister removes a webhook by id.
func (d *WebhookDispatcher) Unregister(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	unsub, ok := d.unsubs[id]
	if !ok {
		return false
	}
	unsub()
	delete(d.hooks, id)
	delete(d.unsubs, id)
	return true
}

// List returns all registered webhooks.
func (d *WebhookDispatcher) List() []*Webhook {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Webhook, 0, len(d.hooks))
	for _, h := range d.hooks {
		out = append(out, h)
	}
	return out
}

func (d *WebhookDispatcher) deliver(hook *Webhook, e bus.Event) {
	body, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("webhook", hook.ID).Msg("webhook payload encode failed")
		return
	}
	resp, err := d.httpClient.Post(hook.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("webhook", hook.ID).Str("url", hook.URL).
			Msg("webhook delivery failed")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("webhook", hook.ID).
			Msg("webhook delivery rejected")
	}
}
