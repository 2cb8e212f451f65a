// Package notify delivers signed webhook notifications for census lifecycle
// events. A single endpoint is configured at startup; when no endpoint is set
// the notifier is a no-op, so callers never need to guard their publish
// sites.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, prefixed
// with "sha256=".
const SignatureHeader = "X-Wardtrack-Signature"

// EventDischarge is published when a census record reaches a terminal status.
const EventDischarge = "census.discharge"

// Event is the wire envelope for every notification.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type dischargeData struct {
	MRN          string    `json:"mrn"`
	Origin       string    `json:"origin"`
	Status       string    `json:"status"`
	DischargedAt time.Time `json:"discharged_at"`
}

// SignPayload computes the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the HMAC-SHA256 of
// payload under secret. Receivers use this to authenticate deliveries.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient overrides the delivery HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.httpClient = c }
}

// WithBackoff overrides the per-attempt retry delays. len(delays)+1 is the
// total number of attempts.
func WithBackoff(delays []time.Duration) Option {
	return func(n *Notifier) { n.backoff = delays }
}

// Notifier posts signed events to the configured endpoint. Deliveries run on
// their own goroutine so request handlers never block on a slow receiver.
type Notifier struct {
	url        string
	secret     string
	httpClient *http.Client
	backoff    []time.Duration
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

// NewNotifier builds a Notifier for the given endpoint. An empty url yields a
// disabled notifier whose publish methods return immediately.
func NewNotifier(url, secret string, logger zerolog.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: []time.Duration{1 * time.Second, 5 * time.Second, 25 * time.Second},
		logger:  logger,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Enabled reports whether an endpoint is configured.
func (n *Notifier) Enabled() bool { return n.url != "" }

// DischargePosted publishes a discharge event. Fire-and-forget: errors are
// logged, never returned.
func (n *Notifier) DischargePosted(ctx context.Context, mrn, origin, status string, dischargedAt time.Time) {
	data, err := json.Marshal(dischargeData{
		MRN:          mrn,
		Origin:       origin,
		Status:       status,
		DischargedAt: dischargedAt,
	})
	if err != nil {
		n.logger.Error().Err(err).Str("mrn", mrn).Msg("failed to encode discharge event")
		return
	}
	n.publish(Event{
		ID:         uuid.New().String(),
		Type:       EventDischarge,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}

func (n *Notifier) publish(event Event) {
	if !n.Enabled() {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// Delivery outlives the originating request, so it gets its own
		// deadline rather than the request context.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := n.deliver(ctx, event); err != nil {
			n.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.Type).
				Msg("webhook delivery failed")
		}
	}()
}

// deliver posts the event, retrying with backoff on network errors and
// non-2xx responses.
func (n *Notifier) deliver(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	sig := SignPayload(payload, n.secret)

	attempts := len(n.backoff) + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = n.post(ctx, event, payload, sig, attempt)
		if lastErr == nil {
			return nil
		}
		if attempt < attempts {
			select {
			case <-time.After(n.backoff[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}

func (n *Notifier) post(ctx context.Context, event Event, payload []byte, sig string, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "sha256="+sig)
	req.Header.Set("X-Wardtrack-Event", event.Type)
	req.Header.Set("X-Wardtrack-Delivery", event.ID)
	req.Header.Set("X-Wardtrack-Timestamp", event.OccurredAt.Format(time.RFC3339))

	start := time.Now()
	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn().
			Err(err).
			Str("event_id", event.ID).
			Int("attempt", attempt).
			Msg("webhook attempt failed")
		return err
	}
	defer resp.Body.Close()

	// Drain at most 1KB so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("non-2xx response: %d", resp.StatusCode)
		n.logger.Warn().
			Str("event_id", event.ID).
			Int("attempt", attempt).
			Int("status", resp.StatusCode).
			Msg("webhook attempt rejected")
		return err
	}

	n.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Int("attempt", attempt).
		Dur("duration", time.Since(start)).
		Msg("webhook delivered")
	return nil
}

// Close waits for in-flight deliveries to finish. Called during graceful
// shutdown.
func (n *Notifier) Close() {
	n.wg.Wait()
}
