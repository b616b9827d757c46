// Package notify delivers finished leads to an external webhook.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/lead"
)

const (
	SignatureHeader = "X-Bouw-Signature"
	TimestampHeader = "X-Bouw-Timestamp"
	EventHeader     = "X-Bouw-Event"

	eventLeadReady = "lead.ready"
)

// Webhook posts a signed JSON payload for every lead whose page is ready.
// The signature is hex(HMAC-SHA256(secret, timestamp + "." + body)).
type Webhook struct {
	URL        string
	Secret     string
	HTTPClient *http.Client
	Attempts   int
	Backoff    time.Duration
	now        func() time.Time
}

// NewWebhook builds a webhook notifier. Options override the defaults.
func NewWebhook(url, secret string, opts ...func(*Webhook)) *Webhook {
	w := &Webhook{
		URL:        url,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Attempts:   3,
		Backoff:    500 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func WithHTTPClient(c *http.Client) func(*Webhook) {
	return func(w *Webhook) {
		if c != nil {
			w.HTTPClient = c
		}
	}
}

func WithRetry(attempts int, backoff time.Duration) func(*Webhook) {
	return func(w *Webhook) {
		if attempts > 0 {
			w.Attempts = attempts
		}
		if backoff >= 0 {
			w.Backoff = backoff
		}
	}
}

// Payload is the webhook body.
type Payload struct {
	Event     string      `json:"event"`
	JobID     string      `json:"job_id"`
	Status    jobs.Status `json:"status"`
	Lead      lead.Record `json:"lead"`
	HasPage   bool        `json:"has_page"`
	CreatedAt time.Time   `json:"created_at"`
	SentAt    time.Time   `json:"sent_at"`
}

// errPermanent marks responses that a retry cannot fix.
var errPermanent = errors.New("notify: permanent failure")

// NotifyLead implements jobs.Notifier.
func (w *Webhook) NotifyLead(ctx context.Context, job jobs.Job) error {
	if w == nil || strings.TrimSpace(w.URL) == "" {
		return errors.New("notify: webhook url is not set")
	}
	if w.Secret == "" {
		return errors.New("notify: webhook secret is not set")
	}
	if !job.Current.ContactCollected() {
		return fmt.Errorf("notify: job %s has no contact", job.ID)
	}

	sentAt := w.now().UTC()
	body, err := json.Marshal(Payload{
		Event:     eventLeadReady,
		JobID:     job.ID,
		Status:    job.Status,
		Lead:      job.Current,
		HasPage:   job.Artifact != nil,
		CreatedAt: job.CreatedAt.UTC(),
		SentAt:    sentAt,
	})
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}
	ts := strconv.FormatInt(sentAt.Unix(), 10)
	signature := Sign(w.Secret, ts, body)

	var lastErr error
	for attempt := 0; attempt < w.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("notify: %w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(w.Backoff * time.Duration(attempt)):
			}
		}
		lastErr = w.post(ctx, body, ts, signature)
		if lastErr == nil || errors.Is(lastErr, errPermanent) {
			return lastErr
		}
	}
	return lastErr
}

func (w *Webhook) post(ctx context.Context, body []byte, ts, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, eventLeadReady)
	req.Header.Set(TimestampHeader, ts)
	req.Header.Set(SignatureHeader, "sha256="+signature)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err = fmt.Errorf("notify: webhook non-2xx: %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return err
	}
	return fmt.Errorf("%w: %v", errPermanent, err)
}

// Sign returns the hex signature of body for the given timestamp.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header produced by Sign.
func Verify(secret, timestamp string, body []byte, header string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(Sign(secret, timestamp, body))
	return hmac.Equal(got, want)
}

var _ jobs.Notifier = (*Webhook)(nil)
