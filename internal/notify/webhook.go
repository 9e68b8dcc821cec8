package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/events"
	"playlistdl/internal/net"
	"playlistdl/internal/utils/logging"
)

const applicationJSON = "application/json"

// Payload is the JSON body POSTed to webhook URLs.
type Payload struct {
	Event   events.Kind `json:"event"`
	BatchID string      `json:"batch_id"`
	Time    time.Time   `json:"time"`
	Summary any         `json:"summary,omitempty"`
	Failure any         `json:"failure,omitempty"`
}

// Webhook POSTs batch completions and permanent failures to configured URLs.
//
// LAN targets skip TLS verification so self-signed home servers work.
type Webhook struct {
	URLs []string

	regClient *http.Client
	lanClient *http.Client
}

// NewWebhook returns a webhook sink for urls.
func NewWebhook(urls []string) *Webhook {
	return &Webhook{
		URLs:      urls,
		regClient: &http.Client{Timeout: consts.HTTPClientTimeout},
		lanClient: &http.Client{
			Timeout: consts.HTTPClientTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
	}
}

// Handle implements events.Sink.
func (w *Webhook) Handle(ev events.Event) {
	if ev.Kind != events.BatchComplete && ev.Kind != events.BatchError {
		return
	}
	p := Payload{Event: ev.Kind, BatchID: ev.BatchID, Time: ev.Time}
	if ev.Summary != nil {
		p.Summary = ev.Summary
	}
	if ev.Failure != nil {
		p.Failure = ev.Failure
	}

	if err := w.Notify(context.Background(), p); err != nil {
		logging.E("Webhook notification failed: %v", err)
	}
}

// Notify sends p to every URL and joins the failures.
func (w *Webhook) Notify(ctx context.Context, p Payload) error {
	if len(w.URLs) == 0 {
		logging.D(1, "No notification URLs configured")
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not encode notification: %w", err)
	}

	errs := make([]error, 0, len(w.URLs))
	for _, notifyURL := range w.URLs {
		parsed, err := url.Parse(notifyURL)
		if err != nil || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("invalid notification URL %q", notifyURL))
			continue
		}

		client := w.regClient
		if net.IsPrivateNetwork(parsed.Host) {
			client = w.lanClient
		}

		if err := post(ctx, client, notifyURL, body); err != nil {
			errs = append(errs, fmt.Errorf("failed to notify URL %q: %w", notifyURL, err))
			continue
		}
		logging.S("Notified %q of %s for batch %s", notifyURL, p.Event, p.BatchID)
	}
	return errors.Join(errs...)
}

func post(ctx context.Context, client *http.Client, notifyURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notifyURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", applicationJSON)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.E("Failed to close HTTP response body: %v", err)
		}
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification failed with status %d", resp.StatusCode)
	}
	return nil
}
