// Package notify delivers generation events to an external webhook receiver
// and reads the receiver's request log back to keep delivery statistics in
// sync. Tracking is time-boxed: after the configured cutoff date events are
// no longer sent and syncs report the window as expired.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

// Delivery statuses recorded per generation.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusExpired = "expired"
)

// Tracking states for the read-back sync.
const (
	TrackingActive   = "active"
	TrackingDisabled = "disabled"
	TrackingExpired  = "expired"
	TrackingError    = "error"
)

// DefaultCutoffDate bounds the tracking window when none is configured.
const DefaultCutoffDate = "2026-02-25"

const (
	sendTimeout = 8 * time.Second
	readTimeout = 10 * time.Second

	// maxReadBody caps how much of the receiver's request log is read.
	maxReadBody = 1 << 20
)

// webhookSiteToken matches the receiver token inside a webhook.site URL.
var webhookSiteToken = regexp.MustCompile(`webhook\.site/([0-9a-fA-F-]{36})`)

// Delivery is the outcome of one webhook send.
type Delivery struct {
	Status     string
	StatusCode *int // HTTP status of the delivery, nil when no response arrived
}

// SyncResult is the outcome of one read-back sync.
type SyncResult struct {
	ReceivedTotal      int
	ReceivedUpToCutoff int
	TrackingState      string
	SyncError          string
}

// Webhook sends generation events to a receiver and reads its request log
// back. An empty URL disables sending entirely; a missing ReadURL is derived
// from the send URL when the receiver is webhook.site.
type Webhook struct {
	URL     string
	ReadURL string
	Cutoff  time.Time // last day, inclusive, of the tracking window
	Client  *http.Client

	logger *slog.Logger
	now    func() time.Time
}

// NewWebhook creates a Webhook. The cutoff is a "YYYY-MM-DD" date;
// unparseable values fall back to DefaultCutoffDate.
func NewWebhook(url, readURL, cutoff string, logger *slog.Logger) *Webhook {
	return &Webhook{
		URL:     url,
		ReadURL: readURL,
		Cutoff:  parseCutoff(cutoff),
		Client:  &http.Client{Timeout: readTimeout},
		logger:  logger.With("component", "notify"),
		now:     time.Now,
	}
}

func parseCutoff(value string) time.Time {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", DefaultCutoffDate)
	return t
}

// expired reports whether today's UTC date is past the cutoff.
func (w *Webhook) expired() bool {
	year, month, day := w.now().UTC().Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return today.After(w.Cutoff)
}

// eventPayload is the body delivered for each generation.
type eventPayload struct {
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
	ClientIP  string `json:"client_ip"`
	Mode      string `json:"mode"`
	Endpoint  string `json:"endpoint"`
	Port      int    `json:"port"`
}

// Send posts a warp_key_generated event to the receiver. It never returns an
// error: the outcome is a Delivery the caller records, and a failed delivery
// must not fail the generation it describes.
func (w *Webhook) Send(ctx context.Context, clientIP, mode, endpoint string, port int) Delivery {
	if w.URL == "" {
		return Delivery{Status: StatusSkipped}
	}
	if w.expired() {
		return Delivery{Status: StatusExpired}
	}

	payload, err := json.Marshal(eventPayload{
		Event:     "warp_key_generated",
		Timestamp: w.now().Unix(),
		ClientIP:  clientIP,
		Mode:      mode,
		Endpoint:  endpoint,
		Port:      port,
	})
	if err != nil {
		return Delivery{Status: StatusFailed}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		w.logger.Warn("webhook request build failed", "error", err)
		return Delivery{Status: StatusFailed}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed", "error", err)
		return Delivery{Status: StatusFailed}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxReadBody))

	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return Delivery{Status: StatusSuccess, StatusCode: &code}
	}
	w.logger.Warn("webhook delivery rejected", "status", code)
	return Delivery{Status: StatusFailed, StatusCode: &code}
}

// Sync reads the receiver's request log and counts the entries created
// inside the tracking window. Like Send it reports rather than fails.
func (w *Webhook) Sync(ctx context.Context) SyncResult {
	if w.URL == "" {
		return SyncResult{TrackingState: TrackingDisabled, SyncError: "webhook URL is empty"}
	}
	if w.expired() {
		return SyncResult{
			TrackingState: TrackingExpired,
			SyncError:     fmt.Sprintf("tracking ended after %s", w.Cutoff.Format("2006-01-02")),
		}
	}

	readURLs := w.readURLs()
	if len(readURLs) == 0 {
		return SyncResult{TrackingState: TrackingError, SyncError: "unable to derive webhook read URL"}
	}

	var total int
	var entries []receivedEntry
	fetched := false
	lastError := ""
	for _, url := range readURLs {
		var err error
		total, entries, err = w.fetchLog(ctx, url)
		if err != nil {
			lastError = err.Error()
			continue
		}
		fetched = true
		break
	}
	if !fetched {
		if lastError == "" {
			lastError = "webhook read failed"
		}
		return SyncResult{TrackingState: TrackingError, SyncError: lastError}
	}

	upToCutoff := 0
	for _, entry := range entries {
		if created, ok := entry.createdTime(); ok && !dayOf(created).After(w.Cutoff) {
			upToCutoff++
		}
	}

	return SyncResult{
		ReceivedTotal:      total,
		ReceivedUpToCutoff: upToCutoff,
		TrackingState:      TrackingActive,
	}
}

// readURLs derives the endpoints to read the receiver's log from.
func (w *Webhook) readURLs() []string {
	if w.ReadURL != "" {
		return []string{w.ReadURL}
	}
	match := webhookSiteToken.FindStringSubmatch(w.URL)
	if match == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("https://webhook.site/token/%s/requests?sorting=newest", match[1]),
		fmt.Sprintf("https://webhook.site/token/%s/requests", match[1]),
	}
}

// receivedEntry is one request in the receiver's log. Receivers disagree on
// the creation timestamp key, so all known spellings are tried.
type receivedEntry struct {
	CreatedAt      string `json:"created_at"`
	CreatedAtCamel string `json:"createdAt"`
	Created        string `json:"created"`
}

func (e receivedEntry) createdTime() (time.Time, bool) {
	for _, value := range []string{e.CreatedAt, e.CreatedAtCamel, e.Created} {
		if value == "" {
			continue
		}
		if t, ok := parseTimestamp(value); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// timestampLayouts covers the formats receivers emit: RFC 3339 with and
// without zone, webhook.site's space-separated form, and a bare date.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayOf truncates a timestamp to its calendar date in its own zone.
func dayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// fetchLog reads one receiver log endpoint. The payload shape varies between
// receivers: an object wrapping a "data" or "requests" list, or a bare list.
// The total counts every listed item; entries carry only the decodable ones.
func (w *Webhook) fetchLog(ctx context.Context, url string) (total int, entries []receivedEntry, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("webhook read request build failed: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return 0, nil, errors.New("webhook read connection error")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBody))
	if err != nil {
		return 0, nil, errors.New("webhook read connection error")
	}

	var envelope struct {
		Data     json.RawMessage `json:"data"`
		Requests json.RawMessage `json:"requests"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if total, entries, ok := decodeLog(envelope.Data); ok {
			return total, entries, nil
		}
		if total, entries, ok := decodeLog(envelope.Requests); ok {
			return total, entries, nil
		}
	}
	if total, entries, ok := decodeLog(body); ok {
		return total, entries, nil
	}
	return 0, nil, errors.New("unexpected webhook response format")
}

// decodeLog decodes a request list. Items that are not objects still count
// into the total but carry no timestamp.
func decodeLog(raw json.RawMessage) (int, []receivedEntry, bool) {
	if len(raw) == 0 {
		return 0, nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, nil, false
	}
	entries := make([]receivedEntry, 0, len(items))
	for _, item := range items {
		var entry receivedEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return len(items), entries, true
}
