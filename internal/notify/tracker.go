package notify

import (
	"context"
	"log/slog"
	"time"

	"warpgen/internal/generator"
	"warpgen/internal/stats"
)

// Tracker records each generation together with its webhook delivery outcome
// and keeps the persisted tracking state fresh. It satisfies the generator's
// notifier contract.
type Tracker struct {
	webhook *Webhook
	store   *stats.Store
	logger  *slog.Logger
}

// NewTracker wires a webhook and a stats store together.
func NewTracker(webhook *Webhook, store *stats.Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		webhook: webhook,
		store:   store,
		logger:  logger.With("component", "notify"),
	}
}

// GenerationSucceeded delivers the event, records the generation and
// refreshes the tracking state. Failures are logged, never surfaced:
// accounting must not fail a generation that already succeeded.
func (t *Tracker) GenerationSucceeded(ctx context.Context, event generator.Event) {
	delivery := t.webhook.Send(ctx, event.ClientIP, event.Mode, event.Endpoint, event.Port)

	record := &stats.Generation{
		Mode:          event.Mode,
		Endpoint:      event.Endpoint,
		Port:          event.Port,
		ClientIP:      event.ClientIP,
		WebhookStatus: delivery.Status,
		WebhookCode:   delivery.StatusCode,
	}
	if err := t.store.RecordGeneration(record); err != nil {
		t.logger.Error("failed to record generation", "error", err)
	}

	t.Sync(ctx)
}

// Sync reads the receiver's log and persists the resulting tracking state.
// Received counts are only overwritten when the receiver answered; an
// errored sync keeps the last good counts alongside the error.
func (t *Tracker) Sync(ctx context.Context) {
	result := t.webhook.Sync(ctx)

	state, err := t.store.SyncState()
	if err != nil {
		t.logger.Error("failed to load webhook sync state", "error", err)
		return
	}

	if result.TrackingState == TrackingActive {
		state.ReceivedTotal = result.ReceivedTotal
		state.ReceivedUpToCutoff = result.ReceivedUpToCutoff
	}
	state.TrackingState = result.TrackingState
	state.SyncError = result.SyncError
	now := time.Now().UTC()
	state.LastSyncAt = &now

	if err := t.store.SaveSyncState(state); err != nil {
		t.logger.Error("failed to save webhook sync state", "error", err)
	}
}
