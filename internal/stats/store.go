package stats

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps a GORM database instance and provides the operations the API
// and the webhook tracker need: recording generations, aggregating counters
// and persisting the single webhook sync state row.
type Store struct {
	*gorm.DB
}

// New creates a Store backed by SQLite at dbPath and runs migrations for all
// models. Use ":memory:" for an ephemeral store.
func New(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Generation{}, &WebhookSyncState{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{DB: db}, nil
}

// RecordGeneration inserts a generation record.
func (s *Store) RecordGeneration(generation *Generation) error {
	return s.Create(generation).Error
}

// RecentGenerations retrieves the most recent generation records, newest
// first. The limit parameter caps the number of records returned.
func (s *Store) RecentGenerations(limit int) ([]Generation, error) {
	var generations []Generation
	err := s.Order("id desc").Limit(limit).Find(&generations).Error
	return generations, err
}

// Summary aggregates the counters for the stats endpoints. The field names
// match the keys the JSON API exposes.
type Summary struct {
	TotalGenerations   int64      `json:"total_generations"`
	WebhookSuccess     int64      `json:"webhook_success"`
	WebhookFailed      int64      `json:"webhook_failed"`
	WebhookSkipped     int64      `json:"webhook_skipped"`
	LastWebhookCode    *int       `json:"last_webhook_status_code"`
	ReceivedTotal      int        `json:"webhook_received_total"`
	ReceivedUpToCutoff int        `json:"webhook_received_upto_cutoff"`
	TrackingState      string     `json:"webhook_tracking_state"`
	SyncError          string     `json:"webhook_sync_error"`
	LastSyncAt         *time.Time `json:"webhook_last_sync_at"`
}

// Summary computes the aggregate view over all recorded generations plus the
// current webhook sync state. Deliveries that were neither a success nor a
// failure (skipped or expired) count into the skipped bucket.
func (s *Store) Summary() (*Summary, error) {
	summary := &Summary{TrackingState: "unknown"}

	if err := s.Model(&Generation{}).Count(&summary.TotalGenerations).Error; err != nil {
		return nil, fmt.Errorf("failed to count generations: %w", err)
	}
	if err := s.Model(&Generation{}).Where("webhook_status = ?", "success").Count(&summary.WebhookSuccess).Error; err != nil {
		return nil, fmt.Errorf("failed to count webhook successes: %w", err)
	}
	if err := s.Model(&Generation{}).Where("webhook_status = ?", "failed").Count(&summary.WebhookFailed).Error; err != nil {
		return nil, fmt.Errorf("failed to count webhook failures: %w", err)
	}
	summary.WebhookSkipped = summary.TotalGenerations - summary.WebhookSuccess - summary.WebhookFailed

	var latest Generation
	err := s.Order("id desc").First(&latest).Error
	if err == nil {
		summary.LastWebhookCode = latest.WebhookCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load latest generation: %w", err)
	}

	state, err := s.SyncState()
	if err != nil {
		return nil, err
	}
	summary.ReceivedTotal = state.ReceivedTotal
	summary.ReceivedUpToCutoff = state.ReceivedUpToCutoff
	summary.TrackingState = state.TrackingState
	summary.SyncError = state.SyncError
	summary.LastSyncAt = state.LastSyncAt

	return summary, nil
}

// SyncState retrieves the webhook sync state row, creating the default row
// on first use so callers can always fetch, modify and save.
func (s *Store) SyncState() (*WebhookSyncState, error) {
	var state WebhookSyncState
	err := s.First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = WebhookSyncState{TrackingState: "unknown"}
		if err := s.Create(&state).Error; err != nil {
			return nil, fmt.Errorf("failed to initialize sync state: %w", err)
		}
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	return &state, nil
}

// SaveSyncState persists an updated sync state row.
func (s *Store) SaveSyncState(state *WebhookSyncState) error {
	return s.Save(state).Error
}
