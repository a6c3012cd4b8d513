// Package stats provides the persistence layer for generation history and
// webhook tracking state. It defines the schema using GORM and aggregates
// the counters shown on the public and admin stats endpoints.
package stats

import (
	"time"
)

// Generation represents one successfully generated profile.
// The private key is never stored; only the selection parameters and the
// webhook delivery outcome are kept for accounting.
type Generation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`    // Unique identifier for the record
	Mode          string    `gorm:"not null" json:"mode"`    // Selection mode: "auto", "list" or "custom"
	Endpoint      string    `gorm:"not null" json:"endpoint"` // Endpoint written into the profile ("host:port")
	Port          int       `json:"port"`                    // UDP port used for candidate probing
	ClientIP      string    `json:"client_ip"`               // Requesting client address
	WebhookStatus string    `json:"webhook_status"`          // Delivery outcome: "success", "failed", "skipped" or "expired"
	WebhookCode   *int      `json:"webhook_code,omitempty"`  // HTTP status of the webhook delivery, when one was made
	CreatedAt     time.Time `json:"created_at"`              // Generation timestamp
}

// WebhookSyncState is the single-row record of the latest read-back sync
// against the webhook receiver.
type WebhookSyncState struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ReceivedTotal      int        `json:"received_total"`         // Entries the receiver reported in total
	ReceivedUpToCutoff int        `json:"received_upto_cutoff"`   // Entries created on or before the cutoff date
	TrackingState      string     `gorm:"default:unknown" json:"tracking_state"` // "unknown", "active", "disabled", "expired" or "error"
	SyncError          string     `json:"sync_error"`             // Failure description for the last sync, empty on success
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"` // When the last sync ran
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName returns the database table name for the Generation model.
func (Generation) TableName() string {
	return "generations"
}

// TableName returns the database table name for the WebhookSyncState model.
func (WebhookSyncState) TableName() string {
	return "webhook_sync_states"
}
