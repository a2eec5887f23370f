package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event is one immutable fact in an aggregate's stream. Rows are only ever
// inserted; DeletedAt exists as a soft-delete marker for operators and is
// never set by the application.
type Event struct {
	ID uint `gorm:"primaryKey" json:"-"`

	EventID       string `gorm:"uniqueIndex;size:36;not null" json:"event_id"`
	AggregateID   string `gorm:"index;size:64;not null" json:"aggregate_id"`
	AggregateType string `gorm:"index;size:32;not null" json:"aggregate_type"`
	Type          string `gorm:"size:64;not null" json:"type"`

	// Data is the JSON payload; its schema is determined by Type.
	Data datatypes.JSON `gorm:"type:text;not null" json:"data"`

	// Timestamp is authoritative for ordering and for lifecycle fields
	// derived by aggregates (created_at, revoked_at, ...).
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// APIKeySummary is the read model for an API key. KeyHash never leaves the
// process: it is excluded from JSON by the struct tag itself.
type APIKeySummary struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	Name      string `gorm:"size:128;not null" json:"name"`
	KeyHash   string `gorm:"size:255;not null;index" json:"-"`
	KeyPrefix string `gorm:"size:32;not null" json:"key_prefix"`

	Permissions datatypes.JSONSlice[string] `gorm:"type:json" json:"permissions"`
	Metadata    datatypes.JSONMap           `gorm:"type:json" json:"metadata"`

	Status string `gorm:"size:16;index;not null" json:"status"`

	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokeReason string     `gorm:"size:255" json:"revoke_reason,omitempty"`

	// FullKey carries the plaintext key out of CreateAPIKey. It is never
	// persisted and never populated by a read.
	FullKey string `gorm:"-" json:"full_key,omitempty"`
}

func (APIKeySummary) TableName() string { return "api_key_summaries" }

// PresetSummary is the read model for a saved sandbox preset.
type PresetSummary struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	Name        string         `gorm:"size:128;not null" json:"name"`
	Description string         `gorm:"size:1024" json:"description"`
	Config      datatypes.JSON `gorm:"type:json" json:"config"`
	IsPublic    bool           `gorm:"index;not null;default:false" json:"is_public"`
	CreatedBy   string         `gorm:"index;size:36;not null" json:"created_by"`

	Status string `gorm:"size:16;index;not null" json:"status"`

	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeletedBy    string     `gorm:"size:36" json:"deleted_by,omitempty"`
	DeleteReason string     `gorm:"size:255" json:"delete_reason,omitempty"`
}

func (PresetSummary) TableName() string { return "preset_summaries" }

// ComputeSummary is the read model for a sandbox recorded against a provider.
type ComputeSummary struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	Provider  string            `gorm:"size:32;index;not null" json:"provider"`
	SandboxID string            `gorm:"size:128;not null" json:"sandbox_id"`
	Runtime   string            `gorm:"size:32" json:"runtime,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedBy string            `gorm:"index;size:36;not null" json:"created_by"`

	Status string `gorm:"size:16;index;not null" json:"status"`

	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DestroyedAt   *time.Time `json:"destroyed_at,omitempty"`
	DestroyedBy   string     `gorm:"size:36" json:"destroyed_by,omitempty"`
	DestroyReason string     `gorm:"size:255" json:"destroy_reason,omitempty"`
}

func (ComputeSummary) TableName() string { return "compute_summaries" }

// SessionSummary is the read model for a client session on a compute.
type SessionSummary struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	ComputeID string            `gorm:"index;size:36;not null" json:"compute_id"`
	CreatedBy string            `gorm:"index;size:36;not null" json:"created_by"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`

	Status string `gorm:"size:16;index;not null" json:"status"`

	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CloseReason    string     `gorm:"size:255" json:"close_reason,omitempty"`
}

func (SessionSummary) TableName() string { return "session_summaries" }
