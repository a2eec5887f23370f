package apikey

import (
	"maps"
	"slices"
	"time"

	"gorm.io/datatypes"

	"computegate/internal/db"
)

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// Aggregate is an API key's state folded from its events.
type Aggregate struct {
	ID           string
	Name         string
	KeyHash      string
	KeyPrefix    string
	Permissions  []string
	Metadata     map[string]any
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastUsedAt   *time.Time
	ExpiresAt    *time.Time
	RevokedAt    *time.Time
	RevokeReason string

	// Version counts applied events, unknown ones included.
	Version int
}

func NewAggregate(id string) *Aggregate {
	return &Aggregate{ID: id}
}

// Apply folds evs, oldest first, into the aggregate. Unknown event types are
// skipped; a malformed payload of a known type is an error.
func (a *Aggregate) Apply(evs []db.Event) error {
	for _, ev := range evs {
		e, err := decode(ev)
		if err != nil {
			return err
		}
		a.apply(e, ev.Timestamp)
	}
	return nil
}

func (a *Aggregate) apply(e Event, at time.Time) {
	a.Version++

	switch e := e.(type) {
	case Created:
		a.Name = e.Name
		a.KeyHash = e.KeyHash
		a.KeyPrefix = e.KeyPrefix
		a.Permissions = slices.Clone(e.Permissions)
		a.Metadata = maps.Clone(e.Metadata)
		a.ExpiresAt = e.ExpiresAt
		a.Status = StatusActive
		a.CreatedAt = at
	case Revoked:
		a.Status = StatusRevoked
		a.RevokedAt = &at
		a.RevokeReason = e.Reason
	case Used:
		a.LastUsedAt = &at
	case Unknown:
		return
	}
	a.UpdatedAt = at
}

// Exists reports whether a creation event has been applied.
func (a *Aggregate) Exists() bool {
	return a.Status != ""
}

// ExpiredAt reports whether the key's expiry is at or before now.
func (a *Aggregate) ExpiredAt(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// ToSummary renders the read model. Collections are copied so the summary
// does not alias the aggregate.
func (a *Aggregate) ToSummary() db.APIKeySummary {
	perms := slices.Clone(a.Permissions)
	if perms == nil {
		perms = []string{}
	}
	meta := maps.Clone(a.Metadata)
	if meta == nil {
		meta = map[string]any{}
	}

	return db.APIKeySummary{
		ID:           a.ID,
		Name:         a.Name,
		KeyHash:      a.KeyHash,
		KeyPrefix:    a.KeyPrefix,
		Permissions:  datatypes.JSONSlice[string](perms),
		Metadata:     datatypes.JSONMap(meta),
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		LastUsedAt:   a.LastUsedAt,
		ExpiresAt:    a.ExpiresAt,
		RevokedAt:    a.RevokedAt,
		RevokeReason: a.RevokeReason,
	}
}
