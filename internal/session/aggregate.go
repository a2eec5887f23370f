package session

import (
	"maps"
	"time"

	"gorm.io/datatypes"

	"computegate/internal/db"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Aggregate is a client session folded from its events.
type Aggregate struct {
	ID             string
	ComputeID      string
	CreatedBy      string
	Metadata       map[string]any
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt *time.Time
	ClosedAt       *time.Time
	CloseReason    string
}

func NewAggregate(id string) *Aggregate {
	return &Aggregate{ID: id}
}

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
	switch e := e.(type) {
	case Created:
		a.ComputeID = e.ComputeID
		a.CreatedBy = e.CreatedBy
		a.Metadata = maps.Clone(e.Metadata)
		a.Status = StatusActive
		a.CreatedAt = at
		a.LastActivityAt = &at
	case Activity:
		a.LastActivityAt = &at
	case Closed:
		a.Status = StatusClosed
		a.ClosedAt = &at
		a.CloseReason = e.Reason
	default:
		return
	}
	a.UpdatedAt = at
}

func (a *Aggregate) Exists() bool {
	return a.Status != ""
}

func (a *Aggregate) ToSummary() db.SessionSummary {
	meta := maps.Clone(a.Metadata)
	if meta == nil {
		meta = map[string]any{}
	}
	return db.SessionSummary{
		ID:             a.ID,
		ComputeID:      a.ComputeID,
		CreatedBy:      a.CreatedBy,
		Metadata:       datatypes.JSONMap(meta),
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		LastActivityAt: a.LastActivityAt,
		ClosedAt:       a.ClosedAt,
		CloseReason:    a.CloseReason,
	}
}
