package compute

import (
	"maps"
	"time"

	"gorm.io/datatypes"

	"computegate/internal/db"
)

const (
	StatusRunning   = "running"
	StatusDestroyed = "destroyed"
)

// Aggregate is a provider sandbox record folded from its events.
type Aggregate struct {
	ID            string
	Provider      string
	SandboxID     string
	Runtime       string
	Metadata      map[string]any
	CreatedBy     string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DestroyedAt   *time.Time
	DestroyedBy   string
	DestroyReason string
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
		a.Provider = e.Provider
		a.SandboxID = e.SandboxID
		a.Runtime = e.Runtime
		a.Metadata = maps.Clone(e.Metadata)
		a.CreatedBy = e.CreatedBy
		a.Status = StatusRunning
		a.CreatedAt = at
	case Destroyed:
		a.Status = StatusDestroyed
		a.DestroyedAt = &at
		a.DestroyedBy = e.DestroyedBy
		a.DestroyReason = e.Reason
	default:
		return
	}
	a.UpdatedAt = at
}

func (a *Aggregate) Exists() bool {
	return a.Status != ""
}

func (a *Aggregate) ToSummary() db.ComputeSummary {
	meta := maps.Clone(a.Metadata)
	if meta == nil {
		meta = map[string]any{}
	}
	return db.ComputeSummary{
		ID:            a.ID,
		Provider:      a.Provider,
		SandboxID:     a.SandboxID,
		Runtime:       a.Runtime,
		Metadata:      datatypes.JSONMap(meta),
		CreatedBy:     a.CreatedBy,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		DestroyedAt:   a.DestroyedAt,
		DestroyedBy:   a.DestroyedBy,
		DestroyReason: a.DestroyReason,
	}
}
