package preset

import (
	"bytes"
	"time"

	"gorm.io/datatypes"

	"computegate/internal/db"
)

const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// Aggregate is a preset folded from its events.
type Aggregate struct {
	ID           string
	Name         string
	Description  string
	Config       []byte
	IsPublic     bool
	CreatedBy    string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	DeletedBy    string
	DeleteReason string
}

func NewAggregate(id string) *Aggregate {
	return &Aggregate{ID: id}
}

// Apply folds evs, oldest first. Unknown event types are skipped.
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
		a.Name = e.Name
		a.Description = e.Description
		a.Config = bytes.Clone(e.Config)
		a.IsPublic = e.IsPublic
		a.CreatedBy = e.CreatedBy
		a.Status = StatusActive
		a.CreatedAt = at
	case Deleted:
		a.Status = StatusDeleted
		a.DeletedAt = &at
		a.DeletedBy = e.DeletedBy
		a.DeleteReason = e.Reason
	default:
		return
	}
	a.UpdatedAt = at
}

func (a *Aggregate) Exists() bool {
	return a.Status != ""
}

func (a *Aggregate) ToSummary() db.PresetSummary {
	cfg := bytes.Clone(a.Config)
	if len(cfg) == 0 {
		cfg = []byte("{}")
	}
	return db.PresetSummary{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Config:       datatypes.JSON(cfg),
		IsPublic:     a.IsPublic,
		CreatedBy:    a.CreatedBy,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		DeletedAt:    a.DeletedAt,
		DeletedBy:    a.DeletedBy,
		DeleteReason: a.DeleteReason,
	}
}
