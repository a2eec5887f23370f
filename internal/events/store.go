// Package events is the append-only event log every aggregate is rebuilt from.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"computegate/internal/db"
	"computegate/internal/metrics"
)

// Pending is an event that has not been stored yet. Data is marshalled to
// JSON by Append.
type Pending struct {
	AggregateType string
	Type          string
	Data          any
}

// Store appends events and reads them back in order.
type Store interface {
	Append(ctx context.Context, aggregateID string, ev Pending) (*db.Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]db.Event, error)
	GetAllEvents(ctx context.Context) ([]db.Event, error)
}

// GormStore keeps events in the events table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// WithClock replaces the timestamp source. Timestamps are always stored as UTC.
func (s *GormStore) WithClock(now func() time.Time) *GormStore {
	s.now = now
	return s
}

// Append writes one event. There are no retries; a failed append leaves the
// log unchanged.
func (s *GormStore) Append(ctx context.Context, aggregateID string, ev Pending) (*db.Event, error) {
	if aggregateID == "" {
		return nil, errors.New("aggregate id is required")
	}
	if ev.AggregateType == "" || ev.Type == "" {
		return nil, errors.New("aggregate type and event type are required")
	}

	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s payload", ev.Type)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate event id")
	}

	row := &db.Event{
		EventID:       id.String(),
		AggregateID:   aggregateID,
		AggregateType: ev.AggregateType,
		Type:          ev.Type,
		Data:          data,
		Timestamp:     s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to append %s event", ev.Type)
	}

	metrics.EventsAppended.WithLabelValues(ev.AggregateType, ev.Type).Inc()
	return row, nil
}

// GetEvents returns the aggregate's events oldest first, or an empty slice.
func (s *GormStore) GetEvents(ctx context.Context, aggregateID string) ([]db.Event, error) {
	evs := make([]db.Event, 0)
	err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("timestamp ASC").Order("id ASC").
		Find(&evs).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load events for %s", aggregateID)
	}
	return evs, nil
}

// GetAllEvents returns the whole log oldest first. It is meant for rebuilds
// and admin inspection, not request paths.
func (s *GormStore) GetAllEvents(ctx context.Context) ([]db.Event, error) {
	evs := make([]db.Event, 0)
	err := s.db.WithContext(ctx).
		Order("timestamp ASC").Order("id ASC").
		Find(&evs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load event log")
	}
	return evs, nil
}

// Decode unmarshals the payload of ev into T.
func Decode[T any](ev db.Event) (T, error) {
	var v T
	if err := json.Unmarshal(ev.Data, &v); err != nil {
		return v, errors.Wrapf(err, "failed to decode %s event %s", ev.Type, ev.EventID)
	}
	return v, nil
}
