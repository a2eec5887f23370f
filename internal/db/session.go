package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	ComputeID string
	CreatedBy string
	Status    string
	Page
}

// SessionRepository reads and writes the session_summaries projection.
type SessionRepository struct {
	table summaryTable[SessionSummary]
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{table: summaryTable[SessionSummary]{db: db}}
}

func (r *SessionRepository) Create(ctx context.Context, s *SessionSummary) (*SessionSummary, error) {
	if err := r.table.create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) Update(ctx context.Context, s *SessionSummary) (*SessionSummary, error) {
	if err := r.table.upsert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*SessionSummary, error) {
	return r.table.get(ctx, id)
}

func (r *SessionRepository) List(ctx context.Context, f SessionFilter) ([]SessionSummary, error) {
	q := r.table.db.WithContext(ctx).Model(&SessionSummary{})
	if f.ComputeID != "" {
		q = q.Where("compute_id = ?", f.ComputeID)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return r.table.find(q, f.Page)
}

// UpdateLastActivity bumps last_activity_at only.
func (r *SessionRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	res := r.table.db.WithContext(ctx).
		Model(&SessionSummary{}).
		Where("id = ?", id).
		Update("last_activity_at", at)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update last_activity_at")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
