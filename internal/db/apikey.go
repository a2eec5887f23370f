package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// APIKeyFilter narrows ListAPIKeys. Empty fields match everything.
type APIKeyFilter struct {
	Status string
	Page
}

// APIKeyRepository reads and writes the api_key_summaries projection.
type APIKeyRepository struct {
	table summaryTable[APIKeySummary]
}

func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{table: summaryTable[APIKeySummary]{db: db}}
}

func (r *APIKeyRepository) Create(ctx context.Context, s *APIKeySummary) (*APIKeySummary, error) {
	if err := r.table.create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *APIKeyRepository) Update(ctx context.Context, s *APIKeySummary) (*APIKeySummary, error) {
	if err := r.table.upsert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *APIKeyRepository) Get(ctx context.Context, id string) (*APIKeySummary, error) {
	return r.table.get(ctx, id)
}

// GetByHash looks up an active key by its stored hash. bcrypt hashes are
// salted, so a presented key cannot be found this way; validation goes
// through ListActive instead.
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*APIKeySummary, error) {
	var s APIKeySummary
	err := r.table.db.WithContext(ctx).
		Where("key_hash = ? AND status = ?", hash, "active").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load api key by hash")
	}
	return &s, nil
}

// ListActive returns every active key, unpaginated. It backs credential
// validation, which must consider all candidates.
func (r *APIKeyRepository) ListActive(ctx context.Context) ([]APIKeySummary, error) {
	rows := make([]APIKeySummary, 0)
	err := r.table.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active api keys")
	}
	return rows, nil
}

func (r *APIKeyRepository) List(ctx context.Context, f APIKeyFilter) ([]APIKeySummary, error) {
	q := r.table.db.WithContext(ctx).Model(&APIKeySummary{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return r.table.find(q, f.Page)
}

// UpdateLastUsed bumps last_used_at without rewriting the rest of the row.
func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id string, at time.Time) error {
	res := r.table.db.WithContext(ctx).
		Model(&APIKeySummary{}).
		Where("id = ?", id).
		Update("last_used_at", at)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update last_used_at")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
