package db

import (
	"context"

	"gorm.io/gorm"
)

// ComputeFilter narrows ListComputes. CreatedBy empty means all owners.
type ComputeFilter struct {
	Status    string
	Provider  string
	CreatedBy string
	Page
}

// ComputeRepository reads and writes the compute_summaries projection.
type ComputeRepository struct {
	table summaryTable[ComputeSummary]
}

func NewComputeRepository(db *gorm.DB) *ComputeRepository {
	return &ComputeRepository{table: summaryTable[ComputeSummary]{db: db}}
}

func (r *ComputeRepository) Create(ctx context.Context, s *ComputeSummary) (*ComputeSummary, error) {
	if err := r.table.create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ComputeRepository) Update(ctx context.Context, s *ComputeSummary) (*ComputeSummary, error) {
	if err := r.table.upsert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ComputeRepository) Get(ctx context.Context, id string) (*ComputeSummary, error) {
	return r.table.get(ctx, id)
}

func (r *ComputeRepository) List(ctx context.Context, f ComputeFilter) ([]ComputeSummary, error) {
	q := r.table.db.WithContext(ctx).Model(&ComputeSummary{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Provider != "" {
		q = q.Where("provider = ?", f.Provider)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	return r.table.find(q, f.Page)
}
