package db

import (
	"context"

	"gorm.io/gorm"
)

// PresetFilter narrows ListPresets.
//
// PublicOnly restricts to public presets. Otherwise, when AccessibleTo is set,
// the result is the union of that caller's presets and all public presets.
type PresetFilter struct {
	Status       string
	PublicOnly   bool
	AccessibleTo string
	Page
}

// PresetRepository reads and writes the preset_summaries projection.
type PresetRepository struct {
	table summaryTable[PresetSummary]
}

func NewPresetRepository(db *gorm.DB) *PresetRepository {
	return &PresetRepository{table: summaryTable[PresetSummary]{db: db}}
}

func (r *PresetRepository) Create(ctx context.Context, s *PresetSummary) (*PresetSummary, error) {
	if err := r.table.create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PresetRepository) Update(ctx context.Context, s *PresetSummary) (*PresetSummary, error) {
	if err := r.table.upsert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PresetRepository) Get(ctx context.Context, id string) (*PresetSummary, error) {
	return r.table.get(ctx, id)
}

func (r *PresetRepository) List(ctx context.Context, f PresetFilter) ([]PresetSummary, error) {
	q := r.table.db.WithContext(ctx).Model(&PresetSummary{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	switch {
	case f.PublicOnly:
		q = q.Where("is_public = ?", true)
	case f.AccessibleTo != "":
		q = q.Where(r.table.db.Where("is_public = ?", true).Or("created_by = ?", f.AccessibleTo))
	}
	return r.table.find(q, f.Page)
}
