package db

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a projection row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when Create hits an existing primary key.
	ErrDuplicate = errors.New("record already exists")
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Page is the limit/offset pair shared by all List operations.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.normalize()
	return q.Limit(p.Limit).Offset(p.Offset)
}

// summaryTable holds the write and point-read paths every projection table
// shares. T is one of the *Summary models.
type summaryTable[T any] struct {
	db *gorm.DB
}

func (t summaryTable[T]) create(ctx context.Context, row *T) error {
	err := t.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrap(err, "failed to insert projection")
	}
	return nil
}

// upsert overwrites every column of the row keyed by its primary key,
// inserting it when absent.
func (t summaryTable[T]) upsert(ctx context.Context, row *T) error {
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return errors.Wrap(err, "failed to upsert projection")
	}
	return nil
}

func (t summaryTable[T]) get(ctx context.Context, id string) (*T, error) {
	var row T
	err := t.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load projection")
	}
	return &row, nil
}

func (t summaryTable[T]) find(q *gorm.DB, page Page) ([]T, error) {
	rows := make([]T, 0)
	err := page.apply(q).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projections")
	}
	return rows, nil
}
