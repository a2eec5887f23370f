package apikey

import (
	"context"

	"computegate/internal/db"
)

// Projector rewrites api_key_summaries rows from replayed streams.
type Projector struct {
	repo *db.APIKeyRepository
}

func NewProjector(repo *db.APIKeyRepository) *Projector {
	return &Projector{repo: repo}
}

func (p *Projector) AggregateType() string { return AggregateType }

// Project folds one key's stream and overwrites its row.
func (p *Projector) Project(ctx context.Context, id string, evs []db.Event) error {
	agg := NewAggregate(id)
	if err := agg.Apply(evs); err != nil {
		return err
	}
	if !agg.Exists() {
		return nil
	}
	summary := agg.ToSummary()
	_, err := p.repo.Update(ctx, &summary)
	return err
}
