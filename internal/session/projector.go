package session

import (
	"context"

	"computegate/internal/db"
)

// Projector rewrites session_summaries rows from replayed streams.
type Projector struct {
	repo *db.SessionRepository
}

func NewProjector(repo *db.SessionRepository) *Projector {
	return &Projector{repo: repo}
}

func (p *Projector) AggregateType() string { return AggregateType }

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
