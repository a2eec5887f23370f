// Package preset manages saved sandbox presets. Presets are private to their
// creator unless marked public, and deletion is a soft state change.
package preset

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"computegate/internal/auth"
	"computegate/internal/db"
	"computegate/internal/errs"
	"computegate/internal/events"
	"computegate/internal/validation"
)

var (
	ErrNotFound        = errs.New(errs.KindNotFound, "preset not found")
	ErrForbidden       = errs.New(errs.KindForbidden, "not allowed to access this preset")
	ErrAlreadyDeleted  = errs.New(errs.KindConflict, "preset already deleted")
	ErrUnauthenticated = errs.New(errs.KindUnauthenticated, "authentication required")
)

type CreateRequest struct {
	Name        string          `json:"name" validate:"required,max=128"`
	Description string          `json:"description" validate:"max=1024"`
	Config      json.RawMessage `json:"config"`
	IsPublic    bool            `json:"is_public"`
}

type DeleteRequest struct {
	PresetID string `json:"preset_id" validate:"required"`
	Reason   string `json:"reason" validate:"max=255"`
}

type ListRequest struct {
	PublicOnly bool `json:"public_only"`
	Limit      int  `json:"limit" validate:"gte=0"`
	Offset     int  `json:"offset" validate:"gte=0"`
}

type Service interface {
	CreatePreset(ctx context.Context, caller *auth.Identity, req CreateRequest) (*db.PresetSummary, error)
	DeletePreset(ctx context.Context, caller *auth.Identity, req DeleteRequest) (*db.PresetSummary, error)
	GetPreset(ctx context.Context, caller *auth.Identity, id string) (*db.PresetSummary, error)
	// ListPresets returns active presets visible to caller: its own plus
	// public ones, for admins too. A nil caller only ever sees public presets.
	ListPresets(ctx context.Context, caller *auth.Identity, req ListRequest) ([]db.PresetSummary, error)
}

type service struct {
	store events.Store
	repo  *db.PresetRepository
	locks *events.KeyedMutex
}

func NewService(store events.Store, repo *db.PresetRepository, locks *events.KeyedMutex) Service {
	return &service{store: store, repo: repo, locks: locks}
}

func (s *service) CreatePreset(ctx context.Context, caller *auth.Identity, req CreateRequest) (*db.PresetSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	cfg := req.Config
	if len(cfg) == 0 || string(cfg) == "null" {
		cfg = json.RawMessage("{}")
	}
	if !json.Valid(cfg) {
		return nil, errs.Validation("config must be valid JSON")
	}

	id := uuid.NewString()
	unlock := s.locks.Lock(id)
	defer unlock()

	ev := Created{
		Name:        req.Name,
		Description: req.Description,
		Config:      cfg,
		IsPublic:    req.IsPublic,
		CreatedBy:   caller.APIKeyID,
	}
	if _, err := s.store.Append(ctx, id, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store preset", err)
	}

	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Create(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	log.Info().Str("preset_id", id).Str("created_by", caller.APIKeyID).Bool("public", req.IsPublic).Msg("preset created")
	return &summary, nil
}

func (s *service) DeletePreset(ctx context.Context, caller *auth.Identity, req DeleteRequest) (*db.PresetSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.PresetID)
	defer unlock()

	agg, err := s.load(ctx, req.PresetID)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(agg.CreatedBy) {
		return nil, ErrForbidden
	}
	if agg.Status == StatusDeleted {
		return nil, ErrAlreadyDeleted
	}

	ev := Deleted{DeletedBy: caller.APIKeyID, Reason: req.Reason}
	if _, err := s.store.Append(ctx, req.PresetID, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store preset deletion", err)
	}

	agg, err = s.load(ctx, req.PresetID)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Update(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, req.PresetID, err)
	}

	log.Info().Str("preset_id", req.PresetID).Str("deleted_by", caller.APIKeyID).Msg("preset deleted")
	return &summary, nil
}

func (s *service) GetPreset(ctx context.Context, caller *auth.Identity, id string) (*db.PresetSummary, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Internal("failed to load preset", err)
	}
	if p.Status == StatusDeleted {
		return nil, ErrNotFound
	}
	if !p.IsPublic && !caller.Owns(p.CreatedBy) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *service) ListPresets(ctx context.Context, caller *auth.Identity, req ListRequest) ([]db.PresetSummary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	f := db.PresetFilter{
		Status: StatusActive,
		Page:   db.Page{Limit: req.Limit, Offset: req.Offset},
	}
	switch {
	case req.PublicOnly || caller == nil:
		f.PublicOnly = true
	default:
		f.AccessibleTo = caller.APIKeyID
	}

	presets, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errs.Internal("failed to list presets", err)
	}
	return presets, nil
}

func (s *service) load(ctx context.Context, id string) (*Aggregate, error) {
	evs, err := s.store.GetEvents(ctx, id)
	if err != nil {
		return nil, errs.Internal("failed to load preset events", err)
	}
	if len(evs) == 0 {
		return nil, ErrNotFound
	}
	agg := NewAggregate(id)
	if err := agg.Apply(evs); err != nil {
		return nil, errs.Internal("failed to replay preset events", err)
	}
	return agg, nil
}
