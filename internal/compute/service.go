// Package compute records sandboxes created through external providers.
// Providers themselves are never called from here; a compute is the
// control-plane record of one sandbox from creation to destruction.
package compute

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"computegate/internal/auth"
	"computegate/internal/db"
	"computegate/internal/errs"
	"computegate/internal/events"
	"computegate/internal/validation"
)

// Providers lists the sandbox providers a compute may be recorded against.
var Providers = []string{"e2b", "vercel", "daytona", "modal", "cloudflare", "codesandbox", "blaxel", "runloop"}

func init() {
	validation.RegisterAllowed("provider", Providers)
}

var (
	ErrNotFound        = errs.New(errs.KindNotFound, "compute not found")
	ErrForbidden       = errs.New(errs.KindForbidden, "not allowed to access this compute")
	ErrNotRunning      = errs.New(errs.KindConflict, "compute is not running")
	ErrUnauthenticated = errs.New(errs.KindUnauthenticated, "authentication required")
)

type CreateRequest struct {
	Provider  string         `json:"provider" validate:"required,provider"`
	SandboxID string         `json:"sandbox_id" validate:"required,max=128"`
	Runtime   string         `json:"runtime" validate:"omitempty,oneof=node python"`
	Metadata  map[string]any `json:"metadata"`
}

type ListRequest struct {
	Status   string `json:"status" validate:"omitempty,oneof=running destroyed"`
	Provider string `json:"provider"`
	Limit    int    `json:"limit" validate:"gte=0"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

type Service interface {
	CreateCompute(ctx context.Context, caller *auth.Identity, req CreateRequest) (*db.ComputeSummary, error)
	DestroyCompute(ctx context.Context, caller *auth.Identity, id, reason string) (*db.ComputeSummary, error)
	GetCompute(ctx context.Context, caller *auth.Identity, id string) (*db.ComputeSummary, error)
	// ListComputes returns the caller's computes; admins see every compute.
	ListComputes(ctx context.Context, caller *auth.Identity, req ListRequest) ([]db.ComputeSummary, error)
}

type service struct {
	store events.Store
	repo  *db.ComputeRepository
	locks *events.KeyedMutex
}

func NewService(store events.Store, repo *db.ComputeRepository, locks *events.KeyedMutex) Service {
	return &service{store: store, repo: repo, locks: locks}
}

func (s *service) CreateCompute(ctx context.Context, caller *auth.Identity, req CreateRequest) (*db.ComputeSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	meta := req.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	id := uuid.NewString()
	unlock := s.locks.Lock(id)
	defer unlock()

	ev := Created{
		Provider:  req.Provider,
		SandboxID: req.SandboxID,
		Runtime:   req.Runtime,
		Metadata:  meta,
		CreatedBy: caller.APIKeyID,
	}
	if _, err := s.store.Append(ctx, id, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store compute", err)
	}

	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Create(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	log.Info().Str("compute_id", id).Str("provider", req.Provider).Str("sandbox_id", req.SandboxID).Msg("compute recorded")
	return &summary, nil
}

func (s *service) DestroyCompute(ctx context.Context, caller *auth.Identity, id, reason string) (*db.ComputeSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if len(reason) > 255 {
		return nil, errs.Validation("reason must be at most 255 characters")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(agg.CreatedBy) {
		return nil, ErrForbidden
	}
	if agg.Status != StatusRunning {
		return nil, ErrNotRunning
	}

	ev := Destroyed{DestroyedBy: caller.APIKeyID, Reason: reason}
	if _, err := s.store.Append(ctx, id, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store compute destruction", err)
	}

	agg, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Update(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	log.Info().Str("compute_id", id).Str("destroyed_by", caller.APIKeyID).Msg("compute destroyed")
	return &summary, nil
}

func (s *service) GetCompute(ctx context.Context, caller *auth.Identity, id string) (*db.ComputeSummary, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Internal("failed to load compute", err)
	}
	if !caller.Owns(c.CreatedBy) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *service) ListComputes(ctx context.Context, caller *auth.Identity, req ListRequest) ([]db.ComputeSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	f := db.ComputeFilter{
		Status:   req.Status,
		Provider: req.Provider,
		Page:     db.Page{Limit: req.Limit, Offset: req.Offset},
	}
	if !caller.IsAdmin() {
		f.CreatedBy = caller.APIKeyID
	}

	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errs.Internal("failed to list computes", err)
	}
	return list, nil
}

func (s *service) load(ctx context.Context, id string) (*Aggregate, error) {
	evs, err := s.store.GetEvents(ctx, id)
	if err != nil {
		return nil, errs.Internal("failed to load compute events", err)
	}
	if len(evs) == 0 {
		return nil, ErrNotFound
	}
	agg := NewAggregate(id)
	if err := agg.Apply(evs); err != nil {
		return nil, errs.Internal("failed to replay compute events", err)
	}
	return agg, nil
}
