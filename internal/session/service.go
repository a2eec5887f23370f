// Package session tracks client sessions opened against a running compute.
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"computegate/internal/auth"
	"computegate/internal/compute"
	"computegate/internal/db"
	"computegate/internal/errs"
	"computegate/internal/events"
	"computegate/internal/validation"
)

var (
	ErrNotFound        = errs.New(errs.KindNotFound, "session not found")
	ErrForbidden       = errs.New(errs.KindForbidden, "not allowed to access this session")
	ErrClosed          = errs.New(errs.KindConflict, "session is closed")
	ErrUnauthenticated = errs.New(errs.KindUnauthenticated, "authentication required")
)

// ComputeReader is the part of the compute service sessions depend on.
type ComputeReader interface {
	GetCompute(ctx context.Context, caller *auth.Identity, id string) (*db.ComputeSummary, error)
}

type CreateRequest struct {
	ComputeID string         `json:"compute_id" validate:"required"`
	Metadata  map[string]any `json:"metadata"`
}

type ListRequest struct {
	ComputeID string `json:"compute_id"`
	Status    string `json:"status" validate:"omitempty,oneof=active closed"`
	Limit     int    `json:"limit" validate:"gte=0"`
	Offset    int    `json:"offset" validate:"gte=0"`
}

type Service interface {
	CreateSession(ctx context.Context, caller *auth.Identity, req CreateRequest) (*db.SessionSummary, error)
	TouchSession(ctx context.Context, caller *auth.Identity, id string) (*db.SessionSummary, error)
	CloseSession(ctx context.Context, caller *auth.Identity, id, reason string) (*db.SessionSummary, error)
	GetSession(ctx context.Context, caller *auth.Identity, id string) (*db.SessionSummary, error)
	ListSessions(ctx context.Context, caller *auth.Identity, req ListRequest) ([]db.SessionSummary, error)
}

type service struct {
	store    events.Store
	repo     *db.SessionRepository
	computes ComputeReader
	locks    *events.KeyedMutex
}

func NewService(store events.Store, repo *db.SessionRepository, computes ComputeReader, locks *events.KeyedMutex) Service {
	return &service{store: store, repo: repo, computes: computes, locks: locks}
}

func (s *service) CreateSession(ctx context.Context, caller *auth.Identity, req CreateRequest) (*db.SessionSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	c, err := s.computes.GetCompute(ctx, caller, req.ComputeID)
	if err != nil {
		return nil, err
	}
	if c.Status != compute.StatusRunning {
		return nil, compute.ErrNotRunning
	}

	meta := req.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	id := uuid.NewString()
	unlock := s.locks.Lock(id)
	defer unlock()

	ev := Created{ComputeID: c.ID, CreatedBy: caller.APIKeyID, Metadata: meta}
	if _, err := s.store.Append(ctx, id, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store session", err)
	}

	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Create(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	log.Info().Str("session_id", id).Str("compute_id", c.ID).Msg("session opened")
	return &summary, nil
}

// TouchSession records activity. Only last_activity_at is written to the
// projection.
func (s *service) TouchSession(ctx context.Context, caller *auth.Identity, id string) (*db.SessionSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
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
	if agg.Status != StatusActive {
		return nil, ErrClosed
	}

	ev, err := s.store.Append(ctx, id, pending(Activity{}))
	if err != nil {
		return nil, errs.Internal("failed to store session activity", err)
	}
	agg.apply(Activity{}, ev.Timestamp)

	if err := s.repo.UpdateLastActivity(ctx, id, ev.Timestamp); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	summary := agg.ToSummary()
	return &summary, nil
}

func (s *service) CloseSession(ctx context.Context, caller *auth.Identity, id, reason string) (*db.SessionSummary, error) {
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
	if agg.Status != StatusActive {
		return nil, ErrClosed
	}

	ev := Closed{ClosedBy: caller.APIKeyID, Reason: reason}
	if _, err := s.store.Append(ctx, id, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store session close", err)
	}

	agg, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Update(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	log.Info().Str("session_id", id).Str("reason", reason).Msg("session closed")
	return &summary, nil
}

func (s *service) GetSession(ctx context.Context, caller *auth.Identity, id string) (*db.SessionSummary, error) {
	sess, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Internal("failed to load session", err)
	}
	if !caller.Owns(sess.CreatedBy) {
		return nil, ErrForbidden
	}
	return sess, nil
}

func (s *service) ListSessions(ctx context.Context, caller *auth.Identity, req ListRequest) ([]db.SessionSummary, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	f := db.SessionFilter{
		ComputeID: req.ComputeID,
		Status:    req.Status,
		Page:      db.Page{Limit: req.Limit, Offset: req.Offset},
	}
	if !caller.IsAdmin() {
		f.CreatedBy = caller.APIKeyID
	}

	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errs.Internal("failed to list sessions", err)
	}
	return list, nil
}

func (s *service) load(ctx context.Context, id string) (*Aggregate, error) {
	evs, err := s.store.GetEvents(ctx, id)
	if err != nil {
		return nil, errs.Internal("failed to load session events", err)
	}
	if len(evs) == 0 {
		return nil, ErrNotFound
	}
	agg := NewAggregate(id)
	if err := agg.Apply(evs); err != nil {
		return nil, errs.Internal("failed to replay session events", err)
	}
	return agg, nil
}
