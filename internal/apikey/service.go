// Package apikey manages API keys as an event-sourced aggregate: creation with
// a one-time secret reveal, validation against stored hashes, revocation and
// expiry.
package apikey

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"computegate/internal/auth"
	"computegate/internal/db"
	"computegate/internal/errs"
	"computegate/internal/events"
	"computegate/internal/metrics"
	"computegate/internal/validation"
)

var (
	ErrNotFound      = errs.New(errs.KindNotFound, "API key not found")
	ErrNotActive     = errs.New(errs.KindConflict, "API key is not active")
	ErrInvalidAPIKey = errs.New(errs.KindUnauthenticated, "invalid API key")
)

// ExpiredReason is the revoke reason recorded by ExpireKeys.
const ExpiredReason = "expired"

// CreateRequest describes a new key. ExpiresIn is in seconds, at most ten
// years; zero means the key never expires.
type CreateRequest struct {
	Name        string         `json:"name" validate:"max=128"`
	Permissions []string       `json:"permissions" validate:"omitempty,dive,required,max=64"`
	Metadata    map[string]any `json:"metadata"`
	ExpiresIn   int64          `json:"expires_in" validate:"gte=0,lte=315360000"`
}

// ListRequest filters ListAPIKeys.
type ListRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=active revoked"`
	Limit  int    `json:"limit" validate:"gte=0"`
	Offset int    `json:"offset" validate:"gte=0"`
}

// Service is the API key use-case layer.
type Service interface {
	CreateAPIKey(ctx context.Context, req CreateRequest) (*db.APIKeySummary, error)
	ValidateAPIKey(ctx context.Context, candidate string) (*db.APIKeySummary, error)
	RevokeAPIKey(ctx context.Context, id, reason string) (*db.APIKeySummary, error)
	GetAPIKey(ctx context.Context, id string) (*db.APIKeySummary, error)
	ListAPIKeys(ctx context.Context, req ListRequest) ([]db.APIKeySummary, error)

	// ExpireKeys revokes every active key whose expiry has passed and
	// returns how many were revoked.
	ExpireKeys(ctx context.Context) (int, error)
	// EnsureBootstrapKey imports plaintext as an admin key unless an active
	// key already matches it.
	EnsureBootstrapKey(ctx context.Context, plaintext string) (*db.APIKeySummary, error)
}

// Option customises a Service.
type Option func(*service)

// WithBcryptCost sets the work factor for new key hashes.
func WithBcryptCost(cost int) Option {
	return func(s *service) { s.cost = cost }
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithUsageTracker enables last-used tracking on successful validation.
func WithUsageTracker(t *UsageTracker) Option {
	return func(s *service) { s.usage = t }
}

type service struct {
	store events.Store
	repo  *db.APIKeyRepository
	usage *UsageTracker
	locks *events.KeyedMutex
	cost  int
	now   func() time.Time
}

func NewService(store events.Store, repo *db.APIKeyRepository, locks *events.KeyedMutex, opts ...Option) Service {
	s := &service{
		store: store,
		repo:  repo,
		locks: locks,
		cost:  10,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateAPIKey(ctx context.Context, req CreateRequest) (*db.APIKeySummary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, errs.Internal("failed to generate API key", err)
	}
	return s.create(ctx, req, key)
}

// create runs the write path for a key whose plaintext is already known.
// Nothing is written if hashing fails.
func (s *service) create(ctx context.Context, req CreateRequest, key string) (*db.APIKeySummary, error) {
	hash, err := HashKey(key, s.cost)
	if err != nil {
		return nil, errs.Internal("failed to hash API key", err)
	}

	perms := req.Permissions
	if len(perms) == 0 {
		perms = auth.DefaultPermissions
	}
	meta := req.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	var expiresAt *time.Time
	if req.ExpiresIn > 0 {
		t := s.now().UTC().Add(time.Duration(req.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	id := uuid.NewString()
	unlock := s.locks.Lock(id)
	defer unlock()

	ev := Created{
		Name:        req.Name,
		KeyHash:     hash,
		KeyPrefix:   DisplayPrefix(key),
		Permissions: perms,
		Metadata:    meta,
		ExpiresAt:   expiresAt,
	}
	if _, err := s.store.Append(ctx, id, pending(ev)); err != nil {
		return nil, errs.Internal("failed to store API key", err)
	}

	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Create(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	summary.FullKey = key
	log.Info().Str("api_key_id", id).Str("key_prefix", summary.KeyPrefix).Msg("API key created")
	return &summary, nil
}

func (s *service) ValidateAPIKey(ctx context.Context, candidate string) (*db.APIKeySummary, error) {
	if !HasKeyPrefix(candidate) {
		metrics.APIKeyValidations.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidAPIKey
	}

	match, err := s.match(ctx, candidate)
	if err != nil {
		metrics.APIKeyValidations.WithLabelValues("error").Inc()
		return nil, err
	}
	if match == nil {
		metrics.APIKeyValidations.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidAPIKey
	}

	metrics.APIKeyValidations.WithLabelValues("valid").Inc()
	if s.usage != nil {
		s.usage.Track(match.ID)
	}
	return match, nil
}

// match scans every active, unexpired key. A non-matching candidate always
// costs one comparison per key regardless of its content.
func (s *service) match(ctx context.Context, candidate string) (*db.APIKeySummary, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, errs.Internal("failed to load API keys", err)
	}

	now := s.now()
	for i := range active {
		k := &active[i]
		if k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
			continue
		}
		if CompareKey(k.KeyHash, candidate) {
			return k, nil
		}
	}
	return nil, nil
}

func (s *service) RevokeAPIKey(ctx context.Context, id, reason string) (*db.APIKeySummary, error) {
	if len(reason) > 255 {
		return nil, errs.Validation("reason must be at most 255 characters")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	agg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if agg.Status != StatusActive {
		return nil, ErrNotActive
	}

	if _, err := s.store.Append(ctx, id, pending(Revoked{Reason: reason})); err != nil {
		return nil, errs.Internal("failed to store revocation", err)
	}

	agg, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := agg.ToSummary()
	if _, err := s.repo.Update(ctx, &summary); err != nil {
		events.ProjectionFailed(AggregateType, id, err)
	}

	log.Info().Str("api_key_id", id).Str("reason", reason).Msg("API key revoked")
	return &summary, nil
}

func (s *service) GetAPIKey(ctx context.Context, id string) (*db.APIKeySummary, error) {
	k, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Internal("failed to load API key", err)
	}
	return k, nil
}

func (s *service) ListAPIKeys(ctx context.Context, req ListRequest) ([]db.APIKeySummary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	keys, err := s.repo.List(ctx, db.APIKeyFilter{
		Status: req.Status,
		Page:   db.Page{Limit: req.Limit, Offset: req.Offset},
	})
	if err != nil {
		return nil, errs.Internal("failed to list API keys", err)
	}
	return keys, nil
}

func (s *service) ExpireKeys(ctx context.Context) (int, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, errs.Internal("failed to load API keys", err)
	}

	now := s.now()
	n := 0
	for _, k := range active {
		if k.ExpiresAt == nil || k.ExpiresAt.After(now) {
			continue
		}
		_, err := s.RevokeAPIKey(ctx, k.ID, ExpiredReason)
		if errors.Is(err, ErrNotActive) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *service) EnsureBootstrapKey(ctx context.Context, plaintext string) (*db.APIKeySummary, error) {
	if !HasKeyPrefix(plaintext) {
		return nil, errs.Validation("bootstrap key must start with " + KeyPrefix)
	}

	existing, err := s.match(ctx, plaintext)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	return s.create(ctx, CreateRequest{
		Name:        "bootstrap",
		Permissions: []string{auth.PermissionAdmin},
		Metadata:    map[string]any{"source": "bootstrap"},
	}, plaintext)
}

// load replays the key's stream. An empty stream is ErrNotFound.
func (s *service) load(ctx context.Context, id string) (*Aggregate, error) {
	evs, err := s.store.GetEvents(ctx, id)
	if err != nil {
		return nil, errs.Internal("failed to load API key events", err)
	}
	if len(evs) == 0 {
		return nil, ErrNotFound
	}
	agg := NewAggregate(id)
	if err := agg.Apply(evs); err != nil {
		return nil, errs.Internal("failed to replay API key events", err)
	}
	return agg, nil
}
