package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"computegate/internal/auth"
	"computegate/internal/compute"
	"computegate/internal/db"
	"computegate/internal/db/dbtest"
	"computegate/internal/errs"
	"computegate/internal/events"
	"computegate/internal/session"
)

var (
	alice = &auth.Identity{APIKeyID: "key-alice", Permissions: []string{auth.PermissionWrite}}
	bob   = &auth.Identity{APIKeyID: "key-bob", Permissions: []string{auth.PermissionWrite}}
	admin = &auth.Identity{APIKeyID: "key-admin", Permissions: []string{auth.PermissionAdmin}}
)

type fixture struct {
	computes compute.Service
	sessions session.Service
	repo     *db.SessionRepository
	store    *events.GormStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	store := events.NewGormStore(gdb)
	locks := &events.KeyedMutex{}
	computes := compute.NewService(store, db.NewComputeRepository(gdb), locks)
	repo := db.NewSessionRepository(gdb)
	return &fixture{
		computes: computes,
		sessions: session.NewService(store, repo, computes, locks),
		repo:     repo,
		store:    store,
	}
}

func (f *fixture) compute(t *testing.T, owner *auth.Identity) *db.ComputeSummary {
	t.Helper()
	c, err := f.computes.CreateCompute(context.Background(), owner, compute.CreateRequest{Provider: "e2b", SandboxID: "sbx"})
	require.NoError(t, err)
	return c
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.compute(t, alice)

	s, err := f.sessions.CreateSession(ctx, alice, session.CreateRequest{ComputeID: c.ID, Metadata: map[string]any{"client": "cli"}})
	require.NoError(t, err)
	assert.Equal(t, "active", s.Status)
	assert.Equal(t, c.ID, s.ComputeID)
	require.NotNil(t, s.LastActivityAt)

	touched, err := f.sessions.TouchSession(ctx, alice, s.ID)
	require.NoError(t, err)
	require.NotNil(t, touched.LastActivityAt)
	assert.False(t, touched.LastActivityAt.Before(*s.LastActivityAt))

	stored, err := f.repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastActivityAt)

	closed, err := f.sessions.CloseSession(ctx, alice, s.ID, "bye")
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, "bye", closed.CloseReason)

	_, err = f.sessions.TouchSession(ctx, alice, s.ID)
	require.ErrorIs(t, err, session.ErrClosed)
	_, err = f.sessions.CloseSession(ctx, alice, s.ID, "again")
	require.ErrorIs(t, err, session.ErrClosed)

	evs, err := f.store.GetEvents(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, []string{session.TypeCreated, session.TypeActivity, session.TypeClosed},
		[]string{evs[0].Type, evs[1].Type, evs[2].Type})
}

func TestCreateSession_RequiresReadableRunningCompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.compute(t, alice)

	_, err := f.sessions.CreateSession(ctx, bob, session.CreateRequest{ComputeID: c.ID})
	require.ErrorIs(t, err, compute.ErrForbidden)

	_, err = f.sessions.CreateSession(ctx, alice, session.CreateRequest{ComputeID: "missing"})
	require.ErrorIs(t, err, compute.ErrNotFound)

	_, err = f.sessions.CreateSession(ctx, alice, session.CreateRequest{})
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = f.computes.DestroyCompute(ctx, alice, c.ID, "done")
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, alice, session.CreateRequest{ComputeID: c.ID})
	require.ErrorIs(t, err, compute.ErrNotRunning)
}

func TestSessionOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.compute(t, alice)

	s, err := f.sessions.CreateSession(ctx, alice, session.CreateRequest{ComputeID: c.ID})
	require.NoError(t, err)

	_, err = f.sessions.GetSession(ctx, bob, s.ID)
	require.ErrorIs(t, err, session.ErrForbidden)
	_, err = f.sessions.TouchSession(ctx, bob, s.ID)
	require.ErrorIs(t, err, session.ErrForbidden)
	_, err = f.sessions.CloseSession(ctx, bob, s.ID, "")
	require.ErrorIs(t, err, session.ErrForbidden)

	got, err := f.sessions.GetSession(ctx, admin, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = f.sessions.GetSession(ctx, alice, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.compute(t, alice)
	c2 := f.compute(t, alice)

	for _, cid := range []string{c1.ID, c1.ID, c2.ID} {
		_, err := f.sessions.CreateSession(ctx, alice, session.CreateRequest{ComputeID: cid})
		require.NoError(t, err)
	}

	onC1, err := f.sessions.ListSessions(ctx, alice, session.ListRequest{ComputeID: c1.ID})
	require.NoError(t, err)
	assert.Len(t, onC1, 2)

	forBob, err := f.sessions.ListSessions(ctx, bob, session.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, forBob)

	forAdmin, err := f.sessions.ListSessions(ctx, admin, session.ListRequest{Status: "active"})
	require.NoError(t, err)
	assert.Len(t, forAdmin, 3)
}
