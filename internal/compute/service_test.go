package compute_test

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
)

var (
	alice = &auth.Identity{APIKeyID: "key-alice", Permissions: []string{auth.PermissionWrite}}
	bob   = &auth.Identity{APIKeyID: "key-bob", Permissions: []string{auth.PermissionWrite}}
	admin = &auth.Identity{APIKeyID: "key-admin", Permissions: []string{auth.PermissionAdmin}}
)

func newService(t *testing.T) compute.Service {
	t.Helper()
	gdb := dbtest.Open(t)
	return compute.NewService(events.NewGormStore(gdb), db.NewComputeRepository(gdb), &events.KeyedMutex{})
}

func TestCreateCompute(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.CreateCompute(ctx, alice, compute.CreateRequest{
		Provider:  "e2b",
		SandboxID: "sbx_123",
		Runtime:   "python",
		Metadata:  map[string]any{"region": "eu"},
	})
	require.NoError(t, err)
	assert.Equal(t, "running", c.Status)
	assert.Equal(t, alice.APIKeyID, c.CreatedBy)
	assert.Equal(t, "eu", c.Metadata["region"])

	tests := []struct {
		name string
		req  compute.CreateRequest
	}{
		{"unknown provider", compute.CreateRequest{Provider: "aws", SandboxID: "x"}},
		{"missing sandbox", compute.CreateRequest{Provider: "e2b"}},
		{"bad runtime", compute.CreateRequest{Provider: "e2b", SandboxID: "x", Runtime: "ruby"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCompute(ctx, alice, tt.req)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		})
	}
}

func TestDestroyCompute(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.CreateCompute(ctx, alice, compute.CreateRequest{Provider: "daytona", SandboxID: "sbx"})
	require.NoError(t, err)

	_, err = svc.DestroyCompute(ctx, bob, c.ID, "cleanup")
	require.ErrorIs(t, err, compute.ErrForbidden)

	destroyed, err := svc.DestroyCompute(ctx, alice, c.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, "destroyed", destroyed.Status)
	require.NotNil(t, destroyed.DestroyedAt)
	assert.Equal(t, "done", destroyed.DestroyReason)

	_, err = svc.DestroyCompute(ctx, admin, c.ID, "again")
	require.ErrorIs(t, err, compute.ErrNotRunning)

	_, err = svc.DestroyCompute(ctx, admin, "missing", "")
	require.ErrorIs(t, err, compute.ErrNotFound)
}

func TestGetAndListComputes(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.CreateCompute(ctx, alice, compute.CreateRequest{Provider: "e2b", SandboxID: "a"})
	require.NoError(t, err)
	_, err = svc.CreateCompute(ctx, bob, compute.CreateRequest{Provider: "modal", SandboxID: "b"})
	require.NoError(t, err)

	_, err = svc.GetCompute(ctx, bob, a.ID)
	require.ErrorIs(t, err, compute.ErrForbidden)
	got, err := svc.GetCompute(ctx, admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.SandboxID)

	mine, err := svc.ListComputes(ctx, alice, compute.ListRequest{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	all, err := svc.ListComputes(ctx, admin, compute.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	modal, err := svc.ListComputes(ctx, admin, compute.ListRequest{Provider: "modal"})
	require.NoError(t, err)
	require.Len(t, modal, 1)
	assert.Equal(t, "b", modal[0].SandboxID)
}

func TestEveryKnownProviderAccepted(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	for _, p := range compute.Providers {
		_, err := svc.CreateCompute(ctx, alice, compute.CreateRequest{Provider: p, SandboxID: "sbx-" + p})
		require.NoError(t, err, p)
	}

	_, err := svc.CreateCompute(ctx, alice, compute.CreateRequest{Provider: "aws", SandboxID: "sbx"})
	require.Error(t, err)
	assert.Equal(t, "provider must be one of [e2b vercel daytona modal cloudflare codesandbox blaxel runloop]", errs.MessageOf(err))
}
