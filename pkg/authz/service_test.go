package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/pkg/authz"
)

type memCatalog struct {
	codes map[uuid.UUID][]string
	calls int
}

func (c *memCatalog) PermissionsForUser(_ context.Context, userID, _ uuid.UUID) ([]string, error) {
	c.calls++
	return c.codes[userID], nil
}

type memAssignments struct {
	byUser map[uuid.UUID][]authz.Assignment
	calls  int
}

func (s *memAssignments) ListForUser(_ context.Context, userID, _ uuid.UUID) ([]authz.Assignment, error) {
	s.calls++
	return s.byUser[userID], nil
}

func newFixture(tr tree) (*authz.Service, *memCatalog, *memAssignments) {
	catalog := &memCatalog{codes: map[uuid.UUID][]string{}}
	assignments := &memAssignments{byUser: map[uuid.UUID][]authz.Assignment{}}
	resolver := authz.NewScopeResolver(tr.hierarchy)
	return authz.NewService(catalog, assignments, resolver), catalog, assignments
}

func TestService_RequirePermission(t *testing.T) {
	tr := newTree()
	svc, catalog, _ := newFixture(tr)
	tenantID := uuid.New()
	alice := uuid.New()
	catalog.codes[alice] = []string{"finance.batches.read", "finance.batches.verify"}

	require.NoError(t, svc.RequirePermission(context.Background(), alice, tenantID, "finance.batches.read"))

	err := svc.RequirePermission(context.Background(), alice, tenantID, "finance.batches.lock")
	require.True(t, authz.IsPermissionDenied(err))
	require.True(t, authz.IsDenied(err))
}

func TestService_NoAssignments_DeniesEverything(t *testing.T) {
	tr := newTree()
	svc, _, _ := newFixture(tr)
	stranger := uuid.New()

	err := svc.RequirePermission(context.Background(), stranger, uuid.New(), "finance.batches.read")
	require.True(t, authz.IsPermissionDenied(err))

	err = svc.RequireOrgAccess(context.Background(), stranger, uuid.New(), tr.church, "finance.batches.read")
	require.True(t, authz.IsDenied(err))
}

func TestService_PermissionCheckedBeforeScope(t *testing.T) {
	tr := newTree()
	svc, _, assignments := newFixture(tr)
	tenantID := uuid.New()
	alice := uuid.New()
	// Alice has a wide assignment but lacks the permission; the denial
	// must be permission-shaped and the assignment store untouched.
	assignments.byUser[alice] = []authz.Assignment{subtreeAssignment(tr.region)}

	err := svc.RequireOrgAccess(context.Background(), alice, tenantID, tr.church, "finance.batches.lock")
	require.True(t, authz.IsPermissionDenied(err))
	require.False(t, authz.IsScopeDenied(err))
	require.Zero(t, assignments.calls)
}

func TestService_ScopeDenied(t *testing.T) {
	tr := newTree()
	svc, catalog, assignments := newFixture(tr)
	tenantID := uuid.New()
	alice := uuid.New()
	catalog.codes[alice] = []string{"finance.batches.lock"}
	assignments.byUser[alice] = []authz.Assignment{subtreeAssignment(tr.zone)}

	// otherZone is outside alice's subtree.
	err := svc.RequireOrgAccess(context.Background(), alice, tenantID, tr.otherZone, "finance.batches.lock")
	require.True(t, authz.IsScopeDenied(err))
	require.False(t, authz.IsPermissionDenied(err))
}

func TestService_ZoneLeaderScenario(t *testing.T) {
	tr := newTree()
	svc, catalog, assignments := newFixture(tr)
	tenantID := uuid.New()
	leader := uuid.New()
	catalog.codes[leader] = []string{"finance.batches.lock", "system.org_units.read"}
	assignments.byUser[leader] = []authz.Assignment{subtreeAssignment(tr.zone)}

	// Churches under the zone are reachable.
	require.NoError(t, svc.RequireOrgAccess(context.Background(), leader, tenantID, tr.church, "finance.batches.lock"))

	// The zone itself is not, with the default strict-descendant policy.
	err := svc.RequireOrgAccess(context.Background(), leader, tenantID, tr.zone, "finance.batches.lock")
	require.True(t, authz.IsScopeDenied(err))

	// Sibling zones are not.
	err = svc.RequireOrgAccess(context.Background(), leader, tenantID, tr.otherZone, "finance.batches.lock")
	require.True(t, authz.IsScopeDenied(err))
}

func TestService_AuthorizeFacade(t *testing.T) {
	tr := newTree()
	svc, catalog, assignments := newFixture(tr)
	tenantID := uuid.New()
	alice := uuid.New()
	catalog.codes[alice] = []string{"system.roles.read"}
	assignments.byUser[alice] = []authz.Assignment{selfAssignment(tr.zone)}

	require.NoError(t, svc.Authorize(context.Background(), authz.Request{
		UserID:     alice,
		TenantID:   tenantID,
		Permission: "system.roles.read",
	}))

	require.NoError(t, svc.Authorize(context.Background(), authz.Request{
		UserID:     alice,
		TenantID:   tenantID,
		Permission: "system.roles.read",
		OrgUnitID:  &tr.zone,
	}))

	err := svc.Authorize(context.Background(), authz.Request{
		UserID:     alice,
		TenantID:   tenantID,
		Permission: "system.roles.read",
		OrgUnitID:  &tr.church,
	})
	require.True(t, authz.IsScopeDenied(err))
}

type failingAssignments struct {
	err error
}

func (s *failingAssignments) ListForUser(context.Context, uuid.UUID, uuid.UUID) ([]authz.Assignment, error) {
	return nil, s.err
}

func TestService_StoreErrorPropagates(t *testing.T) {
	tr := newTree()
	storeErr := errors.New("connection reset")
	catalog := &memCatalog{codes: map[uuid.UUID][]string{}}
	alice := uuid.New()
	catalog.codes[alice] = []string{"finance.batches.read"}
	svc := authz.NewService(catalog, &failingAssignments{err: storeErr}, authz.NewScopeResolver(tr.hierarchy))

	err := svc.RequireOrgAccess(context.Background(), alice, uuid.New(), tr.church, "finance.batches.read")
	require.ErrorIs(t, err, storeErr)
	require.False(t, authz.IsDenied(err))
}
