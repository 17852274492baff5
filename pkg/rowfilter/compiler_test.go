package rowfilter_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	financepermissions "github.com/flock-suite/flock-sdk/modules/finance/permissions"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/configuration"
	"github.com/flock-suite/flock-sdk/pkg/rowfilter"
)

func TestCompiler_HelperDDL_EmbedsDepthBound(t *testing.T) {
	ddl := rowfilter.Compiler{}.HelperDDL()

	require.Contains(t, ddl, fmt.Sprintf("IF steps > %d THEN", authz.MaxHierarchyDepth))
	require.Contains(t, ddl, "RAISE WARNING")
}

func TestCompiler_HelperDDL_IrreflexiveDescendant(t *testing.T) {
	ddl := rowfilter.Compiler{}.HelperDDL()

	require.Contains(t, ddl, "IF target_org_id = ancestor_org_id THEN")
	idx := strings.Index(ddl, "IF target_org_id = ancestor_org_id THEN")
	require.Contains(t, ddl[idx:idx+120], "RETURN false")
}

func TestCompiler_HelperDDL_ScopeBranches(t *testing.T) {
	ddl := rowfilter.Compiler{}.HelperDDL()

	require.Contains(t, ddl, "scope_type = 'self'")
	require.Contains(t, ddl, "scope_type = 'subtree'")
	require.Contains(t, ddl, "scope_type = 'custom_set'")
	require.Contains(t, ddl, "org_assignment_units")
}

func TestCompiler_SubtreeRootClauseToggles(t *testing.T) {
	strict := rowfilter.Compiler{SubtreeIncludesRoot: false}.HelperDDL()
	widened := rowfilter.Compiler{SubtreeIncludesRoot: true}.HelperDDL()

	// Strict emits one subtree branch (descendant walk); widened adds a
	// second that matches the assigned unit itself.
	require.Equal(t, 1, strings.Count(strict, "scope_type = 'subtree'"))
	require.Equal(t, 2, strings.Count(widened, "scope_type = 'subtree'"))
}

func TestCompiler_HelperDDL_FailsClosedWithoutSession(t *testing.T) {
	ddl := rowfilter.Compiler{}.HelperDDL()

	// Missing or malformed app.user_id yields false, never an error.
	require.Contains(t, ddl, "current_setting('app.user_id', true)")
	require.Contains(t, ddl, "IF user_uuid IS NULL THEN")
}

func TestCompiler_PolicyDDL_CoversTenantTables(t *testing.T) {
	ddl := rowfilter.Compiler{}.PolicyDDL()

	for _, table := range []string{"roles", "org_units", "org_assignments", "batches"} {
		require.Contains(t, ddl, "ALTER TABLE "+table+" ENABLE ROW LEVEL SECURITY")
		require.Contains(t, ddl, "ON "+table)
	}
	require.Contains(t, ddl, "current_setting('app.tenant_id', true)::uuid")
	// Org units stay visible while any descendant is reachable.
	require.Contains(t, ddl, "org_unit_visible(id)")
	// Subjects always see their own assignment rows.
	require.Contains(t, ddl, "user_id = current_setting('app.user_id', true)::uuid")
	require.Contains(t, ddl, "has_org_access(org_unit_id)")
}

// policyBlock extracts one CREATE POLICY statement from the DDL.
func policyBlock(t *testing.T, ddl, name string) string {
	t.Helper()
	start := strings.Index(ddl, "CREATE POLICY "+name)
	require.GreaterOrEqual(t, start, 0, "policy %s not emitted", name)
	end := strings.Index(ddl[start:], ";")
	require.Greater(t, end, 0)
	return ddl[start : start+end]
}

func TestCompiler_PolicyDDL_BatchPermissionGates(t *testing.T) {
	ddl := rowfilter.Compiler{}.PolicyDDL()

	// Reading batch rows takes the same permission the decision engine
	// checks, not org access alone.
	selectPolicy := policyBlock(t, ddl, "batches_select_policy")
	require.Contains(t, selectPolicy, fmt.Sprintf("has_perm('%s')", financepermissions.BatchesRead.Code))
	require.Contains(t, selectPolicy, "has_org_access(org_unit_id)")

	insertPolicy := policyBlock(t, ddl, "batches_insert_policy")
	require.Contains(t, insertPolicy, fmt.Sprintf("has_perm('%s')", financepermissions.BatchesCreate.Code))
	require.Contains(t, insertPolicy, "has_org_access(org_unit_id)")

	// Updates carry the verify and lock codes too, and never touch a
	// locked row.
	updatePolicy := policyBlock(t, ddl, "batches_update_policy")
	for _, p := range []string{
		financepermissions.BatchesUpdate.Code,
		financepermissions.BatchesVerify.Code,
		financepermissions.BatchesLock.Code,
	} {
		require.Contains(t, updatePolicy, fmt.Sprintf("has_perm('%s')", p))
	}
	require.Contains(t, updatePolicy, "status <> 'locked'")

	deletePolicy := policyBlock(t, ddl, "batches_delete_policy")
	require.Contains(t, deletePolicy, fmt.Sprintf("has_perm('%s')", financepermissions.BatchesDelete.Code))
	require.Contains(t, deletePolicy, "status = 'draft'")
}

type parentMapHierarchy map[uuid.UUID]uuid.UUID

func (h parentMapHierarchy) IsDescendant(_ context.Context, targetID, ancestorID uuid.UUID) (bool, error) {
	current := targetID
	for steps := 0; steps < authz.MaxHierarchyDepth; steps++ {
		parent, ok := h[current]
		if !ok {
			return false, nil
		}
		if parent == ancestorID {
			return true, nil
		}
		current = parent
	}
	return false, authz.DataIntegrityError(targetID)
}

// The resolver defaults its subtree-root policy from the same
// configuration the migrate command compiles the DDL from, so a single
// deployment cannot hold divergent in-process and row-filter semantics.
func TestSubtreeRootPolicySharedWithCompiler(t *testing.T) {
	conf := configuration.Use()

	zone := uuid.New()
	resolver := authz.NewScopeResolver(parentMapHierarchy{})
	rootCovered, err := resolver.HasAccess(context.Background(), []authz.Assignment{{
		ID:        uuid.New(),
		OrgUnitID: zone,
		Scope:     authz.ScopeSubtree,
	}}, zone)
	require.NoError(t, err)
	require.Equal(t, conf.SubtreeIncludesRoot, rootCovered)

	ddl := rowfilter.Compiler{SubtreeIncludesRoot: conf.SubtreeIncludesRoot}.HelperDDL()
	wantBranches := 1
	if conf.SubtreeIncludesRoot {
		wantBranches = 2
	}
	require.Equal(t, wantBranches, strings.Count(ddl, "scope_type = 'subtree'"))
}

func TestCompiler_DDL_HelpersPrecedePolicies(t *testing.T) {
	ddl := rowfilter.Compiler{}.DDL()

	helperIdx := strings.Index(ddl, "CREATE OR REPLACE FUNCTION has_org_access")
	policyIdx := strings.Index(ddl, "ENABLE ROW LEVEL SECURITY")
	require.Greater(t, policyIdx, helperIdx)
	require.GreaterOrEqual(t, helperIdx, 0)
}
