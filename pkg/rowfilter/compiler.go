package rowfilter

import (
	"fmt"
	"strings"

	"github.com/flock-suite/flock-sdk/pkg/authz"
)

// Compiler emits the SQL side of the authorization core: helper functions
// and per-table policies that reproduce the in-process scope rules row by
// row. The DDL is generated rather than hand-written so the depth bound
// and the subtree-root policy have exactly one source of truth.
type Compiler struct {
	// SubtreeIncludesRoot mirrors the resolver switch of the same name.
	// Both must come from configuration so the two enforcement paths
	// cannot disagree.
	SubtreeIncludesRoot bool
}

// HelperDDL returns the predicate functions consulted by the policies.
func (c Compiler) HelperDDL() string {
	var b strings.Builder

	b.WriteString(`
CREATE OR REPLACE FUNCTION has_perm(p text) RETURNS boolean AS $$
BEGIN
    RETURN p = ANY (
        COALESCE(
            current_setting('app.perms', true)::text[],
            ARRAY[]::text[]
        )
    );
EXCEPTION
    WHEN OTHERS THEN
        RETURN false;
END;
$$ LANGUAGE plpgsql STABLE;
`)

	fmt.Fprintf(&b, `
CREATE OR REPLACE FUNCTION is_descendant_org(
    target_org_id uuid,
    ancestor_org_id uuid
) RETURNS boolean AS $$
DECLARE
    current_id uuid;
    steps int := 0;
BEGIN
    -- Irreflexive: a unit is not its own descendant.
    IF target_org_id = ancestor_org_id THEN
        RETURN false;
    END IF;

    current_id := target_org_id;
    WHILE current_id IS NOT NULL LOOP
        steps := steps + 1;
        IF steps > %d THEN
            -- Cycle suspected. Fail closed and flag loudly.
            RAISE WARNING 'is_descendant_org: walk exceeded safety bound at %%', target_org_id;
            RETURN false;
        END IF;

        SELECT parent_id INTO current_id
        FROM org_units
        WHERE id = current_id;

        IF current_id = ancestor_org_id THEN
            RETURN true;
        END IF;
    END LOOP;

    RETURN false;
END;
$$ LANGUAGE plpgsql STABLE;
`, authz.MaxHierarchyDepth)

	subtreeRootClause := ""
	if c.SubtreeIncludesRoot {
		subtreeRootClause = `
        IF assignment_record.scope_type = 'subtree'
           AND assignment_record.org_unit_id = target_org_id THEN
            RETURN true;
        END IF;
`
	}

	fmt.Fprintf(&b, `
CREATE OR REPLACE FUNCTION has_org_access(target_org_id uuid)
RETURNS boolean AS $$
DECLARE
    user_uuid uuid;
    assignment_record RECORD;
BEGIN
    BEGIN
        user_uuid := current_setting('app.user_id', true)::uuid;
    EXCEPTION
        WHEN OTHERS THEN
            RETURN false;
    END;

    IF user_uuid IS NULL THEN
        RETURN false;
    END IF;

    FOR assignment_record IN
        SELECT
            oa.org_unit_id,
            oa.scope_type,
            oa.id AS assignment_id
        FROM org_assignments oa
        WHERE oa.user_id = user_uuid
    LOOP
        IF assignment_record.scope_type = 'self'
           AND assignment_record.org_unit_id = target_org_id THEN
            RETURN true;
        END IF;
%s
        IF assignment_record.scope_type = 'subtree'
           AND is_descendant_org(target_org_id, assignment_record.org_unit_id) THEN
            RETURN true;
        END IF;

        IF assignment_record.scope_type = 'custom_set' THEN
            IF EXISTS (
                SELECT 1
                FROM org_assignment_units oau
                WHERE oau.assignment_id = assignment_record.assignment_id
                  AND oau.org_unit_id = target_org_id
            ) THEN
                RETURN true;
            END IF;
        END IF;
    END LOOP;

    RETURN false;
END;
$$ LANGUAGE plpgsql STABLE;
`, subtreeRootClause)

	// Read visibility is deliberately broader than write authorization:
	// an ancestor row stays visible as long as any part of its subtree
	// is reachable, so tree navigation works from the root down.
	b.WriteString(`
CREATE OR REPLACE FUNCTION org_unit_visible(target_org_id uuid)
RETURNS boolean AS $$
BEGIN
    RETURN has_org_access(target_org_id)
        OR EXISTS (
            SELECT 1
            FROM org_units ou
            WHERE is_descendant_org(ou.id, target_org_id)
              AND has_org_access(ou.id)
        );
END;
$$ LANGUAGE plpgsql STABLE;
`)

	return b.String()
}

// PolicyDDL returns the row-security policies for the tenant tables.
// Reference tables filter on tenant alone; batch rows additionally
// require the same finance permission codes the decision engine checks,
// so a user with org access but without the permission sees no rows.
func (c Compiler) PolicyDDL() string {
	return `
ALTER TABLE roles ENABLE ROW LEVEL SECURITY;
DROP POLICY IF EXISTS roles_select_policy ON roles;
CREATE POLICY roles_select_policy ON roles
FOR SELECT
USING (
    tenant_id = current_setting('app.tenant_id', true)::uuid
);

ALTER TABLE org_units ENABLE ROW LEVEL SECURITY;
DROP POLICY IF EXISTS org_units_select_policy ON org_units;
CREATE POLICY org_units_select_policy ON org_units
FOR SELECT
USING (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND org_unit_visible(id)
);

ALTER TABLE org_assignments ENABLE ROW LEVEL SECURITY;
DROP POLICY IF EXISTS org_assignments_select_policy ON org_assignments;
CREATE POLICY org_assignments_select_policy ON org_assignments
FOR SELECT
USING (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND (
        user_id = current_setting('app.user_id', true)::uuid
        OR has_org_access(org_unit_id)
    )
);

ALTER TABLE batches ENABLE ROW LEVEL SECURITY;
DROP POLICY IF EXISTS batches_select_policy ON batches;
CREATE POLICY batches_select_policy ON batches
FOR SELECT
USING (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND has_perm('finance.batches.read')
    AND has_org_access(org_unit_id)
);

DROP POLICY IF EXISTS batches_insert_policy ON batches;
CREATE POLICY batches_insert_policy ON batches
FOR INSERT
WITH CHECK (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND has_perm('finance.batches.create')
    AND has_org_access(org_unit_id)
);

DROP POLICY IF EXISTS batches_update_policy ON batches;
CREATE POLICY batches_update_policy ON batches
FOR UPDATE
USING (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND (
        has_perm('finance.batches.update')
        OR has_perm('finance.batches.verify')
        OR has_perm('finance.batches.lock')
    )
    AND has_org_access(org_unit_id)
    AND status <> 'locked'
)
WITH CHECK (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND has_org_access(org_unit_id)
);

DROP POLICY IF EXISTS batches_delete_policy ON batches;
CREATE POLICY batches_delete_policy ON batches
FOR DELETE
USING (
    tenant_id = current_setting('app.tenant_id', true)::uuid
    AND has_perm('finance.batches.delete')
    AND has_org_access(org_unit_id)
    AND status = 'draft'
);
`
}

// DDL returns helpers followed by policies, ready to apply in one pass.
func (c Compiler) DDL() string {
	return c.HelperDDL() + c.PolicyDDL()
}
