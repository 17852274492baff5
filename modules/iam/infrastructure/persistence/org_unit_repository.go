package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/orgunit"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence/models"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
)

const (
	selectOrgUnitQuery = `
		SELECT id, tenant_id, name, type, parent_id, created_at, updated_at
		FROM org_units`

	insertOrgUnitQuery = `
		INSERT INTO org_units (id, tenant_id, name, type, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateOrgUnitQuery = `
		UPDATE org_units
		SET name = $1, parent_id = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5`

	deleteOrgUnitQuery = `DELETE FROM org_units WHERE id = $1 AND tenant_id = $2`

	subtreeOrgUnitsQuery = `
		WITH RECURSIVE descendants AS (
			SELECT id, tenant_id, name, type, parent_id, created_at, updated_at
			FROM org_units
			WHERE parent_id = $1 AND tenant_id = $2
			UNION ALL
			SELECT ou.id, ou.tenant_id, ou.name, ou.type, ou.parent_id, ou.created_at, ou.updated_at
			FROM org_units ou
			JOIN descendants d ON ou.parent_id = d.id
		)
		SELECT id, tenant_id, name, type, parent_id, created_at, updated_at FROM descendants`
)

type OrgUnitRepository struct{}

func NewOrgUnitRepository() *OrgUnitRepository {
	return &OrgUnitRepository{}
}

func (r *OrgUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, selectOrgUnitQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	unit, err := scanOrgUnit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authz.NotFoundError("org_unit", id)
	}
	return unit, err
}

func (r *OrgUnitRepository) Children(ctx context.Context, parentID uuid.UUID) ([]*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectOrgUnitQuery+" WHERE parent_id = $1 AND tenant_id = $2 ORDER BY name", parentID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying children of %s: %w", parentID, err)
	}
	defer rows.Close()
	return collectOrgUnits(rows)
}

// Subtree returns every descendant of rootID. The root itself is not
// included; callers that need it prepend the result of GetByID.
func (r *OrgUnitRepository) Subtree(ctx context.Context, rootID uuid.UUID) ([]*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, subtreeOrgUnitsQuery, rootID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying subtree of %s: %w", rootID, err)
	}
	defer rows.Close()
	return collectOrgUnits(rows)
}

// Ancestors returns the parent chain from the unit's direct parent up to
// the root, in ascending order.
func (r *OrgUnitRepository) Ancestors(ctx context.Context, id uuid.UUID) ([]*orgunit.OrgUnit, error) {
	unit, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var chain []*orgunit.OrgUnit
	current := unit
	for current.ParentID() != nil {
		if len(chain) >= authz.MaxHierarchyDepth {
			return nil, authz.DataIntegrityError(id)
		}
		parent, err := r.GetByID(ctx, *current.ParentID())
		if err != nil {
			if authz.IsNotFound(err) {
				return nil, authz.DataIntegrityError(*current.ParentID())
			}
			return nil, err
		}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

// IsDescendant walks target's parent chain looking for ancestor. The
// relation is irreflexive: a unit is never its own descendant. Walks
// longer than MaxHierarchyDepth indicate a corrupted (cyclic) tree and
// fail closed.
func (r *OrgUnitRepository) IsDescendant(ctx context.Context, target, ancestor uuid.UUID) (bool, error) {
	if target == ancestor {
		return false, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	current := target
	for steps := 0; ; steps++ {
		if steps >= authz.MaxHierarchyDepth {
			return false, authz.DataIntegrityError(target)
		}
		var parentID sql.NullString
		err := tx.QueryRow(ctx, "SELECT parent_id FROM org_units WHERE id = $1 AND tenant_id = $2", current, tenantID).Scan(&parentID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Target (or a link in its chain) is gone; no access.
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("walking ancestry of %s: %w", target, err)
		}
		if !parentID.Valid {
			return false, nil
		}
		parent, err := uuid.Parse(parentID.String)
		if err != nil {
			return false, authz.DataIntegrityError(current)
		}
		if parent == ancestor {
			return true, nil
		}
		current = parent
	}
}

func (r *OrgUnitRepository) Create(ctx context.Context, unit *orgunit.OrgUnit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if unit.ParentID() != nil {
		parent, err := r.GetByID(ctx, *unit.ParentID())
		if err != nil {
			return err
		}
		if parent.TenantID() != unit.TenantID() {
			return authz.NotFoundError("org_unit", *unit.ParentID())
		}
	}
	_, err = tx.Exec(
		ctx,
		insertOrgUnitQuery,
		unit.ID(),
		unit.TenantID(),
		unit.Name(),
		string(unit.Type()),
		nullableUUID(unit.ParentID()),
		unit.CreatedAt(),
		unit.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("inserting org unit %s: %w", unit.ID(), err)
	}
	return nil
}

func (r *OrgUnitRepository) Update(ctx context.Context, unit *orgunit.OrgUnit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if unit.ParentID() != nil {
		// Reject reparenting under the unit's own subtree.
		if *unit.ParentID() == unit.ID() {
			return authz.DataIntegrityError(unit.ID())
		}
		cyclic, err := r.IsDescendant(ctx, *unit.ParentID(), unit.ID())
		if err != nil {
			return err
		}
		if cyclic {
			return authz.DataIntegrityError(unit.ID())
		}
	}
	tag, err := tx.Exec(
		ctx,
		updateOrgUnitQuery,
		unit.Name(),
		nullableUUID(unit.ParentID()),
		unit.UpdatedAt(),
		unit.ID(),
		unit.TenantID(),
	)
	if err != nil {
		return fmt.Errorf("updating org unit %s: %w", unit.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return authz.NotFoundError("org_unit", unit.ID())
	}
	return nil
}

func (r *OrgUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	var children int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM org_units WHERE parent_id = $1 AND tenant_id = $2", id, tenantID).Scan(&children); err != nil {
		return fmt.Errorf("counting children of %s: %w", id, err)
	}
	if children > 0 {
		return fmt.Errorf("org unit %s still has %d children", id, children)
	}
	var assignments int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM org_assignments WHERE org_unit_id = $1 AND tenant_id = $2", id, tenantID).Scan(&assignments); err != nil {
		return fmt.Errorf("counting assignments of %s: %w", id, err)
	}
	if assignments > 0 {
		return fmt.Errorf("org unit %s still has %d assignments", id, assignments)
	}
	tag, err := tx.Exec(ctx, deleteOrgUnitQuery, id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting org unit %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return authz.NotFoundError("org_unit", id)
	}
	return nil
}

func scanOrgUnit(row pgx.Row) (*orgunit.OrgUnit, error) {
	var m models.OrgUnit
	if err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Type, &m.ParentID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return toDomainOrgUnit(&m)
}

func collectOrgUnits(rows pgx.Rows) ([]*orgunit.OrgUnit, error) {
	var units []*orgunit.OrgUnit
	for rows.Next() {
		var m models.OrgUnit
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &m.Type, &m.ParentID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		unit, err := toDomainOrgUnit(&m)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

func toDomainOrgUnit(m *models.OrgUnit) (*orgunit.OrgUnit, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, err
	}
	unitType, err := orgunit.ParseType(m.Type)
	if err != nil {
		return nil, err
	}
	opts := []orgunit.Option{
		orgunit.WithID(id),
		orgunit.WithCreatedAt(m.CreatedAt),
		orgunit.WithUpdatedAt(m.UpdatedAt),
	}
	if m.ParentID.Valid {
		parentID, err := uuid.Parse(m.ParentID.String)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orgunit.WithParentID(&parentID))
	}
	return orgunit.New(tenantID, m.Name, unitType, opts...), nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
