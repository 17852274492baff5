package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/assignment"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence/models"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
)

const (
	selectAssignmentQuery = `
		SELECT id, tenant_id, user_id, org_unit_id, role_id, scope_type, created_at
		FROM org_assignments`

	insertAssignmentQuery = `
		INSERT INTO org_assignments (id, tenant_id, user_id, org_unit_id, role_id, scope_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	deleteAssignmentQuery = `DELETE FROM org_assignments WHERE id = $1 AND tenant_id = $2`

	customUnitsQuery = `
		SELECT org_unit_id FROM org_assignment_units WHERE assignment_id = $1`
)

type AssignmentRepository struct {
	orgUnits *OrgUnitRepository
}

func NewAssignmentRepository(orgUnits *OrgUnitRepository) *AssignmentRepository {
	return &AssignmentRepository{orgUnits: orgUnits}
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, selectAssignmentQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	var m models.OrgAssignment
	if err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.OrgUnitID, &m.RoleID, &m.ScopeType, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.NotFoundError("org_assignment", id)
		}
		return nil, err
	}
	return r.hydrate(ctx, &m)
}

// ListForUser returns every assignment the user holds in the tenant,
// with custom unit sets loaded. Feeds the authorization engine.
func (r *AssignmentRepository) ListForUser(ctx context.Context, userID, tenantID uuid.UUID) ([]authz.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectAssignmentQuery+" WHERE user_id = $1 AND tenant_id = $2", userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying assignments for user %s: %w", userID, err)
	}
	defer rows.Close()

	var ms []models.OrgAssignment
	for rows.Next() {
		var m models.OrgAssignment
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.OrgUnitID, &m.RoleID, &m.ScopeType, &m.CreatedAt); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	views := make([]authz.Assignment, 0, len(ms))
	for i := range ms {
		entity, err := r.hydrate(ctx, &ms[i])
		if err != nil {
			return nil, err
		}
		views = append(views, entity.AuthzView())
	}
	return views, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, entity *assignment.Assignment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	// The anchor unit must exist in the same tenant.
	unit, err := r.orgUnits.GetByID(ctx, entity.OrgUnitID())
	if err != nil {
		return err
	}
	if unit.TenantID() != entity.TenantID() {
		return authz.NotFoundError("org_unit", entity.OrgUnitID())
	}
	if entity.Scope() != authz.ScopeCustomSet && len(entity.CustomUnits()) > 0 {
		return fmt.Errorf("custom units are only valid for %s assignments", authz.ScopeCustomSet)
	}
	_, err = tx.Exec(
		ctx,
		insertAssignmentQuery,
		entity.ID(),
		entity.TenantID(),
		entity.UserID(),
		entity.OrgUnitID(),
		entity.RoleID(),
		entity.Scope().String(),
		entity.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("inserting assignment for user %s: %w", entity.UserID(), err)
	}
	for _, unitID := range entity.CustomUnits() {
		if err := r.AddCustomUnit(ctx, entity, unitID); err != nil {
			return err
		}
	}
	return nil
}

// AddCustomUnit enrolls a unit into a custom_set assignment's reachable
// set. Rejected for any other scope shape.
func (r *AssignmentRepository) AddCustomUnit(ctx context.Context, entity *assignment.Assignment, unitID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if entity.Scope() != authz.ScopeCustomSet {
		return fmt.Errorf("assignment %s has scope %s, custom units require %s", entity.ID(), entity.Scope(), authz.ScopeCustomSet)
	}
	unit, err := r.orgUnits.GetByID(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.TenantID() != entity.TenantID() {
		return authz.NotFoundError("org_unit", unitID)
	}
	_, err = tx.Exec(
		ctx,
		"INSERT INTO org_assignment_units (assignment_id, org_unit_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		entity.ID(),
		unitID,
	)
	if err != nil {
		return fmt.Errorf("adding custom unit %s to assignment %s: %w", unitID, entity.ID(), err)
	}
	return nil
}

func (r *AssignmentRepository) RemoveCustomUnit(ctx context.Context, entity *assignment.Assignment, unitID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		ctx,
		"DELETE FROM org_assignment_units WHERE assignment_id = $1 AND org_unit_id = $2",
		entity.ID(),
		unitID,
	)
	if err != nil {
		return fmt.Errorf("removing custom unit %s from assignment %s: %w", unitID, entity.ID(), err)
	}
	return nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, deleteAssignmentQuery, id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting assignment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return authz.NotFoundError("org_assignment", id)
	}
	return nil
}

func (r *AssignmentRepository) hydrate(ctx context.Context, m *models.OrgAssignment) (*assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}
	orgUnitID, err := uuid.Parse(m.OrgUnitID)
	if err != nil {
		return nil, err
	}
	roleID, err := uuid.Parse(m.RoleID)
	if err != nil {
		return nil, err
	}
	scope, err := authz.ParseScopeType(m.ScopeType)
	if err != nil {
		return nil, err
	}

	var customUnits []uuid.UUID
	if scope == authz.ScopeCustomSet {
		rows, err := tx.Query(ctx, customUnitsQuery, id)
		if err != nil {
			return nil, fmt.Errorf("querying custom units of assignment %s: %w", id, err)
		}
		defer rows.Close()
		for rows.Next() {
			var unitID uuid.UUID
			if err := rows.Scan(&unitID); err != nil {
				return nil, err
			}
			customUnits = append(customUnits, unitID)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return assignment.New(
		tenantID,
		userID,
		orgUnitID,
		roleID,
		scope,
		assignment.WithID(id),
		assignment.WithCustomUnits(customUnits),
		assignment.WithCreatedAt(m.CreatedAt),
	), nil
}
