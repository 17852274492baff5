package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/permission"
	"github.com/flock-suite/flock-sdk/modules/iam/domain/role"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence/models"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
)

const (
	selectRoleQuery = `SELECT id, tenant_id, name, created_at, updated_at FROM roles`

	insertRoleQuery = `
		INSERT INTO roles (id, tenant_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	updateRoleQuery = `
		UPDATE roles SET name = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4`

	deleteRoleQuery = `DELETE FROM roles WHERE id = $1 AND tenant_id = $2`

	rolePermissionsQuery = `
		SELECT p.id, p.code, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.code`
)

type RoleRepository struct{}

func NewRoleRepository() *RoleRepository {
	return &RoleRepository{}
}

func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, selectRoleQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	var m models.Role
	if err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.NotFoundError("role", id)
		}
		return nil, err
	}
	perms, err := r.permissionsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomainRole(&m, perms)
}

func (r *RoleRepository) List(ctx context.Context) ([]*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectRoleQuery+" WHERE tenant_id = $1 ORDER BY name", tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var ms []models.Role
	for rows.Next() {
		var m models.Role
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roles := make([]*role.Role, 0, len(ms))
	for i := range ms {
		id, err := uuid.Parse(ms[i].ID)
		if err != nil {
			return nil, err
		}
		perms, err := r.permissionsOf(ctx, id)
		if err != nil {
			return nil, err
		}
		domainRole, err := toDomainRole(&ms[i], perms)
		if err != nil {
			return nil, err
		}
		roles = append(roles, domainRole)
	}
	return roles, nil
}

func (r *RoleRepository) Create(ctx context.Context, entity *role.Role) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, insertRoleQuery, entity.ID(), entity.TenantID(), entity.Name(), entity.CreatedAt(), entity.UpdatedAt())
	if err != nil {
		return fmt.Errorf("inserting role %s: %w", entity.Name(), err)
	}
	return r.replacePermissions(ctx, entity.ID(), entity.Permissions())
}

func (r *RoleRepository) Update(ctx context.Context, entity *role.Role) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, updateRoleQuery, entity.Name(), entity.UpdatedAt(), entity.ID(), entity.TenantID())
	if err != nil {
		return fmt.Errorf("updating role %s: %w", entity.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return authz.NotFoundError("role", entity.ID())
	}
	return r.replacePermissions(ctx, entity.ID(), entity.Permissions())
}

func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, deleteRoleQuery, id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting role %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return authz.NotFoundError("role", id)
	}
	return nil
}

func (r *RoleRepository) permissionsOf(ctx context.Context, roleID uuid.UUID) ([]*permission.Permission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, rolePermissionsQuery, roleID)
	if err != nil {
		return nil, fmt.Errorf("querying permissions of role %s: %w", roleID, err)
	}
	defer rows.Close()

	var perms []*permission.Permission
	for rows.Next() {
		var m models.Permission
		if err := rows.Scan(&m.ID, &m.Code, &m.Description); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(m.ID)
		if err != nil {
			return nil, err
		}
		perms = append(perms, &permission.Permission{ID: id, Code: m.Code, Description: m.Description.String})
	}
	return perms, rows.Err()
}

func (r *RoleRepository) replacePermissions(ctx context.Context, roleID uuid.UUID, perms []*permission.Permission) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", roleID); err != nil {
		return fmt.Errorf("clearing permissions of role %s: %w", roleID, err)
	}
	for _, p := range perms {
		if _, err := tx.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)", roleID, p.ID); err != nil {
			return fmt.Errorf("attaching permission %s to role %s: %w", p.Code, roleID, err)
		}
	}
	return nil
}

func toDomainRole(m *models.Role, perms []*permission.Permission) (*role.Role, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, err
	}
	return role.New(
		tenantID,
		m.Name,
		role.WithID(id),
		role.WithPermissions(perms),
		role.WithCreatedAt(m.CreatedAt),
		role.WithUpdatedAt(m.UpdatedAt),
	), nil
}
