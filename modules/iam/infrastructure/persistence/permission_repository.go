package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/permission"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence/models"
	"github.com/flock-suite/flock-sdk/pkg/composables"
)

const (
	upsertPermissionQuery = `
		INSERT INTO permissions (id, code, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description`

	selectPermissionsQuery = `SELECT id, code, description FROM permissions ORDER BY code`

	// Every permission a user holds through any of their assignments,
	// regardless of scope. Scope narrows WHERE a permission applies, not
	// WHETHER the user has it.
	userPermissionsQuery = `
		SELECT DISTINCT p.code
		FROM org_assignments oa
		JOIN roles r ON r.id = oa.role_id
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE oa.user_id = $1 AND oa.tenant_id = $2
		ORDER BY p.code`
)

type PermissionRepository struct{}

func NewPermissionRepository() *PermissionRepository {
	return &PermissionRepository{}
}

// Save upserts a catalog entry keyed by code. Seeding runs it for every
// built-in permission on startup.
func (r *PermissionRepository) Save(ctx context.Context, p *permission.Permission) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, upsertPermissionQuery, p.ID, p.Code, p.Description)
	if err != nil {
		return fmt.Errorf("upserting permission %s: %w", p.Code, err)
	}
	return nil
}

func (r *PermissionRepository) List(ctx context.Context) ([]*permission.Permission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectPermissionsQuery)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
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
		perms = append(perms, &permission.Permission{
			ID:          id,
			Code:        m.Code,
			Description: m.Description.String,
		})
	}
	return perms, rows.Err()
}

// PermissionsForUser aggregates permission codes across all of the user's
// role assignments in the tenant.
func (r *PermissionRepository) PermissionsForUser(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, userPermissionsQuery, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying permissions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
