package permissions

import (
	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/permission"
)

// Catalog entries for the system module. IDs are fixed so seeding is
// idempotent across environments.
var (
	OrgUnitsCreate = &permission.Permission{
		ID:          uuid.MustParse("e5a3b6f1-2f0e-4d8a-9c56-1b4c7ad20a11"),
		Code:        "system.org_units.create",
		Description: "Create org units",
	}
	OrgUnitsRead = &permission.Permission{
		ID:          uuid.MustParse("7c2f4a90-88d1-4be3-bd52-3f1d8a6c9e22"),
		Code:        "system.org_units.read",
		Description: "Read org units",
	}
	OrgUnitsUpdate = &permission.Permission{
		ID:          uuid.MustParse("91b8d3e4-6a2c-45f7-8e01-5d9f2b7c4a33"),
		Code:        "system.org_units.update",
		Description: "Rename or reparent org units",
	}
	OrgUnitsDelete = &permission.Permission{
		ID:          uuid.MustParse("0d6e9f21-3b58-4c7a-a914-8e2d5f0b1c44"),
		Code:        "system.org_units.delete",
		Description: "Delete org units",
	}
	RolesCreate = &permission.Permission{
		ID:          uuid.MustParse("4f8a1c62-9d3e-4b05-bc78-2a6e0d9f3b55"),
		Code:        "system.roles.create",
		Description: "Create roles",
	}
	RolesRead = &permission.Permission{
		ID:          uuid.MustParse("b2d75e08-1f4a-4936-8c21-7e0b3a5d9f66"),
		Code:        "system.roles.read",
		Description: "Read roles",
	}
	RolesUpdate = &permission.Permission{
		ID:          uuid.MustParse("68c0f9a3-5b27-4d1e-9f84-0c3a6e2b8d77"),
		Code:        "system.roles.update",
		Description: "Update roles and their permissions",
	}
	RolesDelete = &permission.Permission{
		ID:          uuid.MustParse("d94b2e17-8c60-4a53-b7f9-6e1d0a4c2f88"),
		Code:        "system.roles.delete",
		Description: "Delete roles",
	}
	RolesAssign = &permission.Permission{
		ID:          uuid.MustParse("3a7e5d90-2c4b-4f68-8a13-9b0f6e2d1c99"),
		Code:        "system.roles.assign",
		Description: "Create and modify org assignments",
	}
	UsersAssign = &permission.Permission{
		ID:          uuid.MustParse("5c1f8b24-7e9a-4d06-b3c5-0a8e4f6d2b00"),
		Code:        "system.users.assign",
		Description: "Assign users to org units",
	}
	PermissionsRead = &permission.Permission{
		ID:          uuid.MustParse("82e4a6d1-0b5f-4c39-9d67-3f2c8b0e5a11"),
		Code:        "system.permissions.read",
		Description: "Read the permission catalog",
	}
	AuditView = &permission.Permission{
		ID:          uuid.MustParse("f07b3c58-4d1e-4a92-8365-1c9e6b2d0f22"),
		Code:        "system.audit.view",
		Description: "View audit logs",
	}
)

// All lists every system catalog entry for seeding.
var All = []*permission.Permission{
	OrgUnitsCreate,
	OrgUnitsRead,
	OrgUnitsUpdate,
	OrgUnitsDelete,
	RolesCreate,
	RolesRead,
	RolesUpdate,
	RolesDelete,
	RolesAssign,
	UsersAssign,
	PermissionsRead,
	AuditView,
}
