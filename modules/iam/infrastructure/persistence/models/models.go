package models

import (
	"database/sql"
	"time"
)

type OrgUnit struct {
	ID        string
	TenantID  string
	Name      string
	Type      string
	ParentID  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Permission struct {
	ID          string
	Code        string
	Description sql.NullString
}

type RolePermission struct {
	RoleID       string
	PermissionID string
}

type OrgAssignment struct {
	ID        string
	TenantID  string
	UserID    string
	OrgUnitID string
	RoleID    string
	ScopeType string
	CreatedAt time.Time
}

type OrgAssignmentUnit struct {
	AssignmentID string
	OrgUnitID    string
}
