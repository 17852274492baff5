package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MaxHierarchyDepth bounds the parent-chain walk. A well-formed tenant
// hierarchy is a few levels deep; exceeding this bound means the reference
// data contains a cycle and the walk must fail closed. The SQL generated by
// pkg/rowfilter embeds the same bound.
const MaxHierarchyDepth = 10000

// ScopeType is the closed set of shapes an org assignment can grant.
type ScopeType uint8

const (
	ScopeSelf ScopeType = iota + 1
	ScopeSubtree
	ScopeCustomSet
)

func (s ScopeType) String() string {
	switch s {
	case ScopeSelf:
		return "self"
	case ScopeSubtree:
		return "subtree"
	case ScopeCustomSet:
		return "custom_set"
	default:
		return fmt.Sprintf("ScopeType(%d)", uint8(s))
	}
}

// ParseScopeType maps the persisted enum value to its tagged variant.
func ParseScopeType(raw string) (ScopeType, error) {
	switch raw {
	case "self":
		return ScopeSelf, nil
	case "subtree":
		return ScopeSubtree, nil
	case "custom_set":
		return ScopeCustomSet, nil
	default:
		return 0, fmt.Errorf("unknown scope type %q", raw)
	}
}

// Assignment is the authorization view of an org assignment: this user,
// acting under this role, rooted at this org unit, with this scope shape.
// CustomUnits is populated only for ScopeCustomSet.
type Assignment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OrgUnitID   uuid.UUID
	RoleID      uuid.UUID
	Scope       ScopeType
	CustomUnits []uuid.UUID
}

// Request bundles the parameters of one authorization decision. OrgUnitID
// is nil for pure permission checks.
type Request struct {
	UserID     uuid.UUID
	TenantID   uuid.UUID
	Permission string
	OrgUnitID  *uuid.UUID
}

// HierarchyStore answers ancestry questions about the org tree.
type HierarchyStore interface {
	// IsDescendant reports whether target sits strictly below ancestor.
	// It is irreflexive: IsDescendant(x, x) is false. Implementations
	// must bound the walk by MaxHierarchyDepth and return a
	// DATA_INTEGRITY error when the bound is exceeded.
	IsDescendant(ctx context.Context, targetID, ancestorID uuid.UUID) (bool, error)
}

// PermissionCatalog aggregates permission codes across a user's roles.
type PermissionCatalog interface {
	// PermissionsForUser returns the union of permission codes attached
	// to the roles of every assignment the user holds in the tenant.
	// A user with no assignments yields an empty set, not an error.
	PermissionsForUser(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error)
}

// AssignmentStore loads a user's org assignments, custom units included.
type AssignmentStore interface {
	ListForUser(ctx context.Context, userID, tenantID uuid.UUID) ([]Assignment, error)
}
