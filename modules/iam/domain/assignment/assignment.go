package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/pkg/authz"
)

// Assignment grants a user, acting under a role, access rooted at an org
// unit with a scope shape. A user may hold several at once; their grants
// union. The org unit and the assignment always share a tenant.
type Assignment struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	userID      uuid.UUID
	orgUnitID   uuid.UUID
	roleID      uuid.UUID
	scope       authz.ScopeType
	customUnits []uuid.UUID
	createdAt   time.Time
}

type Option func(*Assignment)

func WithID(id uuid.UUID) Option {
	return func(a *Assignment) {
		a.id = id
	}
}

// WithCustomUnits enumerates the exact reachable units. Only meaningful
// for ScopeCustomSet; the repository rejects it for other scopes.
func WithCustomUnits(unitIDs []uuid.UUID) Option {
	return func(a *Assignment) {
		a.customUnits = unitIDs
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(a *Assignment) {
		a.createdAt = createdAt
	}
}

func New(tenantID, userID, orgUnitID, roleID uuid.UUID, scope authz.ScopeType, opts ...Option) *Assignment {
	a := &Assignment{
		id:        uuid.New(),
		tenantID:  tenantID,
		userID:    userID,
		orgUnitID: orgUnitID,
		roleID:    roleID,
		scope:     scope,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assignment) ID() uuid.UUID            { return a.id }
func (a *Assignment) TenantID() uuid.UUID      { return a.tenantID }
func (a *Assignment) UserID() uuid.UUID        { return a.userID }
func (a *Assignment) OrgUnitID() uuid.UUID     { return a.orgUnitID }
func (a *Assignment) RoleID() uuid.UUID        { return a.roleID }
func (a *Assignment) Scope() authz.ScopeType   { return a.scope }
func (a *Assignment) CustomUnits() []uuid.UUID { return a.customUnits }
func (a *Assignment) CreatedAt() time.Time     { return a.createdAt }

// AuthzView maps the aggregate to the authorization engine's view.
func (a *Assignment) AuthzView() authz.Assignment {
	return authz.Assignment{
		ID:          a.id,
		TenantID:    a.tenantID,
		UserID:      a.userID,
		OrgUnitID:   a.orgUnitID,
		RoleID:      a.roleID,
		Scope:       a.scope,
		CustomUnits: a.customUnits,
	}
}
