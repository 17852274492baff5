package orgunit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type classifies a node in the tenant's organizational tree.
type Type string

const (
	TypeRegion   Type = "region"
	TypeZone     Type = "zone"
	TypeGroup    Type = "group"
	TypeChurch   Type = "church"
	TypeOutreach Type = "outreach"
)

func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeRegion, TypeZone, TypeGroup, TypeChurch, TypeOutreach:
		return Type(raw), nil
	default:
		return "", fmt.Errorf("unknown org unit type %q", raw)
	}
}

// OrgUnit is a node of a tenant's org forest. Root units have no parent;
// a parent always belongs to the same tenant.
type OrgUnit struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	unitType  Type
	parentID  *uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*OrgUnit)

func WithID(id uuid.UUID) Option {
	return func(u *OrgUnit) {
		u.id = id
	}
}

func WithParentID(parentID *uuid.UUID) Option {
	return func(u *OrgUnit) {
		u.parentID = parentID
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *OrgUnit) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *OrgUnit) {
		u.updatedAt = updatedAt
	}
}

func New(tenantID uuid.UUID, name string, unitType Type, opts ...Option) *OrgUnit {
	u := &OrgUnit{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		unitType:  unitType,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *OrgUnit) ID() uuid.UUID         { return u.id }
func (u *OrgUnit) TenantID() uuid.UUID   { return u.tenantID }
func (u *OrgUnit) Name() string          { return u.name }
func (u *OrgUnit) Type() Type            { return u.unitType }
func (u *OrgUnit) ParentID() *uuid.UUID  { return u.parentID }
func (u *OrgUnit) IsRoot() bool          { return u.parentID == nil }
func (u *OrgUnit) CreatedAt() time.Time  { return u.createdAt }
func (u *OrgUnit) UpdatedAt() time.Time  { return u.updatedAt }

func (u *OrgUnit) Rename(name string) *OrgUnit {
	clone := *u
	clone.name = name
	clone.updatedAt = time.Now()
	return &clone
}

func (u *OrgUnit) Reparent(parentID *uuid.UUID) *OrgUnit {
	clone := *u
	clone.parentID = parentID
	clone.updatedAt = time.Now()
	return &clone
}
