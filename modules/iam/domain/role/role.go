package role

import (
	"time"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/permission"
)

// Role is tenant-scoped reference data; (tenant_id, name) is unique.
type Role struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	name        string
	permissions []*permission.Permission
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Role)

func WithID(id uuid.UUID) Option {
	return func(r *Role) {
		r.id = id
	}
}

func WithPermissions(permissions []*permission.Permission) Option {
	return func(r *Role) {
		r.permissions = permissions
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(r *Role) {
		r.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(r *Role) {
		r.updatedAt = updatedAt
	}
}

func New(tenantID uuid.UUID, name string, opts ...Option) *Role {
	r := &Role{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Role) ID() uuid.UUID       { return r.id }
func (r *Role) TenantID() uuid.UUID { return r.tenantID }
func (r *Role) Name() string        { return r.name }
func (r *Role) Permissions() []*permission.Permission {
	return r.permissions
}
func (r *Role) CreatedAt() time.Time { return r.createdAt }
func (r *Role) UpdatedAt() time.Time { return r.updatedAt }

func (r *Role) SetName(name string) *Role {
	clone := *r
	clone.name = name
	clone.updatedAt = time.Now()
	return &clone
}

func (r *Role) SetPermissions(permissions []*permission.Permission) *Role {
	clone := *r
	clone.permissions = permissions
	clone.updatedAt = time.Now()
	return &clone
}
