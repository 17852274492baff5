package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/role"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence"
	"github.com/flock-suite/flock-sdk/modules/iam/permissions"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
	"github.com/flock-suite/flock-sdk/pkg/eventbus"
)

type RoleService struct {
	repo      *persistence.RoleRepository
	guard     *authz.Service
	publisher eventbus.EventBus
}

func NewRoleService(repo *persistence.RoleRepository, guard *authz.Service, publisher eventbus.EventBus) *RoleService {
	return &RoleService{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) (*role.Role, error) {
		if err := s.requirePermission(txCtx, permissions.RolesRead.Code); err != nil {
			return nil, err
		}
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *RoleService) List(ctx context.Context) ([]*role.Role, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) ([]*role.Role, error) {
		if err := s.requirePermission(txCtx, permissions.RolesRead.Code); err != nil {
			return nil, err
		}
		return s.repo.List(txCtx)
	})
}

func (s *RoleService) Create(ctx context.Context, entity *role.Role) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if err := s.requirePermission(txCtx, permissions.RolesCreate.Code); err != nil {
			return err
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("role.created", entity)
	return nil
}

func (s *RoleService) Update(ctx context.Context, entity *role.Role) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if err := s.requirePermission(txCtx, permissions.RolesUpdate.Code); err != nil {
			return err
		}
		return s.repo.Update(txCtx, entity)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("role.updated", entity)
	return nil
}

func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if err := s.requirePermission(txCtx, permissions.RolesDelete.Code); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("role.deleted", id)
	return nil
}

func (s *RoleService) requirePermission(ctx context.Context, code string) error {
	access, err := composables.UseAccess(ctx)
	if err != nil {
		return err
	}
	return s.guard.RequirePermission(ctx, access.UserID, access.TenantID, code)
}
