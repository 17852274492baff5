package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/orgunit"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence"
	"github.com/flock-suite/flock-sdk/modules/iam/permissions"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
	"github.com/flock-suite/flock-sdk/pkg/eventbus"
)

type OrgUnitService struct {
	repo      *persistence.OrgUnitRepository
	guard     *authz.Service
	publisher eventbus.EventBus
}

func NewOrgUnitService(repo *persistence.OrgUnitRepository, guard *authz.Service, publisher eventbus.EventBus) *OrgUnitService {
	return &OrgUnitService{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

func (s *OrgUnitService) GetByID(ctx context.Context, id uuid.UUID) (*orgunit.OrgUnit, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) (*orgunit.OrgUnit, error) {
		if err := s.requireOrgAccess(txCtx, id, permissions.OrgUnitsRead.Code); err != nil {
			return nil, err
		}
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *OrgUnitService) Children(ctx context.Context, parentID uuid.UUID) ([]*orgunit.OrgUnit, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) ([]*orgunit.OrgUnit, error) {
		if err := s.requireOrgAccess(txCtx, parentID, permissions.OrgUnitsRead.Code); err != nil {
			return nil, err
		}
		return s.repo.Children(txCtx, parentID)
	})
}

func (s *OrgUnitService) Subtree(ctx context.Context, rootID uuid.UUID) ([]*orgunit.OrgUnit, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) ([]*orgunit.OrgUnit, error) {
		if err := s.requireOrgAccess(txCtx, rootID, permissions.OrgUnitsRead.Code); err != nil {
			return nil, err
		}
		return s.repo.Subtree(txCtx, rootID)
	})
}

// Create inserts a new unit. Creating under a parent requires org access
// at the parent; creating a root requires only the permission.
func (s *OrgUnitService) Create(ctx context.Context, unit *orgunit.OrgUnit) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if unit.ParentID() != nil {
			if err := s.requireOrgAccess(txCtx, *unit.ParentID(), permissions.OrgUnitsCreate.Code); err != nil {
				return err
			}
		} else {
			if err := s.requirePermission(txCtx, permissions.OrgUnitsCreate.Code); err != nil {
				return err
			}
		}
		return s.repo.Create(txCtx, unit)
	})
	if err != nil {
		return err
	}
	composables.UseLogger(ctx).WithField("org_unit", unit.ID()).Info("org unit created")
	s.publisher.Publish("org_unit.created", unit)
	return nil
}

func (s *OrgUnitService) Rename(ctx context.Context, id uuid.UUID, name string) (*orgunit.OrgUnit, error) {
	updated, err := composables.InAccessTxResult(ctx, func(txCtx context.Context) (*orgunit.OrgUnit, error) {
		if err := s.requireOrgAccess(txCtx, id, permissions.OrgUnitsUpdate.Code); err != nil {
			return nil, err
		}
		unit, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		renamed := unit.Rename(name)
		if err := s.repo.Update(txCtx, renamed); err != nil {
			return nil, err
		}
		return renamed, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish("org_unit.updated", updated)
	return updated, nil
}

// Reparent moves a unit under a new parent. Requires update access at the
// unit and create access at the new parent; the repository rejects moves
// that would place a unit under its own subtree.
func (s *OrgUnitService) Reparent(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID) (*orgunit.OrgUnit, error) {
	updated, err := composables.InAccessTxResult(ctx, func(txCtx context.Context) (*orgunit.OrgUnit, error) {
		if err := s.requireOrgAccess(txCtx, id, permissions.OrgUnitsUpdate.Code); err != nil {
			return nil, err
		}
		if newParentID != nil {
			if err := s.requireOrgAccess(txCtx, *newParentID, permissions.OrgUnitsCreate.Code); err != nil {
				return nil, err
			}
		}
		unit, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		moved := unit.Reparent(newParentID)
		if err := s.repo.Update(txCtx, moved); err != nil {
			return nil, err
		}
		return moved, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish("org_unit.updated", updated)
	return updated, nil
}

func (s *OrgUnitService) Delete(ctx context.Context, id uuid.UUID) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if err := s.requireOrgAccess(txCtx, id, permissions.OrgUnitsDelete.Code); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}
	composables.UseLogger(ctx).WithField("org_unit", id).Info("org unit deleted")
	s.publisher.Publish("org_unit.deleted", id)
	return nil
}

func (s *OrgUnitService) requirePermission(ctx context.Context, code string) error {
	access, err := composables.UseAccess(ctx)
	if err != nil {
		return err
	}
	return s.guard.RequirePermission(ctx, access.UserID, access.TenantID, code)
}

func (s *OrgUnitService) requireOrgAccess(ctx context.Context, orgUnitID uuid.UUID, code string) error {
	access, err := composables.UseAccess(ctx)
	if err != nil {
		return err
	}
	return s.guard.RequireOrgAccess(ctx, access.UserID, access.TenantID, orgUnitID, code)
}
