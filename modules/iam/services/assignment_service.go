package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/iam/domain/assignment"
	"github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence"
	"github.com/flock-suite/flock-sdk/modules/iam/permissions"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
	"github.com/flock-suite/flock-sdk/pkg/eventbus"
)

type AssignmentService struct {
	repo      *persistence.AssignmentRepository
	guard     *authz.Service
	publisher eventbus.EventBus
}

func NewAssignmentService(repo *persistence.AssignmentRepository, guard *authz.Service, publisher eventbus.EventBus) *AssignmentService {
	return &AssignmentService{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

// Create grants an assignment. The caller needs org access at the anchor
// unit; granting access wider than one's own is caught there, since the
// anchor bounds everything the assignment can reach.
func (s *AssignmentService) Create(ctx context.Context, entity *assignment.Assignment) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.RolesAssign.Code); err != nil {
			return err
		}
		if entity.Scope() == authz.ScopeCustomSet {
			for _, unitID := range entity.CustomUnits() {
				if err := s.requireOrgAccess(txCtx, unitID, permissions.RolesAssign.Code); err != nil {
					return err
				}
			}
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("org_assignment.created", entity)
	return nil
}

func (s *AssignmentService) GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) (*assignment.Assignment, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		access, err := composables.UseAccess(txCtx)
		if err != nil {
			return nil, err
		}
		// Subjects may always read their own assignments.
		if entity.UserID() == access.UserID {
			return entity, nil
		}
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.RolesAssign.Code); err != nil {
			return nil, err
		}
		return entity, nil
	})
}

func (s *AssignmentService) ListForUser(ctx context.Context, userID uuid.UUID) ([]authz.Assignment, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) ([]authz.Assignment, error) {
		access, err := composables.UseAccess(txCtx)
		if err != nil {
			return nil, err
		}
		if userID != access.UserID {
			if err := s.requirePermission(txCtx, permissions.RolesAssign.Code); err != nil {
				return nil, err
			}
		}
		return s.repo.ListForUser(txCtx, userID, access.TenantID)
	})
}

func (s *AssignmentService) AddCustomUnit(ctx context.Context, assignmentID, unitID uuid.UUID) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, assignmentID)
		if err != nil {
			return err
		}
		if err := s.requireOrgAccess(txCtx, unitID, permissions.RolesAssign.Code); err != nil {
			return err
		}
		return s.repo.AddCustomUnit(txCtx, entity, unitID)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("org_assignment.updated", assignmentID)
	return nil
}

func (s *AssignmentService) RemoveCustomUnit(ctx context.Context, assignmentID, unitID uuid.UUID) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, assignmentID)
		if err != nil {
			return err
		}
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.RolesAssign.Code); err != nil {
			return err
		}
		return s.repo.RemoveCustomUnit(txCtx, entity, unitID)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("org_assignment.updated", assignmentID)
	return nil
}

func (s *AssignmentService) Delete(ctx context.Context, id uuid.UUID) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.RolesAssign.Code); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("org_assignment.deleted", id)
	return nil
}

func (s *AssignmentService) requirePermission(ctx context.Context, code string) error {
	access, err := composables.UseAccess(ctx)
	if err != nil {
		return err
	}
	return s.guard.RequirePermission(ctx, access.UserID, access.TenantID, code)
}

func (s *AssignmentService) requireOrgAccess(ctx context.Context, orgUnitID uuid.UUID, code string) error {
	access, err := composables.UseAccess(ctx)
	if err != nil {
		return err
	}
	return s.guard.RequireOrgAccess(ctx, access.UserID, access.TenantID, orgUnitID, code)
}
