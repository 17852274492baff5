package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/modules/finance/domain/batch"
	"github.com/flock-suite/flock-sdk/modules/finance/infrastructure/persistence"
	"github.com/flock-suite/flock-sdk/modules/finance/permissions"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
	"github.com/flock-suite/flock-sdk/pkg/eventbus"
)

type BatchService struct {
	repo      *persistence.BatchRepository
	guard     *authz.Service
	publisher eventbus.EventBus
}

func NewBatchService(repo *persistence.BatchRepository, guard *authz.Service, publisher eventbus.EventBus) *BatchService {
	return &BatchService{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

func (s *BatchService) GetByID(ctx context.Context, id uuid.UUID) (*batch.Batch, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) (*batch.Batch, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.BatchesRead.Code); err != nil {
			return nil, err
		}
		return entity, nil
	})
}

func (s *BatchService) ListForOrgUnit(ctx context.Context, orgUnitID uuid.UUID) ([]*batch.Batch, error) {
	return composables.InAccessTxResult(ctx, func(txCtx context.Context) ([]*batch.Batch, error) {
		if err := s.requireOrgAccess(txCtx, orgUnitID, permissions.BatchesRead.Code); err != nil {
			return nil, err
		}
		return s.repo.ListForOrgUnit(txCtx, orgUnitID)
	})
}

func (s *BatchService) Create(ctx context.Context, entity *batch.Batch) error {
	err := composables.InAccessTx(ctx, func(txCtx context.Context) error {
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.BatchesCreate.Code); err != nil {
			return err
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish("batch.created", entity)
	return nil
}

// Verify records one half of the dual verification on behalf of the
// acting user. The row is locked for the duration so two concurrent
// verifiers cannot both take the first slot.
func (s *BatchService) Verify(ctx context.Context, id uuid.UUID) (*batch.Batch, error) {
	verified, err := composables.InAccessTxResult(ctx, func(txCtx context.Context) (*batch.Batch, error) {
		userID, err := composables.UseUserID(txCtx)
		if err != nil {
			return nil, err
		}
		entity, err := s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.BatchesVerify.Code); err != nil {
			return nil, err
		}
		updated, err := entity.Verify(userID)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, updated); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish("batch.verified", verified)
	return verified, nil
}

// Lock finalizes a fully verified batch. The acting user must not have
// verified either half.
func (s *BatchService) Lock(ctx context.Context, id uuid.UUID) (*batch.Batch, error) {
	locked, err := composables.InAccessTxResult(ctx, func(txCtx context.Context) (*batch.Batch, error) {
		userID, err := composables.UseUserID(txCtx)
		if err != nil {
			return nil, err
		}
		entity, err := s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := s.requireOrgAccess(txCtx, entity.OrgUnitID(), permissions.BatchesLock.Code); err != nil {
			return nil, err
		}
		updated, err := entity.Lock(userID)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, updated); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish("batch.locked", locked)
	return locked, nil
}

func (s *BatchService) requireOrgAccess(ctx context.Context, orgUnitID uuid.UUID, code string) error {
	access, err := composables.UseAccess(ctx)
	if err != nil {
		return err
	}
	return s.guard.RequireOrgAccess(ctx, access.UserID, access.TenantID, orgUnitID, code)
}
