package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flock-suite/flock-sdk/modules/finance/domain/batch"
	"github.com/flock-suite/flock-sdk/modules/finance/infrastructure/persistence/models"
	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/composables"
)

const (
	selectBatchQuery = `
		SELECT id, tenant_id, org_unit_id, reference, status,
			verified_by_1, verified_by_2, locked_by,
			verified_at_1, verified_at_2, locked_at,
			created_at, updated_at
		FROM batches`

	insertBatchQuery = `
		INSERT INTO batches (
			id, tenant_id, org_unit_id, reference, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateBatchQuery = `
		UPDATE batches
		SET status = $1,
			verified_by_1 = $2, verified_by_2 = $3, locked_by = $4,
			verified_at_1 = $5, verified_at_2 = $6, locked_at = $7,
			updated_at = $8
		WHERE id = $9 AND tenant_id = $10`
)

type BatchRepository struct{}

func NewBatchRepository() *BatchRepository {
	return &BatchRepository{}
}

func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*batch.Batch, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate row-locks the batch for the verify and lock flows, so two
// concurrent verifiers serialize instead of both taking slot one.
func (r *BatchRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*batch.Batch, error) {
	return r.get(ctx, id, true)
}

func (r *BatchRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*batch.Batch, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	query := selectBatchQuery + " WHERE id = $1 AND tenant_id = $2"
	if forUpdate {
		query += " FOR UPDATE"
	}
	row := tx.QueryRow(ctx, query, id, tenantID)
	var m models.Batch
	err = row.Scan(
		&m.ID, &m.TenantID, &m.OrgUnitID, &m.Reference, &m.Status,
		&m.VerifiedBy1, &m.VerifiedBy2, &m.LockedBy,
		&m.VerifiedAt1, &m.VerifiedAt2, &m.LockedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authz.NotFoundError("batch", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying batch %s: %w", id, err)
	}
	return toDomainBatch(&m)
}

func (r *BatchRepository) ListForOrgUnit(ctx context.Context, orgUnitID uuid.UUID) ([]*batch.Batch, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectBatchQuery+" WHERE org_unit_id = $1 AND tenant_id = $2 ORDER BY created_at DESC", orgUnitID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing batches for org unit %s: %w", orgUnitID, err)
	}
	defer rows.Close()

	var batches []*batch.Batch
	for rows.Next() {
		var m models.Batch
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.OrgUnitID, &m.Reference, &m.Status,
			&m.VerifiedBy1, &m.VerifiedBy2, &m.LockedBy,
			&m.VerifiedAt1, &m.VerifiedAt2, &m.LockedAt,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entity, err := toDomainBatch(&m)
		if err != nil {
			return nil, err
		}
		batches = append(batches, entity)
	}
	return batches, rows.Err()
}

func (r *BatchRepository) Create(ctx context.Context, entity *batch.Batch) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		ctx,
		insertBatchQuery,
		entity.ID(),
		entity.TenantID(),
		entity.OrgUnitID(),
		entity.Reference(),
		string(entity.Status()),
		entity.CreatedAt(),
		entity.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("inserting batch %s: %w", entity.Reference(), err)
	}
	return nil
}

// Update persists the verification and lock columns. The caller holds a
// FOR UPDATE lock from GetForUpdate; this only flushes the aggregate.
func (r *BatchRepository) Update(ctx context.Context, entity *batch.Batch) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(
		ctx,
		updateBatchQuery,
		string(entity.Status()),
		nullableUUID(entity.VerifiedBy1()),
		nullableUUID(entity.VerifiedBy2()),
		nullableUUID(entity.LockedBy()),
		nullableTime(entity.VerifiedAt1()),
		nullableTime(entity.VerifiedAt2()),
		nullableTime(entity.LockedAt()),
		entity.UpdatedAt(),
		entity.ID(),
		entity.TenantID(),
	)
	if err != nil {
		return fmt.Errorf("updating batch %s: %w", entity.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return authz.NotFoundError("batch", entity.ID())
	}
	return nil
}

func toDomainBatch(m *models.Batch) (*batch.Batch, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, err
	}
	orgUnitID, err := uuid.Parse(m.OrgUnitID)
	if err != nil {
		return nil, err
	}
	status, err := batch.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	verifiedBy1, err := parseNullUUID(m.VerifiedBy1)
	if err != nil {
		return nil, err
	}
	verifiedBy2, err := parseNullUUID(m.VerifiedBy2)
	if err != nil {
		return nil, err
	}
	lockedBy, err := parseNullUUID(m.LockedBy)
	if err != nil {
		return nil, err
	}

	return batch.New(
		tenantID,
		orgUnitID,
		m.Reference,
		batch.WithID(id),
		batch.WithStatus(status),
		batch.WithVerifiedBy1(verifiedBy1, nullTimePtr(m.VerifiedAt1)),
		batch.WithVerifiedBy2(verifiedBy2, nullTimePtr(m.VerifiedAt2)),
		batch.WithLockedBy(lockedBy, nullTimePtr(m.LockedAt)),
		batch.WithCreatedAt(m.CreatedAt),
		batch.WithUpdatedAt(m.UpdatedAt),
	), nil
}

func parseNullUUID(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
