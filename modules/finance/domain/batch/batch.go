package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/pkg/authz"
	"github.com/flock-suite/flock-sdk/pkg/serrors"
)

// Status tracks a batch through the two-party control flow. Locked is
// terminal; no transition leaves it.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPartiallyVerified Status = "partially_verified"
	StatusVerified          Status = "verified"
	StatusLocked            Status = "locked"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusDraft, StatusPartiallyVerified, StatusVerified, StatusLocked:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown batch status %q", raw)
	}
}

var (
	ErrLocked = serrors.NewError(
		"FINANCE_BATCH_LOCKED",
		"batch is locked and cannot be modified",
		"Finance.Errors.BatchLocked",
	)
	ErrNotFullyVerified = serrors.NewError(
		"FINANCE_BATCH_NOT_VERIFIED",
		"batch requires two verifications before locking",
		"Finance.Errors.BatchNotVerified",
	)
)

// Batch is a financial posting batch under dual control. Locking takes
// three distinct people: two verifiers, then a locker who verified
// neither half.
type Batch struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	orgUnitID   uuid.UUID
	reference   string
	status      Status
	verifiedBy1 *uuid.UUID
	verifiedBy2 *uuid.UUID
	lockedBy    *uuid.UUID
	verifiedAt1 *time.Time
	verifiedAt2 *time.Time
	lockedAt    *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Batch)

func WithID(id uuid.UUID) Option {
	return func(b *Batch) {
		b.id = id
	}
}

func WithStatus(status Status) Option {
	return func(b *Batch) {
		b.status = status
	}
}

func WithVerifiedBy1(userID *uuid.UUID, at *time.Time) Option {
	return func(b *Batch) {
		b.verifiedBy1 = userID
		b.verifiedAt1 = at
	}
}

func WithVerifiedBy2(userID *uuid.UUID, at *time.Time) Option {
	return func(b *Batch) {
		b.verifiedBy2 = userID
		b.verifiedAt2 = at
	}
}

func WithLockedBy(userID *uuid.UUID, at *time.Time) Option {
	return func(b *Batch) {
		b.lockedBy = userID
		b.lockedAt = at
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(b *Batch) {
		b.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(b *Batch) {
		b.updatedAt = updatedAt
	}
}

func New(tenantID, orgUnitID uuid.UUID, reference string, opts ...Option) *Batch {
	b := &Batch{
		id:        uuid.New(),
		tenantID:  tenantID,
		orgUnitID: orgUnitID,
		reference: reference,
		status:    StatusDraft,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Batch) ID() uuid.UUID           { return b.id }
func (b *Batch) TenantID() uuid.UUID     { return b.tenantID }
func (b *Batch) OrgUnitID() uuid.UUID    { return b.orgUnitID }
func (b *Batch) Reference() string       { return b.reference }
func (b *Batch) Status() Status          { return b.status }
func (b *Batch) VerifiedBy1() *uuid.UUID { return b.verifiedBy1 }
func (b *Batch) VerifiedBy2() *uuid.UUID { return b.verifiedBy2 }
func (b *Batch) LockedBy() *uuid.UUID    { return b.lockedBy }
func (b *Batch) VerifiedAt1() *time.Time { return b.verifiedAt1 }
func (b *Batch) VerifiedAt2() *time.Time { return b.verifiedAt2 }
func (b *Batch) LockedAt() *time.Time    { return b.lockedAt }
func (b *Batch) CreatedAt() time.Time    { return b.createdAt }
func (b *Batch) UpdatedAt() time.Time    { return b.updatedAt }

func (b *Batch) IsLocked() bool { return b.status == StatusLocked }

func (b *Batch) IsFullyVerified() bool {
	return b.verifiedBy1 != nil && b.verifiedBy2 != nil
}

// Verify records a verification by userID and returns the updated batch.
// Each user verifies at most once; verifying a locked batch is rejected
// outright.
func (b *Batch) Verify(userID uuid.UUID) (*Batch, error) {
	if b.IsLocked() {
		return nil, ErrLocked
	}
	if b.hasVerified(userID) {
		return nil, authz.DuplicateVerifierError(userID)
	}
	if b.IsFullyVerified() {
		return nil, serrors.NewError(
			"FINANCE_BATCH_ALREADY_VERIFIED",
			"batch already has two verifications",
			"Finance.Errors.BatchAlreadyVerified",
		)
	}

	now := time.Now()
	clone := *b
	if clone.verifiedBy1 == nil {
		clone.verifiedBy1 = &userID
		clone.verifiedAt1 = &now
		clone.status = StatusPartiallyVerified
	} else {
		clone.verifiedBy2 = &userID
		clone.verifiedAt2 = &now
		clone.status = StatusVerified
	}
	clone.updatedAt = now
	return &clone, nil
}

// Lock finalizes the batch. The locker must be distinct from both
// verifiers, and both verifications must already be recorded.
func (b *Batch) Lock(userID uuid.UUID) (*Batch, error) {
	if b.IsLocked() {
		return nil, ErrLocked
	}
	if !b.IsFullyVerified() {
		return nil, ErrNotFullyVerified
	}
	if b.hasVerified(userID) {
		return nil, authz.DuplicateVerifierError(userID)
	}

	now := time.Now()
	clone := *b
	clone.lockedBy = &userID
	clone.lockedAt = &now
	clone.status = StatusLocked
	clone.updatedAt = now
	return &clone, nil
}

func (b *Batch) hasVerified(userID uuid.UUID) bool {
	if b.verifiedBy1 != nil && *b.verifiedBy1 == userID {
		return true
	}
	return b.verifiedBy2 != nil && *b.verifiedBy2 == userID
}
