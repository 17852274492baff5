package batch_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/modules/finance/domain/batch"
	"github.com/flock-suite/flock-sdk/pkg/authz"
)

func newDraft(t *testing.T) *batch.Batch {
	t.Helper()
	return batch.New(uuid.New(), uuid.New(), "2026-08-OFFERINGS")
}

func TestBatch_VerifyTwice_RequiresDistinctUsers(t *testing.T) {
	b := newDraft(t)
	alice := uuid.New()

	b, err := b.Verify(alice)
	require.NoError(t, err)
	require.Equal(t, batch.StatusPartiallyVerified, b.Status())
	require.Equal(t, alice, *b.VerifiedBy1())

	_, err = b.Verify(alice)
	require.Error(t, err)
	require.True(t, authz.IsDuplicateVerifier(err))
}

func TestBatch_TwoVerificationsThenLock(t *testing.T) {
	b := newDraft(t)
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	b, err := b.Verify(alice)
	require.NoError(t, err)
	b, err = b.Verify(bob)
	require.NoError(t, err)
	require.Equal(t, batch.StatusVerified, b.Status())
	require.True(t, b.IsFullyVerified())

	b, err = b.Lock(carol)
	require.NoError(t, err)
	require.Equal(t, batch.StatusLocked, b.Status())
	require.Equal(t, carol, *b.LockedBy())
	require.NotNil(t, b.LockedAt())
}

func TestBatch_LockByVerifier_Rejected(t *testing.T) {
	b := newDraft(t)
	alice, bob := uuid.New(), uuid.New()

	b, err := b.Verify(alice)
	require.NoError(t, err)
	b, err = b.Verify(bob)
	require.NoError(t, err)

	_, err = b.Lock(alice)
	require.True(t, authz.IsDuplicateVerifier(err))
	_, err = b.Lock(bob)
	require.True(t, authz.IsDuplicateVerifier(err))
}

func TestBatch_LockBeforeFullVerification_Rejected(t *testing.T) {
	b := newDraft(t)
	alice := uuid.New()

	_, err := b.Lock(uuid.New())
	require.ErrorIs(t, err, batch.ErrNotFullyVerified)

	b, err = b.Verify(alice)
	require.NoError(t, err)
	_, err = b.Lock(uuid.New())
	require.ErrorIs(t, err, batch.ErrNotFullyVerified)
}

func TestBatch_LockedIsTerminal(t *testing.T) {
	b := newDraft(t)
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	b, err := b.Verify(alice)
	require.NoError(t, err)
	b, err = b.Verify(bob)
	require.NoError(t, err)
	b, err = b.Lock(carol)
	require.NoError(t, err)

	_, err = b.Verify(uuid.New())
	require.ErrorIs(t, err, batch.ErrLocked)
	_, err = b.Lock(uuid.New())
	require.ErrorIs(t, err, batch.ErrLocked)
}

func TestBatch_ThirdVerification_Rejected(t *testing.T) {
	b := newDraft(t)

	b, err := b.Verify(uuid.New())
	require.NoError(t, err)
	b, err = b.Verify(uuid.New())
	require.NoError(t, err)

	_, err = b.Verify(uuid.New())
	require.Error(t, err)
	require.False(t, authz.IsDuplicateVerifier(err))
}

func TestBatch_VerifyDoesNotMutateReceiver(t *testing.T) {
	b := newDraft(t)

	verified, err := b.Verify(uuid.New())
	require.NoError(t, err)
	require.Equal(t, batch.StatusDraft, b.Status())
	require.Nil(t, b.VerifiedBy1())
	require.NotNil(t, verified.VerifiedBy1())
}
