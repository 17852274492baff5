package composables_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/pkg/composables"
)

func TestAccessContext(t *testing.T) {
	access := &composables.Access{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Permissions: []string{"finance.batches.read"},
	}
	ctx := composables.WithAccess(context.Background(), access)

	got, err := composables.UseAccess(ctx)
	require.NoError(t, err)
	require.Same(t, access, got)

	tenantID, err := composables.UseTenantID(ctx)
	require.NoError(t, err)
	require.Equal(t, access.TenantID, tenantID)

	userID, err := composables.UseUserID(ctx)
	require.NoError(t, err)
	require.Equal(t, access.UserID, userID)
}

func TestAccessContext_Missing(t *testing.T) {
	ctx := context.Background()

	_, err := composables.UseAccess(ctx)
	require.ErrorIs(t, err, composables.ErrNoAccessContext)

	_, err = composables.UseTenantID(ctx)
	require.ErrorIs(t, err, composables.ErrNoAccessContext)

	_, err = composables.UseUserID(ctx)
	require.ErrorIs(t, err, composables.ErrNoAccessContext)
}

func TestUseTenantID_RejectsZeroTenant(t *testing.T) {
	ctx := composables.WithAccess(context.Background(), &composables.Access{
		UserID: uuid.New(),
	})

	_, err := composables.UseTenantID(ctx)
	require.ErrorIs(t, err, composables.ErrNoAccessContext)
}

func TestLoggerContext(t *testing.T) {
	entry := logrus.New().WithField("component", "seed")
	ctx := composables.WithLogger(context.Background(), entry)
	require.Same(t, entry, composables.UseLogger(ctx))

	// No logger on the context falls back to the standard entry.
	require.NotNil(t, composables.UseLogger(context.Background()))
}

func TestUsePool_Missing(t *testing.T) {
	_, err := composables.UsePool(context.Background())
	require.ErrorIs(t, err, composables.ErrNoPool)

	// UseTx falls back to the pool lookup when no transaction is set.
	_, err = composables.UseTx(context.Background())
	require.ErrorIs(t, err, composables.ErrNoPool)
}
