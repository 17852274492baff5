package rowfilter_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/pkg/rowfilter"
)

type recordedExec struct {
	sql  string
	args []any
}

type fakeExecer struct {
	execs []recordedExec
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func TestInstaller_Disabled_NoOp(t *testing.T) {
	installer := rowfilter.NewSessionInstaller(false)
	tx := &fakeExecer{}

	err := installer.Install(context.Background(), tx, uuid.New(), uuid.New(), []string{"finance.batches.read"})
	require.NoError(t, err)
	require.Empty(t, tx.execs)
	require.False(t, installer.Enabled())
}

func TestInstaller_SetsTransactionLocalSettings(t *testing.T) {
	installer := rowfilter.NewSessionInstaller(true)
	tx := &fakeExecer{}
	tenantID := uuid.New()
	userID := uuid.New()

	err := installer.Install(context.Background(), tx, tenantID, userID, []string{
		"finance.batches.read",
		"finance.batches.lock",
	})
	require.NoError(t, err)
	require.Len(t, tx.execs, 3)

	require.Contains(t, tx.execs[0].sql, "set_config('app.tenant_id', $1, true)")
	require.Equal(t, []any{tenantID.String()}, tx.execs[0].args)

	require.Contains(t, tx.execs[1].sql, "set_config('app.user_id', $1, true)")
	require.Equal(t, []any{userID.String()}, tx.execs[1].args)

	require.Contains(t, tx.execs[2].sql, "set_config('app.perms', $1, true)")
	require.Equal(t, []any{`{"finance.batches.read","finance.batches.lock"}`}, tx.execs[2].args)
}

func TestPermsArrayLiteral(t *testing.T) {
	require.Equal(t, "{}", rowfilter.PermsArrayLiteral(nil))
	require.Equal(t, `{"a.b.c"}`, rowfilter.PermsArrayLiteral([]string{"a.b.c"}))
	require.Equal(
		t,
		`{"a.b.c","x.y.z"}`,
		rowfilter.PermsArrayLiteral([]string{"a.b.c", "x.y.z"}),
	)
	// Quotes and backslashes cannot break out of the literal.
	require.Equal(
		t,
		`{"we\"ird","ba\\ck"}`,
		rowfilter.PermsArrayLiteral([]string{`we"ird`, `ba\ck`}),
	)
}
