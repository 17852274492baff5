package schema_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/pkg/schema"
)

func newApplier(t *testing.T) (*schema.Applier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return schema.NewApplier(db, logger), mock
}

func TestApplier_ApplySQL(t *testing.T) {
	applier, mock := newApplier(t)
	ddl := "CREATE TABLE IF NOT EXISTS widgets (id uuid PRIMARY KEY);"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(ddl)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, applier.ApplySQL(context.Background(), "widgets", ddl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplier_ApplySQL_RollsBackOnError(t *testing.T) {
	applier, mock := newApplier(t)
	ddl := "CREATE TABLE broken"
	execErr := errors.New("syntax error at end of input")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(ddl)).WillReturnError(execErr)
	mock.ExpectRollback()

	err := applier.ApplySQL(context.Background(), "broken", ddl)
	require.ErrorIs(t, err, execErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplier_ApplyFS(t *testing.T) {
	applier, mock := newApplier(t)
	ddl := "CREATE TABLE IF NOT EXISTS things (id uuid PRIMARY KEY);"
	fsys := fstest.MapFS{
		"schema/things.sql": &fstest.MapFile{Data: []byte(ddl)},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(ddl)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, applier.ApplyFS(context.Background(), fsys, "schema/things.sql"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplier_ApplyFS_MissingFile(t *testing.T) {
	applier, _ := newApplier(t)

	err := applier.ApplyFS(context.Background(), fstest.MapFS{}, "schema/absent.sql")
	require.Error(t, err)
}
