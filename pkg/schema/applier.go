// Package schema applies embedded module schemas and the generated
// row-filter DDL to a database.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"
)

type Applier struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewApplier(db *sql.DB, logger *logrus.Logger) *Applier {
	return &Applier{
		db:     db,
		logger: logger.WithField("component", "schema"),
	}
}

// ApplyFS reads one schema file from the module's embedded filesystem and
// executes it. Module schemas are written to be idempotent, so re-running
// a migration is safe.
func (a *Applier) ApplyFS(ctx context.Context, fsys fs.FS, path string) error {
	ddl, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("reading schema %s: %w", path, err)
	}
	return a.ApplySQL(ctx, path, string(ddl))
}

// ApplySQL executes a named DDL blob in a single transaction.
func (a *Applier) ApplySQL(ctx context.Context, name, ddl string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			a.logger.WithError(rErr).Error("rollback failed after schema error")
		}
		return fmt.Errorf("applying schema %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema %s: %w", name, err)
	}
	a.logger.WithField("schema", name).Info("schema applied")
	return nil
}
