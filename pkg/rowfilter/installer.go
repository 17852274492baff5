package rowfilter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the slice of pgx.Tx the installer needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SessionInstaller publishes the acting principal into transaction-local
// settings consulted by the row-filter predicates. Values installed with
// set_config(..., true) die with the transaction, so nothing leaks between
// requests sharing a pooled connection.
//
// Enforcement is decided at construction: a disabled installer is a no-op
// pass-through, never a partially-installed context.
type SessionInstaller struct {
	enforce bool
}

func NewSessionInstaller(enforce bool) *SessionInstaller {
	return &SessionInstaller{enforce: enforce}
}

func (i *SessionInstaller) Enabled() bool { return i.enforce }

// Install sets app.tenant_id, app.user_id and app.perms for the current
// transaction. It must run before any row-filtered read; a transaction
// without these settings sees zero rows, not all rows.
func (i *SessionInstaller) Install(ctx context.Context, tx Execer, tenantID, userID uuid.UUID, permissions []string) error {
	if !i.enforce {
		return nil
	}

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID.String()); err != nil {
		return fmt.Errorf("rowfilter: failed to set tenant context: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID.String()); err != nil {
		return fmt.Errorf("rowfilter: failed to set user context: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.perms', $1, true)", PermsArrayLiteral(permissions)); err != nil {
		return fmt.Errorf("rowfilter: failed to set permission context: %w", err)
	}
	return nil
}

// PermsArrayLiteral renders permission codes as a text[] literal. Codes are
// seeded identifiers (module.resource.action), quoted defensively anyway.
func PermsArrayLiteral(perms []string) string {
	if len(perms) == 0 {
		return "{}"
	}
	quoted := make([]string, len(perms))
	for i, p := range perms {
		quoted[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(p) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
