package composables

import (
	"context"
	"fmt"

	"github.com/flock-suite/flock-sdk/pkg/configuration"
	"github.com/flock-suite/flock-sdk/pkg/rowfilter"
)

// ApplyAccessRLS installs the transaction-local access context consulted
// by the row-filter predicates. Under RLS_ENFORCE=disabled it is a no-op.
// The settings are transaction-scoped, so each transaction must
// re-establish them and nothing survives into the next request on a
// pooled connection.
func ApplyAccessRLS(ctx context.Context, tx rowfilter.Execer) error {
	installer := rowfilter.NewSessionInstaller(configuration.Use().RLSEnforce == "enforce")
	if !installer.Enabled() {
		return nil
	}
	access, err := UseAccess(ctx)
	if err != nil {
		return fmt.Errorf("rls requires access context: %w", err)
	}
	return installer.Install(ctx, tx, access.TenantID, access.UserID, access.Permissions)
}
