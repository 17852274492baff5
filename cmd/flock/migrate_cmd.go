package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/flock-suite/flock-sdk/modules/finance"
	"github.com/flock-suite/flock-sdk/modules/iam"
	"github.com/flock-suite/flock-sdk/pkg/configuration"
	"github.com/flock-suite/flock-sdk/pkg/logging"
	"github.com/flock-suite/flock-sdk/pkg/rowfilter"
	"github.com/flock-suite/flock-sdk/pkg/schema"
)

func newMigrateCmd() *cobra.Command {
	var skipRowFilters bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply module schemas and row-filter policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()

			db, err := sql.Open("postgres", conf.Database.ConnectionString())
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer func() { _ = db.Close() }()
			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("pinging database: %w", err)
			}

			applier := schema.NewApplier(db, logging.ConsoleLogger(conf.LogrusLogLevel()))
			if err := applier.ApplyFS(cmd.Context(), iam.SchemaFS, iam.SchemaPath); err != nil {
				return err
			}
			if err := applier.ApplyFS(cmd.Context(), finance.SchemaFS, finance.SchemaPath); err != nil {
				return err
			}

			if skipRowFilters {
				return nil
			}
			compiler := rowfilter.Compiler{SubtreeIncludesRoot: conf.SubtreeIncludesRoot}
			return applier.ApplySQL(cmd.Context(), "rowfilter", compiler.DDL())
		},
	}

	cmd.Flags().BoolVar(&skipRowFilters, "skip-row-filters", false, "apply table schemas only")
	return cmd
}
