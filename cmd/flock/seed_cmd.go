package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	financepermissions "github.com/flock-suite/flock-sdk/modules/finance/permissions"
	"github.com/flock-suite/flock-sdk/modules/iam/domain/permission"
	iampersistence "github.com/flock-suite/flock-sdk/modules/iam/infrastructure/persistence"
	iampermissions "github.com/flock-suite/flock-sdk/modules/iam/permissions"
	"github.com/flock-suite/flock-sdk/pkg/composables"
	"github.com/flock-suite/flock-sdk/pkg/configuration"
	"github.com/flock-suite/flock-sdk/pkg/logging"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the permission catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			logger := logging.ConsoleLogger(conf.LogrusLogLevel())

			pool, err := pgxpool.New(cmd.Context(), conf.Database.ConnectionString())
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			ctx := composables.WithPool(cmd.Context(), pool)
			ctx = composables.WithLogger(ctx, logrus.NewEntry(logger))
			repo := iampersistence.NewPermissionRepository()

			catalog := append(append([]*permission.Permission{}, iampermissions.All...), financepermissions.All...)
			for _, p := range catalog {
				if err := repo.Save(ctx, p); err != nil {
					return err
				}
			}
			composables.UseLogger(ctx).WithField("permissions", len(catalog)).Info("permission catalog seeded")
			return nil
		},
	}
	return cmd
}
