package main

import (
	"anoa.com/donorhub/internal/bootstrap"
	"anoa.com/donorhub/internal/server"
	"anoa.com/donorhub/pkg/database"
	"github.com/spf13/cobra"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if autoMigrate {
			if err := bootstrap.Migrate(db); err != nil {
				return err
			}
			if err := bootstrap.SeedRoles(db); err != nil {
				return err
			}
		}

		rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}

		srv, err := server.NewServer(cfg, db, rdb, log)
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "run migrations and seed roles before serving")
	rootCmd.AddCommand(serveCmd)
}
