package main

import (
	"anoa.com/donorhub/internal/bootstrap"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := bootstrap.Migrate(db); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var withSamples bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, the admin account and (optionally) sample campaigns",
	Long: `Seeds the default roles. In development, or when --samples is given, it also
creates the admin account from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD and two
sample campaigns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := bootstrap.Migrate(db); err != nil {
			return err
		}
		if err := bootstrap.SeedRoles(db); err != nil {
			return err
		}
		if !cfg.IsDevelopment() && !withSamples {
			log.Info("roles seeded")
			return nil
		}

		if err := bootstrap.SeedAdminUser(db, cfg.SeedAdminEmail, cfg.SeedAdminPassword, log); err != nil {
			return err
		}
		return bootstrap.SeedCampaigns(db, log)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&withSamples, "samples", false, "seed the admin account and sample campaigns outside development")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}
