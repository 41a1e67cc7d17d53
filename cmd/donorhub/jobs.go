package main

import (
	"fmt"

	"anoa.com/donorhub/internal/server"
	"anoa.com/donorhub/pkg/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect or trigger background jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServer(cmd, func(srv *server.Server) error {
			for _, name := range srv.Scheduler().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

var jobsRunCmd = &cobra.Command{
	Use:   "run [job]",
	Short: "Run one job immediately, e.g. weekly_xp_reset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServer(cmd, func(srv *server.Server) error {
			if err := srv.Scheduler().RunByName(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info("job finished", zap.String("job", args[0]))
			return nil
		})
	},
}

func withServer(cmd *cobra.Command, fn func(*server.Server) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	rdb, err := database.ConnectRedis(cmd.Context(), cfg.RedisURL)
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
	return fn(srv)
}

func init() {
	jobsCmd.AddCommand(jobsListCmd, jobsRunCmd)
	rootCmd.AddCommand(jobsCmd)
}
