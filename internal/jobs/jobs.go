package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	WeeklyResetJob  = "weekly_xp_reset"
	MonthlyResetJob = "monthly_xp_reset"
	PresencePrune   = "presence_prune"
)

type Resetter interface {
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
}

type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Builtin returns the platform's recurring jobs.
func Builtin(resetter Resetter, pruner Pruner, retention time.Duration, log *zap.Logger) []Job {
	return []Job{
		{
			Name:     WeeklyResetJob,
			Schedule: "0 0 * * 1",
			Execute:  resetter.ResetWeekly,
		},
		{
			Name:     MonthlyResetJob,
			Schedule: "0 0 1 * *",
			Execute:  resetter.ResetMonthly,
		},
		{
			Name:     PresencePrune,
			Schedule: "*/10 * * * *",
			Execute: func(ctx context.Context) error {
				removed, err := pruner.Prune(ctx, retention)
				if err != nil {
					return err
				}
				if removed > 0 {
					log.Debug("pruned presence entries", zap.Int64("removed", removed))
				}
				return nil
			},
		},
	}
}
