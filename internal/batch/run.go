package batch

import (
	"context"
	"log/slog"

	"github.com/hiinaspace/animutools/internal/logging"
)

// EncodeFunc performs one encode from the plan.
type EncodeFunc func(ctx context.Context, item Item) error

// Failure pairs a failed item with its error.
type Failure struct {
	Item Item
	Err  error
}

// Summary tallies a batch run.
type Summary struct {
	Succeeded int
	Skipped   int
	Failures  []Failure
}

// Failed returns the failure count.
func (s Summary) Failed() int { return len(s.Failures) }

// Run executes the plan sequentially. A failed item is recorded and the run
// continues; one broken source file shouldn't sink an overnight batch. Only
// context cancellation stops the loop early.
func Run(ctx context.Context, plan *Plan, encode EncodeFunc, logger *slog.Logger) (Summary, error) {
	logger = logging.NewComponentLogger(logger, "batch")

	var summary Summary
	for _, item := range plan.Items {
		if item.Skipped() {
			summary.Skipped++
			logger.Info("skipping",
				logging.String("input", item.Input),
				logging.String("reason", item.SkipReason),
			)
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		logger.Info("encoding",
			logging.String("input", item.Input),
			logging.String("output", item.Output),
		)
		if err := encode(ctx, item); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failures = append(summary.Failures, Failure{Item: item, Err: err})
			logger.Error("encode failed, continuing",
				logging.String("input", item.Input),
				logging.Error(err),
			)
			continue
		}
		summary.Succeeded++
	}

	logger.Info("batch finished",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed()),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
