package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/batch"
	"github.com/hiinaspace/animutools/internal/logging"
)

func newBulkCommand(ctx *commandContext) *cobra.Command {
	flags := &encodeFlags{}
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "bulk <directory> <output-pattern>",
		Short: "Encode every episode in a directory",
		Long: `Encode every video file in a directory. The output pattern must contain
{num}, replaced with each file's zero-padded episode number:

  animutools bulk ./season "out/frieren-{num}.mp4"

Files whose output already exists are skipped, so an interrupted batch can be
rerun as is.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			plan, err := batch.BuildPlan(args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, renderTable([]column{
				{"Input", false},
				{"Ep", true},
				{"Output", false},
				{"Action", false},
			}, plan.TableRows()))
			pending := plan.Pending()
			if len(pending) == 0 {
				fmt.Fprintln(os.Stderr, "nothing to encode")
				return nil
			}
			if flags.dryRun {
				for _, item := range pending {
					if err := encodeOne(cmd.Context(), ctx, item.Input, item.Output, flags); err != nil {
						return err
					}
				}
				return nil
			}
			if !assumeYes && !confirm(os.Stdin, fmt.Sprintf("encode %d files", len(pending))) {
				return fmt.Errorf("aborted")
			}

			summary, err := batch.Run(cmd.Context(), plan,
				func(itemCtx context.Context, item batch.Item) error {
					return encodeOne(itemCtx, ctx, item.Input, item.Output, flags)
				}, logger)
			if err != nil {
				return err
			}
			for _, failure := range summary.Failures {
				logger.Error("failed",
					logging.String("input", failure.Item.Input),
					logging.Error(failure.Err),
				)
			}
			if summary.Failed() > 0 {
				return fmt.Errorf("%d of %d encodes failed", summary.Failed(), len(pending))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip the confirmation prompt")
	registerEncodeFlags(cmd, flags)

	return cmd
}
