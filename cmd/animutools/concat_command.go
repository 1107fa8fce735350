package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/ffmpeg"
)

func newConcatCommand(ctx *commandContext) *cobra.Command {
	var output string
	var dryRun bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "concat <input>...",
		Short: "Join videos end to end, re-encoding through the concat filter",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			concatCmd, err := ffmpeg.BuildConcatCommand(cfg.Tools.FFmpegBinary, args, output)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Println(concatCmd.String())
				return nil
			}

			// total duration for the progress bar is the sum of the parts
			var total float64
			for _, input := range args {
				probe, err := ffmpeg.Probe(cmd.Context(), cfg.Tools.FFprobeBinary, input)
				if err != nil {
					return err
				}
				total += probe.DurationSeconds()
			}

			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context(), concatCmd, ffmpeg.RunOptions{
				Description:     "concat",
				DurationSeconds: total,
				ShowProgress:    !noProgress,
				ProgressWriter:  progressWriter(),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the ffmpeg command without running it")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}
