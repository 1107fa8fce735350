package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/ffmpeg"
)

func newGridCommand(ctx *commandContext) *cobra.Command {
	var output string
	var overwrite bool
	var dryRun bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "grid <input>...",
		Short: "Tile several episodes into one mosaic video",
		Long: `Tile several episodes into one mosaic for simulcast watching. Each input
becomes a cell in a 3-column grid with its own loudness-normalized audio
track; .jpg inputs fill a cell for shows without a new episode this week.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			gridCmd, err := ffmpeg.BuildGridCommand(cfg.Tools.FFmpegBinary, args, output, overwrite)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Println(gridCmd.String())
				return nil
			}

			// the mosaic runs as long as the longest input
			var longest float64
			for _, input := range args {
				if isImageInput(input) {
					continue
				}
				probe, err := ffmpeg.Probe(cmd.Context(), cfg.Tools.FFprobeBinary, input)
				if err != nil {
					return err
				}
				if duration := probe.DurationSeconds(); duration > longest {
					longest = duration
				}
			}

			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context(), gridCmd, ffmpeg.RunOptions{
				Description:     "grid",
				DurationSeconds: longest,
				ShowProgress:    !noProgress,
				ProgressWriter:  progressWriter(),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "y", false, "Overwrite an existing output")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the ffmpeg command without running it")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}
