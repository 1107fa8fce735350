package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/ffmpeg"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <input>",
		Short: "Show streams and the tracks an encode would pick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			probe, err := ffmpeg.Probe(cmd.Context(), cfg.Tools.FFprobeBinary, args[0])
			if err != nil {
				return err
			}
			selection := ffmpeg.SelectStreams(probe, logger)

			rows := make([][]string, 0, len(probe.Streams))
			audioSeen, subtitleSeen := 0, 0
			for _, stream := range probe.Streams {
				selected := ""
				switch stream.CodecType {
				case "audio":
					if audioSeen == selection.AudioIndex {
						selected = "audio"
					}
					audioSeen++
				case "subtitle":
					if subtitleSeen == selection.SubtitleIndex && selection.SubtitleCount > 0 {
						selected = "subtitle"
					}
					subtitleSeen++
				}
				detail := ""
				if stream.Width > 0 {
					detail = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
				} else if stream.Channels > 0 {
					detail = fmt.Sprintf("%dch", stream.Channels)
				}
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					stream.CodecType,
					stream.CodecName,
					stream.Language(),
					detail,
					selected,
				})
			}
			fmt.Println(renderTable([]column{
				{"#", true},
				{"Type", false},
				{"Codec", false},
				{"Lang", false},
				{"Detail", false},
				{"Selected", false},
			}, rows))
			fmt.Printf("duration: %.1fs\n", probe.DurationSeconds())
			return nil
		},
	}
	return cmd
}
