package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/config"
	"github.com/hiinaspace/animutools/internal/ffmpeg"
)

// encodeFlags are the per-encode knobs shared by the encode and bulk commands.
type encodeFlags struct {
	scale         string
	letterbox     bool
	subtitleIndex int
	subtitleFile  string
	remux         bool
	hls           bool
	testClip      bool
	overwrite     bool
	dryRun        bool
	noProgress    bool
}

func registerEncodeFlags(cmd *cobra.Command, flags *encodeFlags) {
	cmd.Flags().StringVar(&flags.scale, "scale", "", "ffmpeg scale filter argument (e.g. 1280:-1)")
	cmd.Flags().BoolVar(&flags.letterbox, "letterbox", false, "Pad to a 16:9 1080p canvas")
	cmd.Flags().IntVar(&flags.subtitleIndex, "subtitle-index", -1, "Subtitle track override (type-relative index)")
	cmd.Flags().StringVar(&flags.subtitleFile, "subtitle-file", "", "Burn subtitles from an external file")
	cmd.Flags().BoolVar(&flags.remux, "remux", false, "Copy streams without re-encoding")
	cmd.Flags().BoolVar(&flags.hls, "hls", false, "Produce an HLS playlist with segments")
	cmd.Flags().BoolVar(&flags.testClip, "test-clip", false, "Encode only the first 60 seconds")
	cmd.Flags().BoolVarP(&flags.overwrite, "overwrite", "y", false, "Overwrite existing outputs")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Print the ffmpeg command without running it")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
}

func (f *encodeFlags) settings(cfg *config.Config) ffmpeg.EncodeSettings {
	settings := ffmpeg.EncodeSettings{
		Scale:                 f.scale,
		Letterbox:             f.letterbox,
		SubtitleFile:          f.subtitleFile,
		Remux:                 f.remux,
		HLS:                   f.hls,
		HLSSegmentSeconds:     cfg.Encode.HLSSegmentSeconds,
		TestClip:              f.testClip,
		TargetBitrateKbps:     cfg.Encode.TargetBitrateKbps,
		BufferDurationSeconds: cfg.Encode.BufferDurationSeconds,
		Overwrite:             f.overwrite,
	}
	if f.subtitleIndex >= 0 {
		index := f.subtitleIndex
		settings.SubtitleIndexOverride = &index
	}
	return settings
}

// encodeOne probes an input, picks streams, and runs the encode (or prints
// the command on a dry run).
func encodeOne(ctx context.Context, cctx *commandContext, infile, outfile string, flags *encodeFlags) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cctx.ensureLogger()
	if err != nil {
		return err
	}

	probe, err := ffmpeg.Probe(ctx, cfg.Tools.FFprobeBinary, infile)
	if err != nil {
		return err
	}
	selection := ffmpeg.SelectStreams(probe, logger)
	cmd := ffmpeg.BuildEncodeCommand(cfg.Tools.FFmpegBinary, infile, outfile, selection, flags.settings(cfg))

	if flags.dryRun {
		fmt.Println(cmd.String())
		return nil
	}

	runner, err := cctx.newRunner()
	if err != nil {
		return err
	}
	return runner.Run(ctx, cmd, ffmpeg.RunOptions{
		Description:     filepath.Base(outfile),
		DurationSeconds: probe.DurationSeconds(),
		ShowProgress:    !flags.noProgress,
		ProgressWriter:  progressWriter(),
	})
}

func isImageInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png"
}

// confirm prompts on the terminal and reads a y/n answer from in. A non-tty
// stderr auto-confirms so batches keep working under cron.
func confirm(in io.Reader, prompt string) bool {
	if progressWriter() == nil {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
