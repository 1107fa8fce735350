package main

import (
	"github.com/spf13/cobra"
)

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	flags := &encodeFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "encode <input>",
		Short: "Encode one video with burned-in subtitles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return encodeOne(cmd.Context(), ctx, args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.mp4 or .m3u8)")
	_ = cmd.MarkFlagRequired("output")
	registerEncodeFlags(cmd, flags)

	return cmd
}
