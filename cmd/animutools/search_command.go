package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/logging"
	"github.com/hiinaspace/animutools/internal/multibox"
	"github.com/hiinaspace/animutools/internal/nyaa"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var showTable bool

	cmd := &cobra.Command{
		Use:   "search <metadata.json>",
		Short: "Find a premiere torrent for every show in a season's metadata",
		Long: `Find an episode-1 torrent on nyaa for each show in the metadata.json that
fetch produced. One torrent URL per show prints to stdout in metadata order;
a show with no acceptable release prints a blank line so line numbers keep
matching the input:

  animutools search multibox/metadata.json > torrent_urls.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			entries, err := multibox.ReadMetadata(args[0])
			if err != nil {
				return err
			}
			shows := make([]nyaa.Show, 0, len(entries))
			for _, entry := range entries {
				shows = append(shows, nyaa.Show{Titles: entry.SearchTitles()})
			}

			client := nyaa.NewClient(cfg.Nyaa, logger)
			results, err := client.FindPremieres(cmd.Context(), shows)
			if err != nil {
				return err
			}

			matched := 0
			for _, premiere := range results {
				if premiere.Matched() {
					matched++
				}
			}
			if matched < len(results) {
				logger.Warn("some shows have no release",
					logging.Int("matched", matched),
					logging.Int("total", len(results)),
				)
			}

			if showTable {
				rows := make([][]string, 0, len(results))
				for _, premiere := range results {
					release, resolution := premiere.Release, premiere.Resolution
					if !premiere.Matched() {
						release, resolution = "(no match)", "-"
					} else if resolution == "" {
						resolution = "-"
					}
					rows = append(rows, []string{premiere.Show, release, resolution})
				}
				fmt.Println(renderTable([]column{
					{"Show", false},
					{"Release", false},
					{"Res", false},
				}, rows))
				return nil
			}
			for _, premiere := range results {
				fmt.Println(premiere.TorrentURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTable, "table", false, "Print a match table instead of torrent URLs")

	return cmd
}
