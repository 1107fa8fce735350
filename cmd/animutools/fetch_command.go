package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hiinaspace/animutools/internal/anilist"
	"github.com/hiinaspace/animutools/internal/metacache"
	"github.com/hiinaspace/animutools/internal/multibox"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "fetch <show-list>",
		Short: "Build a poster atlas and metadata for a season's shows",
		Long: `Build a poster atlas for the multibox player. The show list file has one
anilist.co anime URL per line; the output directory receives posters.png and
metadata.json.`,
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

			ids, err := multibox.ReadShowList(args[0])
			if err != nil {
				return err
			}

			cache, err := metacache.Open(cfg.Paths.CacheDBPath)
			if err != nil {
				return err
			}
			defer cache.Close()

			client := anilist.NewClient(cfg.AniList, logger)
			builder := multibox.NewBuilder(cfg, client, cache, logger)
			result, err := builder.Build(cmd.Context(), ids, outDir)
			if err != nil {
				return err
			}

			fmt.Println(result.PosterPath)
			fmt.Println(result.MetadataPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Output directory")

	return cmd
}
