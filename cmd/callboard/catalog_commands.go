package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"callboard/internal/catalog"
	"callboard/internal/config"
)

func newSeriesCommand(ctx *commandContext) *cobra.Command {
	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "Manage series",
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				series, err := store.CreateSeries(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Printf("created series %s (%s)\n", series.Title, series.ID)
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				series, err := store.ListSeries(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(series))
				for _, s := range series {
					rows = append(rows, []string{s.ID, s.Title})
				}
				cmd.Println(renderTable([]string{"ID", "TITLE"}, rows))
				return nil
			})
		},
	}

	seriesCmd.AddCommand(addCmd)
	seriesCmd.AddCommand(listCmd)
	return seriesCmd
}

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	var (
		seriesFlag string
		numberFlag int
		titleFlag  string
		modelFlag  string
	)

	episodeCmd := &cobra.Command{
		Use:   "episode",
		Short: "Manage episodes",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create an episode in a series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				episode, err := store.CreateEpisode(cmd.Context(), seriesFlag, numberFlag, titleFlag, modelFlag)
				if err != nil {
					return err
				}
				cmd.Printf("created episode %d (%s)\n", episode.Number, episode.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&seriesFlag, "series", "", "Series id")
	addCmd.Flags().IntVar(&numberFlag, "number", 0, "Episode number, unique within the series")
	addCmd.Flags().StringVar(&titleFlag, "title", "", "Episode title")
	addCmd.Flags().StringVar(&modelFlag, "model", "", "Default model for clips in this episode")
	_ = addCmd.MarkFlagRequired("series")
	_ = addCmd.MarkFlagRequired("number")

	var listSeriesFlag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a series' episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				series, err := store.GetSeries(cmd.Context(), listSeriesFlag)
				if err != nil {
					return err
				}
				if series == nil {
					return fmt.Errorf("series %s not found", listSeriesFlag)
				}
				episodes, err := store.EpisodesBySeries(cmd.Context(), series.ID)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(episodes))
				for _, episode := range episodes {
					rows = append(rows, []string{
						episode.ID,
						itoa(episode.Number),
						episode.Title,
						episode.DefaultModel,
					})
				}
				cmd.Printf("episodes of %s\n", series.Title)
				cmd.Println(renderTable([]string{"ID", "NUMBER", "TITLE", "MODEL"}, rows))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&listSeriesFlag, "series", "", "Series id")
	_ = listCmd.MarkFlagRequired("series")

	episodeCmd.AddCommand(addCmd)
	episodeCmd.AddCommand(listCmd)
	return episodeCmd
}

func newAssetCommand(ctx *commandContext) *cobra.Command {
	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage library assets",
	}

	var (
		seriesFlag      string
		typeFlag        string
		nameFlag        string
		descriptionFlag string
		refsFlag        string
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a library asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				itemType, ok := catalog.ParseItemType(typeFlag)
				if !ok {
					return fmt.Errorf("unknown asset type %q", typeFlag)
				}
				item, err := store.CreateStudioItem(cmd.Context(), &catalog.StudioItem{
					SeriesID:     seriesFlag,
					Type:         itemType,
					Name:         nameFlag,
					Description:  descriptionFlag,
					RefImageURLs: refsFlag,
				})
				if err != nil {
					return err
				}
				cmd.Printf("created %s asset %s (%s)\n", item.Type, item.Name, item.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&seriesFlag, "series", "", "Series id")
	addCmd.Flags().StringVar(&typeFlag, "type", "", "Asset type (CHARACTER, LOCATION, STYLE, CAMERA, ACTION, OBJECT, OTHER)")
	addCmd.Flags().StringVar(&nameFlag, "name", "", "Asset name, the lookup key used at dispatch")
	addCmd.Flags().StringVar(&descriptionFlag, "description", "", "Asset description")
	addCmd.Flags().StringVar(&refsFlag, "refs", "", "Comma-separated reference image URLs")
	_ = addCmd.MarkFlagRequired("series")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("name")

	var listSeriesFlag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a series' library assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				items, err := store.StudioItemsBySeries(cmd.Context(), listSeriesFlag)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						string(item.Type),
						item.Name,
						item.RefImageURLs,
					})
				}
				cmd.Println(renderTable([]string{"ID", "TYPE", "NAME", "REFS"}, rows))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&listSeriesFlag, "series", "", "Series id")
	_ = listCmd.MarkFlagRequired("series")

	assetCmd.AddCommand(addCmd)
	assetCmd.AddCommand(listCmd)
	return assetCmd
}
