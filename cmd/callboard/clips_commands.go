package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"callboard/internal/catalog"
	"callboard/internal/config"
)

func newClipsCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlag  string
		episodeFlag string
	)

	cmd := &cobra.Command{
		Use:   "clips",
		Short: "List clips, optionally filtered by status or episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				var (
					clips []*catalog.Clip
					err   error
				)
				switch {
				case statusFlag != "":
					status, ok := catalog.ParseStatus(statusFlag)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFlag)
					}
					clips, err = store.ClipsByStatus(cmd.Context(), status)
				case episodeFlag != "":
					clips, err = store.ClipsByEpisode(cmd.Context(), episodeFlag)
				default:
					clips, err = store.ListClips(cmd.Context())
				}
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(clips))
				for _, clip := range clips {
					rows = append(rows, []string{
						clip.ID,
						clip.Scene,
						clip.Title,
						clip.Status.Display(),
						clip.Model,
						clip.ResultURL,
					})
				}
				cmd.Println(renderTable([]string{"ID", "SCENE", "TITLE", "STATUS", "MODEL", "RESULT"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", `Filter by status (e.g. "Generating", "Done", "Saved [2]")`)
	cmd.Flags().StringVar(&episodeFlag, "episode", "", "Filter by episode id")
	cmd.MarkFlagsMutuallyExclusive("status", "episode")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		episodeFlag  string
		sceneFlag    string
		titleFlag    string
		charsFlag    string
		locationFlag string
		styleFlag    string
		strengthFlag int
		cameraFlag   string
		actionFlag   string
		dialogFlag   string
		modelFlag    string
		refsFlag     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a clip in an episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				clip := &catalog.Clip{
					EpisodeID:     episodeFlag,
					Scene:         sceneFlag,
					Title:         titleFlag,
					Characters:    charsFlag,
					Location:      locationFlag,
					Style:         styleFlag,
					StyleStrength: strengthFlag,
					Camera:        cameraFlag,
					Action:        actionFlag,
					Dialog:        dialogFlag,
					Model:         modelFlag,
				}
				// An explicitly passed empty --refs records "no explicit refs";
				// leaving the flag off keeps the field unset.
				if cmd.Flags().Changed("refs") {
					clip.ExplicitRefURLs = &refsFlag
				}
				created, err := store.CreateClip(cmd.Context(), clip)
				if err != nil {
					return err
				}
				cmd.Printf("created clip %s (%s)\n", created.Title, created.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&episodeFlag, "episode", "", "Episode id")
	cmd.Flags().StringVar(&sceneFlag, "scene", "", "Scene label")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Clip title")
	cmd.Flags().StringVar(&charsFlag, "characters", "", "Comma-separated character names")
	cmd.Flags().StringVar(&locationFlag, "location", "", "Location name")
	cmd.Flags().StringVar(&styleFlag, "style", "", "Style name")
	cmd.Flags().IntVar(&strengthFlag, "style-strength", 0, "Style strength 1-10, 0 for provider default")
	cmd.Flags().StringVar(&cameraFlag, "camera", "", "Camera direction")
	cmd.Flags().StringVar(&actionFlag, "action", "", "Action description")
	cmd.Flags().StringVar(&dialogFlag, "dialog", "", "Dialog text")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model id, overrides the episode default")
	cmd.Flags().StringVar(&refsFlag, "refs", "", "Comma-separated explicit reference URLs")
	_ = cmd.MarkFlagRequired("episode")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <clip-id>",
		Short: "Show one clip in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				clip, err := store.GetClip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if clip == nil {
					return fmt.Errorf("clip %s not found", args[0])
				}

				explicit := "(unset)"
				if clip.ExplicitRefURLs != nil {
					explicit = *clip.ExplicitRefURLs
				}
				rows := [][]string{
					{"id", clip.ID},
					{"episode", clip.EpisodeID},
					{"scene", clip.Scene},
					{"title", clip.Title},
					{"characters", clip.Characters},
					{"location", clip.Location},
					{"style", clip.Style},
					{"style_strength", strconv.Itoa(clip.StyleStrength)},
					{"camera", clip.Camera},
					{"action", clip.Action},
					{"dialog", clip.Dialog},
					{"explicit_refs", explicit},
					{"full_refs", clip.FullRefURLs},
					{"status", clip.Status.Display()},
					{"task_id", clip.TaskID},
					{"result_url", clip.ResultURL},
					{"model", clip.Model},
				}
				cmd.Println(renderTable([]string{"FIELD", "VALUE"}, rows))
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <clip-id>",
		Short: "Delete a clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				removed, err := store.DeleteClip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("clip %s not found", args[0])
				}
				cmd.Printf("removed clip %s\n", args[0])
				return nil
			})
		},
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
