package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/queue"
	"github.com/dot-mike/ta-scripts/internal/video"
	"github.com/spf13/cobra"
)

func newVideoCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Query and maintain archived videos",
	}

	cmd.AddCommand(newVideoSearchCmd(app))
	cmd.AddCommand(newVideoGetCmd(app))
	cmd.AddCommand(newVideoReindexCmd(app))
	cmd.AddCommand(newVideoDupeCheckCmd(app))
	cmd.AddCommand(newVideoDeactivatedCmd(app))
	cmd.AddCommand(newVideoNoCommentsCmd(app))

	return cmd
}

// videoQueryFlags binds the shared archive filter flags and builds the
// query from them.
type videoQueryFlags struct {
	channelID, vidType, title          string
	activeOnly, inactiveOnly           bool
	publishedAfter, publishedBefore    string
	downloadedAfter, downloadedBefore  string
	minViews, maxViews                 int
	minLikes, maxLikes                 int
	limit                              int
}

func (flags *videoQueryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.channelID, "channel", "", "restrict to one channel ID")
	cmd.Flags().StringVar(&flags.vidType, "type", "", "video type (videos, shorts, streams)")
	cmd.Flags().StringVar(&flags.title, "title", "", "search-as-you-type match against the title")
	cmd.Flags().BoolVar(&flags.activeOnly, "active", false, "only videos still available on YouTube")
	cmd.Flags().BoolVar(&flags.inactiveOnly, "inactive", false, "only videos no longer available on YouTube")
	cmd.Flags().StringVar(&flags.publishedAfter, "published-after", "", "only videos published after this date")
	cmd.Flags().StringVar(&flags.publishedBefore, "published-before", "", "only videos published before this date")
	cmd.Flags().StringVar(&flags.downloadedAfter, "downloaded-after", "", "only videos downloaded after this date")
	cmd.Flags().StringVar(&flags.downloadedBefore, "downloaded-before", "", "only videos downloaded before this date")
	cmd.Flags().IntVar(&flags.minViews, "min-views", 0, "minimum view count")
	cmd.Flags().IntVar(&flags.maxViews, "max-views", 0, "maximum view count")
	cmd.Flags().IntVar(&flags.minLikes, "min-likes", 0, "minimum like count")
	cmd.Flags().IntVar(&flags.maxLikes, "max-likes", 0, "maximum like count")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of results")
}

func (flags *videoQueryFlags) build() (index.VideoQuery, error) {
	query := index.VideoQuery{
		ChannelID:   flags.channelID,
		VidType:     flags.vidType,
		TitleSearch: flags.title,
		MaxResults:  flags.limit,
	}

	if flags.activeOnly && flags.inactiveOnly {
		return query, fmt.Errorf("--active and --inactive are mutually exclusive")
	}
	if flags.activeOnly {
		active := true
		query.Active = &active
	}
	if flags.inactiveOnly {
		active := false
		query.Active = &active
	}

	var err error
	if query.PublishedAfter, err = parseDate("published-after", flags.publishedAfter); err != nil {
		return query, err
	}
	if query.PublishedBefore, err = parseDate("published-before", flags.publishedBefore); err != nil {
		return query, err
	}
	if query.DownloadedAfter, err = parseDate("downloaded-after", flags.downloadedAfter); err != nil {
		return query, err
	}
	if query.DownloadedBefore, err = parseDate("downloaded-before", flags.downloadedBefore); err != nil {
		return query, err
	}

	if flags.minViews > 0 {
		query.MinViews = &flags.minViews
	}
	if flags.maxViews > 0 {
		query.MaxViews = &flags.maxViews
	}
	if flags.minLikes > 0 {
		query.MinLikes = &flags.minLikes
	}
	if flags.maxLikes > 0 {
		query.MaxLikes = &flags.maxLikes
	}

	return query, nil
}

func newVideoSearchCmd(app *app) *cobra.Command {
	flags := &videoQueryFlags{}
	var stats, idsOnly bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the archive with filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := flags.build()
			if err != nil {
				return err
			}

			store, err := app.store()
			if err != nil {
				return err
			}

			videos, err := video.Search(cmd.Context(), store, query)
			if err != nil {
				return err
			}

			switch {
			case stats:
				return printJSON(video.Summarize(videos))
			case idsOnly:
				for _, v := range videos {
					fmt.Println(v.YoutubeID)
				}
			default:
				for _, v := range videos {
					fmt.Printf("%s\t%s\t%s\t%s\n", v.YoutubeID, v.Published, v.Channel.ChannelName, v.Title)
				}
				fmt.Printf("%d videos matched\n", len(videos))
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&stats, "stats", false, "print summary statistics instead of the result list")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print only video IDs, one per line")
	return cmd
}

func newVideoGetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|url|file>...",
		Short: "Fetch videos from the API and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := resolveIDs(args)
			if err != nil {
				return err
			}

			api, err := app.api()
			if err != nil {
				return err
			}

			for _, id := range ids {
				v, err := api.Video(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to fetch %s: %w", id, err)
				}
				if err := printJSON(v); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func newVideoReindexCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <id|url|file>...",
		Short: "Queue a metadata refresh for videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := resolveIDs(args)
			if err != nil {
				return err
			}

			api, err := app.api()
			if err != nil {
				return err
			}

			if err := api.Refresh(cmd.Context(), ids); err != nil {
				return err
			}

			fmt.Printf("Queued %d videos for reindexing\n", len(ids))
			return nil
		},
	}
}

func newVideoDupeCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dupe-check",
		Short: "Report queued videos that are already archived",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.store()
			if err != nil {
				return err
			}

			report, err := queue.FindDuplicates(cmd.Context(), store)
			if err != nil {
				return err
			}

			for _, id := range report.Duplicates {
				fmt.Println(id)
			}
			fmt.Printf("%d duplicates (queue %d, archive %d); run 'tactl queue cleanup' to remove them\n",
				len(report.Duplicates), report.Queued, report.Archived)

			return nil
		},
	}
}

func newVideoDeactivatedCmd(app *app) *cobra.Command {
	var publishedAfterRaw string

	cmd := &cobra.Command{
		Use:   "deactivated",
		Short: "List archived videos that are no longer available on YouTube",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			publishedAfter, err := parseDate("published-after", publishedAfterRaw)
			if err != nil {
				return err
			}

			store, err := app.store()
			if err != nil {
				return err
			}

			inactive := false
			videos, err := video.Search(cmd.Context(), store, index.VideoQuery{
				Active:         &inactive,
				PublishedAfter: publishedAfter,
			})
			if err != nil {
				return err
			}

			for _, v := range videos {
				fmt.Printf("%s\t%s\t%s\t%s\n", v.YoutubeID, v.Published, v.Channel.ChannelName, v.Title)
			}
			fmt.Printf("%d deactivated videos\n", len(videos))

			return nil
		},
	}

	cmd.Flags().StringVar(&publishedAfterRaw, "published-after", "", "only videos published after this date")
	return cmd
}

func newVideoNoCommentsCmd(app *app) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "no-comments",
		Short: "List archived videos whose comments were never fetched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.store()
			if err != nil {
				return err
			}

			ids, err := video.WithoutComments(cmd.Context(), store)
			if err != nil {
				return err
			}

			if outputPath != "" {
				content := strings.Join(ids, "\n")
				if len(ids) > 0 {
					content += "\n"
				}
				if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
					return err
				}
				fmt.Printf("Wrote %d video IDs to %s\n", len(ids), outputPath)
				return nil
			}

			for _, id := range ids {
				fmt.Println(id)
			}
			fmt.Printf("%d videos without comments\n", len(ids))

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the IDs to a file instead of stdout")
	return cmd
}
