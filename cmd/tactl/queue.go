package main

import (
	"fmt"
	"strings"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/queue"
	"github.com/dot-mike/ta-scripts/internal/tubearch"
	"github.com/dot-mike/ta-scripts/internal/ytid"
	"github.com/spf13/cobra"
)

func newQueueCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the download queue",
	}

	cmd.AddCommand(newQueueAddCmd(app))
	cmd.AddCommand(newQueueRemoveCmd(app))
	cmd.AddCommand(newQueuePriorityCmd(app))
	cmd.AddCommand(newQueueStatusCmd(app))
	cmd.AddCommand(newQueuePendingCmd(app))
	cmd.AddCommand(newQueueCleanupCmd(app))
	cmd.AddCommand(newQueueSearchCmd(app))
	cmd.AddCommand(newQueueChannelsCmd(app))

	return cmd
}

// resolveIDs expands every argument (ID, URL or file of either) into a
// deduplicated ID list.
func resolveIDs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(args))

	for _, arg := range args {
		resolved, err := ytid.ReadSpec(arg)
		if err != nil {
			return nil, err
		}
		for _, id := range resolved {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no video IDs recognised in %s", strings.Join(args, ", "))
	}

	return ids, nil
}

func newQueueAddCmd(app *app) *cobra.Command {
	var autostart bool

	cmd := &cobra.Command{
		Use:   "add <id|url|file>...",
		Short: "Add videos to the download queue, skipping already archived ones",
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

			added, err := api.QueueAdd(cmd.Context(), ids, autostart)
			if err != nil {
				return err
			}

			fmt.Printf("Queued %d of %d videos (%d already archived)\n", len(added), len(ids), len(ids)-len(added))
			return nil
		},
	}

	cmd.Flags().BoolVar(&autostart, "autostart", false, "start downloading immediately")
	return cmd
}

func newQueueRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|url|file>...",
		Short: "Remove videos from the download queue",
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
				if err := api.QueueRemove(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to remove %s: %w", id, err)
				}
				fmt.Printf("Removed %s\n", id)
			}

			return nil
		},
	}
}

func newQueuePriorityCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id|url|file>...",
		Short: "Move queued videos to the front of the queue",
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
				if err := api.QueuePrioritize(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to prioritize %s: %w", id, err)
				}
				fmt.Printf("Prioritized %s\n", id)
			}

			return nil
		},
	}
}

func newQueueStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id|url>",
		Short: "Show the queue entry for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := resolveIDs(args)
			if err != nil {
				return err
			}

			api, err := app.api()
			if err != nil {
				return err
			}

			item, err := api.QueueStatus(cmd.Context(), ids[0])
			if err != nil {
				return err
			}

			return printJSON(item)
		},
	}
}

func newQueuePendingCmd(app *app) *cobra.Command {
	var filter, channelID string
	var stats bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List queued videos, optionally summarised",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := app.api()
			if err != nil {
				return err
			}

			items, err := api.Pending(cmd.Context(), filter, channelID)
			if err != nil {
				return err
			}

			if stats {
				return printJSON(queue.Summarize(items))
			}

			for _, item := range items {
				fmt.Printf("%s\t%s\t%s\n", item.YoutubeID, item.ChannelName, item.Title)
			}
			fmt.Printf("%d videos in queue\n", len(items))

			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "pending", "queue status to list (pending or ignore)")
	cmd.Flags().StringVar(&channelID, "channel", "", "restrict to one channel ID")
	cmd.Flags().BoolVar(&stats, "stats", false, "print summary statistics instead of the item list")
	return cmd
}

func newQueueCleanupCmd(app *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove queue entries whose video is already archived",
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

			fmt.Printf("Queue: %d entries, archive: %d videos, duplicates: %d\n",
				report.Queued, report.Archived, len(report.Duplicates))
			if dryRun || len(report.Duplicates) == 0 {
				return nil
			}

			if !app.confirm(fmt.Sprintf("Remove %d duplicate queue entries?", len(report.Duplicates))) {
				fmt.Println("Aborted")
				return nil
			}

			if err := queue.RemoveDuplicates(cmd.Context(), store, report); err != nil {
				return err
			}

			fmt.Printf("Removed %d entries (%d failed)\n", report.Removed, len(report.Failed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report duplicates without removing them")
	return cmd
}

func newQueueSearchCmd(app *app) *cobra.Command {
	var (
		status, title, vidType          string
		noErrors                        bool
		errorFilters                    []string
		queuedAfterRaw, queuedBeforeRaw string
		outputFile                      string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the download queue index with filters",
		Long: fmt.Sprintf(`Search ta_download directly. --error-filter accepts: %s.`,
			strings.Join(index.ErrorFilterNames(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queuedAfter, err := parseDate("queued-after", queuedAfterRaw)
			if err != nil {
				return err
			}
			queuedBefore, err := parseDate("queued-before", queuedBeforeRaw)
			if err != nil {
				return err
			}

			query := index.QueueQuery{
				Status:         status,
				TitleContains:  title,
				NoErrors:       noErrors,
				MessageFilters: errorFilters,
				QueuedAfter:    queuedAfter,
				QueuedBefore:   queuedBefore,
				VidType:        vidType,
			}
			body, err := query.Body()
			if err != nil {
				return err
			}

			store, err := app.store()
			if err != nil {
				return err
			}

			result, err := store.Search(cmd.Context(), index.DownloadIndex, body)
			if err != nil {
				return err
			}

			items := make([]tubearch.QueueItem, 0, len(result.Hits))
			for _, hit := range result.Hits {
				var item tubearch.QueueItem
				if err := hit.DecodeSource(&item); err != nil {
					return err
				}
				items = append(items, item)
			}

			if outputFile != "" {
				if err := writeJSONFile(outputFile, items); err != nil {
					return err
				}
				fmt.Printf("%d of %d matching items written to %s\n", len(items), result.Total, outputFile)
				return nil
			}

			for _, item := range items {
				fmt.Printf("%s\t%s\t%s\t%s\n", item.YoutubeID, item.Status, item.ChannelName, item.Title)
			}
			fmt.Printf("%d of %d matching items shown\n", len(items), result.Total)

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "queue status (pending or ignore)")
	cmd.Flags().StringVar(&title, "title", "", "full-text match against the title")
	cmd.Flags().StringVar(&vidType, "type", "", "video type (videos, shorts, streams)")
	cmd.Flags().BoolVar(&noErrors, "no-errors", false, "only items without an error message")
	cmd.Flags().StringSliceVar(&errorFilters, "error-filter", nil, "error message categories to match")
	cmd.Flags().StringVar(&queuedAfterRaw, "queued-after", "", "only items queued after this date")
	cmd.Flags().StringVar(&queuedBeforeRaw, "queued-before", "", "only items queued before this date")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the matching items as JSON to this file")
	return cmd
}

func newQueueChannelsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Show pending queue counts per channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.store()
			if err != nil {
				return err
			}

			buckets, err := store.PendingByChannel(cmd.Context())
			if err != nil {
				return err
			}

			for _, bucket := range buckets {
				fmt.Printf("%s\t%d\n", bucket.Key, bucket.DocCount)
			}
			fmt.Printf("%d channels with pending downloads\n", len(buckets))

			return nil
		},
	}
}
