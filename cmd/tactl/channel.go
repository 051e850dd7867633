package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dot-mike/ta-scripts/internal/channel"
	"github.com/dot-mike/ta-scripts/internal/export"
	"github.com/spf13/cobra"
)

func newChannelCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Scan, inspect and export channels",
	}

	cmd.AddCommand(newChannelScanCmd(app))
	cmd.AddCommand(newChannelPendingCmd(app))
	cmd.AddCommand(newChannelExportCmd(app))

	return cmd
}

func newChannelScanCmd(app *app) *cobra.Command {
	var maxSubs, maxPending int
	var dryRun, emptyOnly bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find stalled small channels and prioritize their queue",
		Long: `Scans for channels that have nothing archived yet. With --empty-only
the channel IDs are just listed; otherwise small channels with a short
pending backlog get their queued videos bumped to priority so the
channel completes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.store()
			if err != nil {
				return err
			}

			if emptyOnly {
				empty, err := channel.WithoutVideos(cmd.Context(), store)
				if err != nil {
					return err
				}
				for _, id := range empty {
					fmt.Println(id)
				}
				fmt.Printf("%d channels without archived videos\n", len(empty))
				return nil
			}

			api, err := app.api()
			if err != nil {
				return err
			}

			results, err := channel.Prioritize(cmd.Context(), store, api, channel.ScanOptions{
				MaxSubscribers: maxSubs,
				MaxPending:     maxPending,
				DryRun:         dryRun,
			})
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Printf("%s\tpending=%d\tprioritized=%d\tfailed=%d\n",
					result.ChannelID, result.Pending, result.Prioritized, len(result.Failed))
			}
			fmt.Printf("%d channels scanned into the priority queue\n", len(results))

			return nil
		},
	}

	cmd.Flags().IntVar(&maxSubs, "max-subs", channel.DefaultMaxSubscribers, "only consider channels under this subscriber count")
	cmd.Flags().IntVar(&maxPending, "max-pending", channel.DefaultMaxPending, "skip channels with this many or more pending videos")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be prioritized without calling the API")
	cmd.Flags().BoolVar(&emptyOnly, "empty-only", false, "only list channels without archived videos")
	return cmd
}

func newChannelPendingCmd(app *app) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "pending <channel-id>...",
		Short: "List queued video IDs per channel, oldest first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.store()
			if err != nil {
				return err
			}

			pending, err := channel.PendingIDs(cmd.Context(), store, args)
			if err != nil {
				return err
			}

			if outputFile != "" {
				if err := writeJSONFile(outputFile, pending); err != nil {
					return err
				}
				fmt.Printf("Pending IDs for %d channels written to %s\n", len(args), outputFile)
				return nil
			}

			for _, channelID := range args {
				ids := pending[channelID]
				fmt.Printf("%s: %d pending\n", channelID, len(ids))
				for _, id := range ids {
					fmt.Println(id)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the pending IDs as JSON to this file")
	return cmd
}

func newChannelExportCmd(app *app) *cobra.Command {
	var formatRaw, outputDir string

	cmd := &cobra.Command{
		Use:   "export <channel-id>",
		Short: "Write a zip backup of every document belonging to a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatRaw)
			if err != nil {
				return err
			}

			store, err := app.store()
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = app.cfg.ExportDir
			}

			channelID := args[0]
			outputPath := filepath.Join(dir, export.BackupFilename(channelID, time.Now()))

			summary, err := export.New(store).ChannelBackup(cmd.Context(), channelID, format, outputPath)
			if err != nil {
				return err
			}

			for indexName, count := range summary.Documents {
				fmt.Printf("%s: %d documents\n", indexName, count)
			}
			if summary.VideoCount > 0 {
				fmt.Printf("per-video dumps: %d videos\n", summary.VideoCount)
			}
			fmt.Printf("Backup written to %s\n", summary.Path)

			return nil
		},
	}

	cmd.Flags().StringVar(&formatRaw, "format", string(export.FormatBoth), "backup format: ta, yt-dlp or both")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for the zip (default EXPORT_DIR)")
	return cmd
}
