package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dot-mike/ta-scripts/internal/imports"
	"github.com/spf13/cobra"
)

func newImportCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Prepare a yt-dlp download directory for importing",
	}

	cmd.AddCommand(newImportCheckCmd(app))
	cmd.AddCommand(newImportFixKeysCmd(app))
	cmd.AddCommand(newImportValidateCmd(app))
	cmd.AddCommand(newImportDedupeCmd(app))
	cmd.AddCommand(newImportConvertCmd(app))
	cmd.AddCommand(newImportWatchCmd(app))

	return cmd
}

func newImportCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <dir>",
		Short: "Report bundles with missing media or metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := imports.Scan(args[0])
			if err != nil {
				return err
			}

			missing := imports.CheckMissing(bundles)
			if len(missing) == 0 {
				fmt.Printf("All %d bundles have media and metadata\n", len(bundles))
				return nil
			}

			for _, id := range missing {
				fmt.Println(id)
			}
			fmt.Printf("%d of %d bundles have missing files\n", len(missing), len(bundles))

			return nil
		},
	}
}

func newImportFixKeysCmd(app *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fix-keys <dir>",
		Short: "Check metadata files for missing or misspelled keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := imports.Scan(args[0])
			if err != nil {
				return err
			}

			reports, err := imports.CheckKeys(bundles, write)
			if err != nil {
				return err
			}

			if len(reports) == 0 {
				fmt.Println("All metadata files are good")
				return nil
			}

			for _, report := range reports {
				if len(report.MissingKeys) > 0 {
					fmt.Printf("%s: missing %s\n", report.Path, strings.Join(report.MissingKeys, ", "))
				}
				for misspelled, correct := range report.RenamedKeys {
					fmt.Printf("%s: %s should be %s\n", report.Path, misspelled, correct)
				}
			}

			if write {
				fmt.Printf("Repaired %d metadata files\n", len(reports))
			} else {
				fmt.Printf("%d metadata files need repair; rerun with --write to fix them\n", len(reports))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "apply the repairs in place")
	return cmd
}

func newImportValidateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Probe every media file and report broken ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := imports.Scan(args[0])
			if err != nil {
				return err
			}

			report, err := imports.Validate(bundles, app.ffmpeg(), app.cfg.ImportParallelism)
			if err != nil {
				return err
			}

			for _, id := range report.Invalid {
				fmt.Printf("invalid\t%s\n", id)
			}
			for _, id := range report.MissingMedia {
				fmt.Printf("missing\t%s\n", id)
			}
			fmt.Printf("Checked %d media files: %d invalid, %d bundles without media\n",
				report.Checked, len(report.Invalid), len(report.MissingMedia))

			return nil
		},
	}
}

func newImportDedupeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe <dir>",
		Short: "Delete local bundles that are already archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := imports.Scan(args[0])
			if err != nil {
				return err
			}

			store, err := app.store()
			if err != nil {
				return err
			}

			archived, err := imports.FindArchived(cmd.Context(), store, bundles)
			if err != nil {
				return err
			}
			if len(archived) == 0 {
				fmt.Println("No local bundles are already archived")
				return nil
			}

			files := 0
			for _, bundle := range archived {
				files += len(bundle.Files())
			}
			if !app.confirm(fmt.Sprintf("Delete %d files for %d archived videos?", files, len(archived))) {
				fmt.Println("Aborted")
				return nil
			}

			removed, failed := imports.RemoveBundles(archived, app.cfg.ImportParallelism)
			fmt.Printf("Deleted %d files (%d failed)\n", removed, failed)

			return nil
		},
	}
}

func newImportConvertCmd(app *app) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "convert <dir>",
		Short: "Convert mkv/webm bundles to the mp4 layout the importer expects",
		Long: `Rewrites every mkv/webm bundle in the directory: the embedded
thumbnail is extracted to [ID].jpg, subtitle streams are dumped to
[ID].<lang>.vtt, the container is remuxed to [ID].mp4 with codec copy
and the metadata file is renamed to match. The source file is DELETED
after a successful conversion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := imports.Scan(args[0])
			if err != nil {
				return err
			}

			convertible := 0
			for _, bundle := range bundles {
				if bundle.Media != "" && !strings.HasSuffix(bundle.Media, ".mp4") {
					convertible++
				}
			}
			if convertible == 0 {
				fmt.Println("Nothing to convert")
				return nil
			}

			if !app.confirm(fmt.Sprintf("Convert %d videos to mp4? Source files are deleted after conversion.", convertible)) {
				fmt.Println("Aborted")
				return nil
			}
			if !app.confirm("Ensure you have a backup of your files before continuing. Continue?") {
				fmt.Println("Aborted")
				return nil
			}

			converter := imports.NewConverter(app.ffmpeg())
			report, err := converter.Convert(cmd.Context(), bundles, imports.ConvertOptions{
				ShowProgress: !noProgress,
			})
			if err != nil {
				return err
			}

			for _, id := range report.Failed {
				fmt.Printf("failed\t%s\n", id)
			}
			fmt.Printf("Converted %d videos (%d skipped, %d failed)\n",
				report.Converted, report.Skipped, len(report.Failed))

			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the per-file progress bar")
	return cmd
}

func newImportWatchCmd(app *app) *cobra.Command {
	var forceSyncSeconds int

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a download directory and report bundles as they settle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := imports.WatchOptions{
				ForceSyncInterval: time.Duration(forceSyncSeconds) * time.Second,
				ModTimeHold:       time.Duration(app.cfg.ImportModTimeHoldSeconds) * time.Second,
			}

			return imports.Watch(cmd.Context(), args[0], opts, func(report imports.WatchReport) {
				for _, bundle := range report.NewBundles {
					fmt.Printf("ready\t%s\t%s\n", bundle.VideoID, bundle.Media)
				}
				for _, id := range report.Incomplete {
					fmt.Printf("incomplete\t%s\n", id)
				}
			})
		},
	}

	cmd.Flags().IntVar(&forceSyncSeconds, "force-sync", 120, "seconds between full rescans")
	return cmd
}
