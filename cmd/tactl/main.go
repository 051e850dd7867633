// main.go sets up the tactl command-line interface using Cobra: the
// root command, the queue/video/channel/import command groups, and the
// shared configuration plumbing they hang off.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dot-mike/ta-scripts/internal/config"
	"github.com/dot-mike/ta-scripts/internal/ffmpeg"
	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/tubearch"
	"github.com/dot-mike/ta-scripts/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{}
	if err := newRootCmd(app).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration and lazily built clients shared by every
// subcommand.
type app struct {
	envFile   string
	verbosity int
	yes       bool

	cfg *config.Config
}

// initialize loads configuration and applies the verbosity flags. It
// runs as the root command's PersistentPreRunE so every subcommand sees
// a ready app.
func (a *app) initialize() error {
	switch {
	case a.verbosity >= 2:
		logger.SetMinLoggingLevel(logger.VERBOSE)
	case a.verbosity == 1:
		logger.SetMinLoggingLevel(logger.DEBUG)
	default:
		logger.SetMinLoggingLevel(logger.INFO)
	}

	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return nil
}

// api constructs the TubeArchivist API client, failing early when the
// relevant settings are absent.
func (a *app) api() (*tubearch.Client, error) {
	if err := a.cfg.RequireAPI(); err != nil {
		return nil, err
	}

	return tubearch.New(tubearch.Config{
		URL:      a.cfg.TaURL,
		Token:    a.cfg.TaAPIToken,
		Throttle: time.Duration(a.cfg.APIThrottleSeconds) * time.Second,
	}), nil
}

// store constructs the Elasticsearch-backed index store.
func (a *app) store() (*index.Store, error) {
	if err := a.cfg.RequireIndex(); err != nil {
		return nil, err
	}

	return index.New(index.Config{
		Host:     a.cfg.EsHost,
		User:     a.cfg.EsUser,
		Password: a.cfg.EsPassword,
	})
}

func (a *app) ffmpeg() *ffmpeg.Config {
	return &ffmpeg.Config{
		FfmpegBinPath:  a.cfg.FfmpegBinPath,
		FfprobeBinPath: a.cfg.FfprobeBinPath,
	}
}

// confirm prompts for a y/n answer on stdin, honoring --yes.
func (a *app) confirm(prompt string) bool {
	if a.yes {
		return true
	}

	fmt.Fprintf(os.Stderr, "%s (y/n): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func newRootCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tactl",
		Short: "Maintenance toolkit for a TubeArchivist installation.",
		Long: `tactl talks to a TubeArchivist installation through its API and,
for the operations the API does not expose, directly against its
Elasticsearch indices. It covers download queue maintenance, archive
queries, per-channel exports and import directory preparation.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize()
		},
	}

	cmd.AddCommand(newQueueCmd(app))
	cmd.AddCommand(newVideoCmd(app))
	cmd.AddCommand(newChannelCmd(app))
	cmd.AddCommand(newImportCmd(app))

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", "", "path to a .env file (default ./.env, then ~/.config/ta-scripts/.env)")
	cmd.PersistentFlags().CountVarP(&app.verbosity, "verbose", "v", "increase log verbosity (-v debug, -vv verbose)")
	cmd.PersistentFlags().BoolVar(&app.yes, "yes", false, "assume yes on confirmation prompts")

	return cmd
}

// printJSON renders the value as indented JSON on stdout.
func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// writeJSONFile renders the value as indented JSON in to the given file.
func writeJSONFile(path string, value interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

// parseDate accepts the many date shapes users type ("2024-12-01",
// "Dec 1 2024", epoch seconds) and returns nil for an empty flag.
func parseDate(flag string, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := dateparse.ParseAny(value)
	if err != nil {
		return nil, fmt.Errorf("invalid value for --%s: %w", flag, err)
	}

	return &parsed, nil
}
