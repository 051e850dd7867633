// Package export builds per-channel backup archives from the search
// index: every document belonging to a channel, bundled into a zip in
// TubeArchivist's own document format, a reduced yt-dlp style format,
// or both.
package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/pkg/logger"
	"github.com/klauspost/compress/flate"
	"golang.org/x/sync/errgroup"
)

var log = logger.Get("Export")

// Format selects which document layouts end up in the archive.
type Format string

const (
	FormatTA    Format = "ta"
	FormatYTDLP Format = "yt-dlp"
	FormatBoth  Format = "both"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatTA, FormatYTDLP, FormatBoth:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected ta, yt-dlp or both)", raw)
	}
}

// channelIndices lists every index holding per-channel documents, in the
// order their dumps appear in the archive.
var channelIndices = []string{
	index.ChannelIndex,
	index.VideoIndex,
	index.SubtitleIndex,
	index.CommentIndex,
	index.PlaylistIndex,
}

type store interface {
	ChannelDocuments(ctx context.Context, indexName string, channelID string, visit func(index.Hit) error) error
	ScrollAll(ctx context.Context, indexName string, body map[string]interface{}, visit func(index.Hit) error) error
}

// Summary reports what a backup contains.
type Summary struct {
	ChannelID  string
	Path       string
	Documents  map[string]int
	VideoCount int
}

// Exporter writes channel backup archives.
type Exporter struct {
	store store
}

func New(store store) *Exporter {
	return &Exporter{store: store}
}

// BackupFilename is the canonical archive name for a channel backup
// taken on the given day.
func BackupFilename(channelID string, now time.Time) string {
	return fmt.Sprintf("ta-backup-%s_%s.zip", channelID, now.Format("20060102"))
}

// ChannelBackup exports the channel's documents to a zip archive at the
// given path.
func (exporter *Exporter) ChannelBackup(ctx context.Context, channelID string, format Format, outputPath string) (*Summary, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, err
	}

	archive := zip.NewWriter(file)
	archive.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	summary := &Summary{ChannelID: channelID, Path: outputPath, Documents: make(map[string]int)}

	writeErr := func() error {
		if format == FormatTA || format == FormatBoth {
			if err := exporter.writeArchiveDumps(ctx, channelID, archive, summary); err != nil {
				return err
			}
		}
		if format == FormatYTDLP || format == FormatBoth {
			if err := exporter.writePerVideoDumps(ctx, channelID, archive, summary); err != nil {
				return err
			}
		}

		return archive.Close()
	}()
	if writeErr != nil {
		file.Close()
		return nil, writeErr
	}
	if err := file.Close(); err != nil {
		return nil, err
	}

	log.Emit(logger.SUCCESS, "Backup for channel %s written to %s\n", channelID, outputPath)
	return summary, nil
}

// writeArchiveDumps collects every per-channel document from each index
// concurrently, then streams one JSON dump per index into the archive.
// The zip writer is not safe for concurrent use, so only the fetches
// fan out.
func (exporter *Exporter) writeArchiveDumps(ctx context.Context, channelID string, archive *zip.Writer, summary *Summary) error {
	dumps := make([][]json.RawMessage, len(channelIndices))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, indexName := range channelIndices {
		i, indexName := i, indexName
		group.Go(func() error {
			sources := make([]json.RawMessage, 0)
			err := exporter.store.ChannelDocuments(groupCtx, indexName, channelID, func(hit index.Hit) error {
				sources = append(sources, hit.Source)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to fetch %s documents: %w", indexName, err)
			}

			dumps[i] = sources
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, indexName := range channelIndices {
		log.Emit(logger.INFO, "Writing %d documents from %s\n", len(dumps[i]), indexName)
		summary.Documents[indexName] = len(dumps[i])

		name := fmt.Sprintf("%s_%s.json", indexName, channelID)
		if err := writeJSONEntry(archive, name, dumps[i]); err != nil {
			return err
		}
	}

	return nil
}

// exportVideo is the reduced per-video document written for the yt-dlp
// layout. Category mirrors tags; active is forced true so a restore
// treats every exported video as available.
type exportVideo struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       []string        `json:"category"`
	VidThumbURL    string          `json:"vid_thumb_url"`
	VidThumbBase64 string          `json:"vid_thumb_base64"`
	Tags           []string        `json:"tags"`
	Published      string          `json:"published"`
	VidLastRefresh string          `json:"vid_last_refresh"`
	DateDownloaded json.RawMessage `json:"date_downloaded,omitempty"`
	YoutubeID      string          `json:"youtube_id"`
	VidType        string          `json:"vid_type"`
	Active         bool            `json:"active"`
}

func (exporter *Exporter) writePerVideoDumps(ctx context.Context, channelID string, archive *zip.Writer, summary *Summary) error {
	return exporter.store.ChannelDocuments(ctx, index.VideoIndex, channelID, func(hit index.Hit) error {
		var video exportVideo
		if err := hit.DecodeSource(&video); err != nil {
			return err
		}
		video.Category = video.Tags
		video.Active = true

		name := fmt.Sprintf("video_%s.json", video.YoutubeID)
		if err := writeJSONEntry(archive, name, video); err != nil {
			return err
		}
		summary.VideoCount++

		for indexName, prefix := range map[string]string{
			index.SubtitleIndex: "subtitles",
			index.CommentIndex:  "comments",
		} {
			related, err := exporter.videoDocuments(ctx, indexName, video.YoutubeID)
			if err != nil {
				return err
			}

			name := fmt.Sprintf("%s_%s.json", prefix, video.YoutubeID)
			if err := writeJSONEntry(archive, name, related); err != nil {
				return err
			}
		}

		return nil
	})
}

func (exporter *Exporter) videoDocuments(ctx context.Context, indexName string, videoID string) ([]json.RawMessage, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"youtube_id": map[string]interface{}{"value": videoID},
			},
		},
	}

	sources := make([]json.RawMessage, 0)
	err := exporter.store.ScrollAll(ctx, indexName, body, func(hit index.Hit) error {
		sources = append(sources, hit.Source)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s documents for video %s: %w", indexName, videoID, err)
	}

	return sources, nil
}

func writeJSONEntry(archive *zip.Writer, name string, payload interface{}) error {
	entry, err := archive.Create(name)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(entry)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
