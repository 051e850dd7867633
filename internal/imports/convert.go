package imports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dot-mike/ta-scripts/internal/ffmpeg"
	"github.com/dot-mike/ta-scripts/pkg/logger"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
)

// mediaToolkit is the slice of the ffmpeg wrapper the converter needs.
type mediaToolkit interface {
	Streams(ctx context.Context, path string) ([]ffmpeg.StreamInfo, error)
	DumpSubtitle(ctx context.Context, mediaPath string, streamIndex int, outputPath string) error
	DumpCover(ctx context.Context, mediaPath string, streamIndex int, outputPath string) error
	DumpAttachment(ctx context.Context, mediaPath string, streamIndex int, outputPath string) error
	ConvertImage(ctx context.Context, inputPath string, outputPath string) error
	RemuxToMP4(ctx context.Context, inputPath string, outputPath string, onProgress func(ffmpeg.Progress)) error
}

// ConvertOptions tunes a conversion run.
type ConvertOptions struct {
	// ShowProgress renders a per-file progress bar on stderr.
	ShowProgress bool
}

// ConvertReport summarises a conversion run.
type ConvertReport struct {
	Converted int
	Skipped   int
	Failed    []string
}

// Converter rewrites yt-dlp bundles into the shape TubeArchivist's
// importer expects: `[ID].mp4` media, `[ID].jpg` thumbnail,
// `[ID].<lang>.vtt` subtitles and `[ID].info.json` metadata.
type Converter struct {
	toolkit mediaToolkit
}

func NewConverter(toolkit mediaToolkit) *Converter {
	return &Converter{toolkit: toolkit}
}

// Convert processes every bundle in turn. Bundles already in mp4, or
// without media, are skipped. A bundle that fails is recorded and the
// run continues; the source file is only deleted once every step for
// that bundle has succeeded.
func (converter *Converter) Convert(ctx context.Context, bundles []*Bundle, opts ConvertOptions) (*ConvertReport, error) {
	report := &ConvertReport{}

	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if bundle.Media == "" || strings.HasSuffix(bundle.Media, ".mp4") {
			report.Skipped++
			continue
		}

		jobID := uuid.New()
		log.Emit(logger.INFO, "Job %s: converting %s\n", jobID, bundle.VideoID)

		if err := converter.convertBundle(ctx, bundle, opts); err != nil {
			log.Emit(logger.ERROR, "Job %s: conversion of %s failed: %v\n", jobID, bundle.VideoID, err)
			report.Failed = append(report.Failed, bundle.VideoID)
			continue
		}

		log.Emit(logger.SUCCESS, "Job %s: converted %s\n", jobID, bundle.VideoID)
		report.Converted++
	}

	return report, nil
}

func (converter *Converter) convertBundle(ctx context.Context, bundle *Bundle, opts ConvertOptions) error {
	dir := filepath.Dir(bundle.Media)

	streams, err := converter.toolkit.Streams(ctx, bundle.Media)
	if err != nil {
		return err
	}

	if err := converter.extractThumbnail(ctx, bundle, streams, dir); err != nil {
		return err
	}
	if err := converter.dumpSubtitles(ctx, bundle, streams, dir); err != nil {
		return err
	}

	outputPath := filepath.Join(dir, fmt.Sprintf("[%s].mp4", bundle.VideoID))
	if err := converter.remux(ctx, bundle, outputPath, opts); err != nil {
		return err
	}

	if bundle.Metadata != "" {
		metadataPath := filepath.Join(dir, fmt.Sprintf("[%s].info.json", bundle.VideoID))
		if bundle.Metadata != metadataPath {
			if err := os.Rename(bundle.Metadata, metadataPath); err != nil {
				return fmt.Errorf("failed to rename metadata file: %w", err)
			}
			bundle.Metadata = metadataPath
		}
	}

	if err := os.Remove(bundle.Media); err != nil {
		return fmt.Errorf("failed to remove source media: %w", err)
	}
	bundle.Media = outputPath

	return nil
}

// extractThumbnail ensures the bundle ends up with a `[ID].jpg`
// thumbnail next to the media file. A sidecar thumbnail wins; otherwise
// the embedded cover art is dumped, and non-jpeg images are re-encoded.
func (converter *Converter) extractThumbnail(ctx context.Context, bundle *Bundle, streams []ffmpeg.StreamInfo, dir string) error {
	thumbPath := bundle.Thumb

	if thumbPath == "" {
		cover := ffmpeg.CoverStream(streams)
		if cover == nil {
			return nil
		}

		dumped := filepath.Join(dir, fmt.Sprintf("[%s].cover%s", bundle.VideoID, coverExtension(cover)))
		var err error
		if cover.CodecType == "attachment" {
			err = converter.toolkit.DumpAttachment(ctx, bundle.Media, cover.Index, dumped)
		} else {
			err = converter.toolkit.DumpCover(ctx, bundle.Media, cover.Index, dumped)
		}
		if err != nil {
			return err
		}
		thumbPath = dumped
	}

	finalPath := filepath.Join(dir, fmt.Sprintf("[%s].jpg", bundle.VideoID))
	if thumbPath == finalPath {
		return nil
	}

	if strings.HasSuffix(thumbPath, ".jpg") {
		if err := os.Rename(thumbPath, finalPath); err != nil {
			return fmt.Errorf("failed to rename thumbnail: %w", err)
		}
	} else {
		if err := converter.toolkit.ConvertImage(ctx, thumbPath, finalPath); err != nil {
			return err
		}
		if err := os.Remove(thumbPath); err != nil {
			return fmt.Errorf("failed to remove intermediate thumbnail: %w", err)
		}
	}

	bundle.Thumb = finalPath
	return nil
}

func (converter *Converter) dumpSubtitles(ctx context.Context, bundle *Bundle, streams []ffmpeg.StreamInfo, dir string) error {
	for _, stream := range ffmpeg.SubtitleStreams(streams) {
		lang := shortLanguage(stream.Tags.Language)
		subtitlePath := filepath.Join(dir, fmt.Sprintf("[%s].%s.vtt", bundle.VideoID, lang))

		if err := converter.toolkit.DumpSubtitle(ctx, bundle.Media, stream.Index, subtitlePath); err != nil {
			return err
		}
		bundle.Subtitles = append(bundle.Subtitles, subtitlePath)
	}

	return nil
}

func (converter *Converter) remux(ctx context.Context, bundle *Bundle, outputPath string, opts ConvertOptions) error {
	var onProgress func(ffmpeg.Progress)
	if opts.ShowProgress {
		bar := progressbar.NewOptions(100,
			progressbar.OptionSetDescription(fmt.Sprintf("Converting %s", bundle.VideoID)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()

		onProgress = func(progress ffmpeg.Progress) {
			bar.Set(int(progress.Progress))
		}
	}

	return converter.toolkit.RemuxToMP4(ctx, bundle.Media, outputPath, onProgress)
}

// shortLanguage converts an ISO 639-2 code from the stream tags (e.g.
// "eng") to the 639-1 code used in TubeArchivist subtitle filenames.
// Unknown codes fall through unchanged.
func shortLanguage(code string) string {
	if code == "" {
		return "und"
	}

	base, err := language.ParseBase(code)
	if err != nil {
		return code
	}

	return base.String()
}

func coverExtension(cover *ffmpeg.StreamInfo) string {
	if cover.Tags.Filename != "" {
		if ext := filepath.Ext(cover.Tags.Filename); ext != "" {
			return ext
		}
	}

	switch cover.CodecName {
	case "mjpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	}

	return ".img"
}
