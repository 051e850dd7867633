package ffmpeg

import (
	"context"
	"os"
	"path/filepath"

	"github.com/floostack/transcoder/ffmpeg"
)

// Progress is a point-in-time report from a running remux.
type Progress struct {
	FramesProcessed string
	CurrentTime     string
	CurrentBitrate  string
	Progress        float64
	Speed           string
}

// RemuxToMP4 rewraps the input container as mp4 without re-encoding.
// The progress handler is invoked for every report ffmpeg emits; pass
// nil to discard them.
//
// TODO: vp9/webm sources need "-strict -2" for opus audio in mp4;
// until that is wired through, such files fail the remux and are left
// untouched.
func (config *Config) RemuxToMP4(ctx context.Context, inputPath string, outputPath string, onProgress func(Progress)) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	format := "mp4"
	codecCopy := "copy"
	overwrite := true
	opts := ffmpeg.Options{
		OutputFormat: &format,
		VideoCodec:   &codecCopy,
		AudioCodec:   &codecCopy,
		Overwrite:    &overwrite,
	}

	trans := ffmpeg.
		New(&ffmpeg.Config{
			ProgressEnabled: true,
			FfmpegBinPath:   config.FfmpegBinPath,
			FfprobeBinPath:  config.FfprobeBinPath,
		}).
		Input(inputPath).
		Output(outputPath).
		WithContext(&ctx)

	progressChannel, err := trans.Start(opts)
	if err != nil {
		return parseError(err)
	}

	for report := range progressChannel {
		if onProgress == nil {
			continue
		}
		onProgress(Progress{
			FramesProcessed: report.GetFramesProcessed(),
			CurrentTime:     report.GetCurrentTime(),
			CurrentBitrate:  report.GetCurrentBitrate(),
			Progress:        report.GetProgress(),
			Speed:           report.GetSpeed(),
		})
	}

	return nil
}
