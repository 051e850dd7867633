package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/dot-mike/ta-scripts/pkg/logger"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// run executes ffmpeg with the given arguments, returning the combined
// output wrapped into the error on failure. Extraction commands need
// flags the transcoder wrapper does not model (-map, -dump_attachment,
// -frames:v), so they shell out directly.
func (config *Config) run(ctx context.Context, args ...string) error {
	binary := config.FfmpegBinPath
	if binary == "" {
		binary = "ffmpeg"
	}

	fullArgs := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	log.Emit(logger.DEBUG, "Running %s %v\n", binary, fullArgs)

	cmd := exec.CommandContext(ctx, binary, fullArgs...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg %v failed: %w: %s", args, err, string(output))
	}

	return nil
}

// DumpSubtitle extracts a single subtitle stream to a standalone file.
// The output format is inferred from the output path extension.
func (config *Config) DumpSubtitle(ctx context.Context, mediaPath string, streamIndex int, outputPath string) error {
	return config.run(ctx,
		"-i", mediaPath,
		"-map", "0:"+strconv.Itoa(streamIndex),
		outputPath,
	)
}

// DumpCover extracts the attached-picture video stream to an image
// file. Used for mp4 containers where yt-dlp embeds the thumbnail as a
// disposition-flagged video stream.
func (config *Config) DumpCover(ctx context.Context, mediaPath string, streamIndex int, outputPath string) error {
	return config.run(ctx,
		"-i", mediaPath,
		"-map", "0:"+strconv.Itoa(streamIndex),
		"-frames:v", "1",
		outputPath,
	)
}

// DumpAttachment extracts an mkv attachment stream (cover art) to the
// given path. Attachment dumping is an input option, so the flag comes
// before -i and ffmpeg exits once the dump completes.
func (config *Config) DumpAttachment(ctx context.Context, mediaPath string, streamIndex int, outputPath string) error {
	binary := config.FfmpegBinPath
	if binary == "" {
		binary = "ffmpeg"
	}

	// ffmpeg exits non-zero for attachment-only invocations because no
	// output file is produced. Treat the dump as successful when the
	// destination exists afterwards.
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-dump_attachment:" + strconv.Itoa(streamIndex), outputPath,
		"-i", mediaPath,
	}
	log.Emit(logger.DEBUG, "Running %s %v\n", binary, args)

	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil && !fileExists(outputPath) {
		return fmt.Errorf("ffmpeg attachment dump failed: %w: %s", err, string(output))
	}

	return nil
}

// ConvertImage re-encodes an image file, typically webp or png cover
// art, to the format implied by the output path extension.
func (config *Config) ConvertImage(ctx context.Context, inputPath string, outputPath string) error {
	return config.run(ctx, "-i", inputPath, outputPath)
}
