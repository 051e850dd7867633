// Package ffmpeg wraps the ffmpeg and ffprobe binaries for the import
// pipeline: probing media files, extracting embedded thumbnails and
// subtitle streams, and remuxing containers to mp4.
package ffmpeg

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/dot-mike/ta-scripts/pkg/logger"
)

var log = logger.Get("FFmpeg")

// Config carries the binary locations handed to every ffmpeg/ffprobe
// invocation. Empty paths fall back to the binaries on PATH.
type Config struct {
	FfmpegBinPath  string
	FfprobeBinPath string
}

var messageMatcher = regexp.MustCompile(`(?s)message: ({.*})`)

// parseError picks the relevant message out of the huge output log that
// ffmpeg produces on failure. The error contains pages of build
// configuration noise; the useful part is a JSON blob embedded inside.
func parseError(err error) error {
	groups := messageMatcher.FindStringSubmatch(err.Error())
	if len(groups) == 0 {
		return err
	}

	var out map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(groups[1]), &out); jsonErr != nil {
		return errors.New(groups[1])
	}

	if exception, ok := out["error"].(map[string]interface{}); ok {
		if message, ok := exception["string"].(string); ok {
			return errors.New(message)
		}
	}

	return err
}
