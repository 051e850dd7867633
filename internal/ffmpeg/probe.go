package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
)

// ProbeFile reads the container metadata for the file at the given path
// using ffprobe.
func (config *Config) ProbeFile(path string) (transcoder.Metadata, error) {
	cfg := ffmpeg.Config{FfmpegBinPath: config.FfmpegBinPath, FfprobeBinPath: config.FfprobeBinPath}
	metadata, err := ffmpeg.New(&cfg).Input(path).GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("failed to extract file metadata information using ffprobe: %w", parseError(err))
	}

	return metadata, nil
}

// ValidateMedia probes the file and confirms it contains at least one
// video stream. Corrupt downloads typically fail the probe outright;
// audio-only files pass the probe but fail the stream check.
func (config *Config) ValidateMedia(path string) error {
	metadata, err := config.ProbeFile(path)
	if err != nil {
		return err
	}

	for _, stream := range metadata.GetStreams() {
		if stream.GetCodecType() == "video" {
			return nil
		}
	}

	return fmt.Errorf("file %s contains no video stream", path)
}

// StreamInfo is the subset of raw ffprobe stream output needed to find
// subtitle languages, attached cover art and mkv attachments. The
// transcoder wrapper does not surface stream tags or dispositions, so
// these fields are read from ffprobe's JSON output directly.
type StreamInfo struct {
	Index       int    `json:"index"`
	CodecName   string `json:"codec_name"`
	CodecType   string `json:"codec_type"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
	Tags struct {
		Language string `json:"language"`
		Filename string `json:"filename"`
		Mimetype string `json:"mimetype"`
	} `json:"tags"`
}

// Streams runs ffprobe against the file and decodes the full stream
// list, including attachment streams which the probe above omits.
func (config *Config) Streams(ctx context.Context, path string) ([]StreamInfo, error) {
	binary := config.FfprobeBinPath
	if binary == "" {
		binary = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var result struct {
		Streams []StreamInfo `json:"streams"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe output for %s: %w", path, err)
	}

	return result.Streams, nil
}

// SubtitleStreams filters the stream list down to text subtitles.
func SubtitleStreams(streams []StreamInfo) []StreamInfo {
	subs := make([]StreamInfo, 0)
	for _, stream := range streams {
		if stream.CodecType == "subtitle" {
			subs = append(subs, stream)
		}
	}

	return subs
}

// CoverStream finds the attached-picture video stream embedded in mp4
// containers, or the attachment stream carrying cover art in mkv
// containers. Returns nil when the file has no embedded thumbnail.
func CoverStream(streams []StreamInfo) *StreamInfo {
	for i, stream := range streams {
		if stream.CodecType == "video" && stream.Disposition.AttachedPic == 1 {
			return &streams[i]
		}
		if stream.CodecType == "attachment" && stream.Tags.Filename != "" {
			switch stream.CodecName {
			case "mjpeg", "png", "webp":
				return &streams[i]
			}
		}
	}

	return nil
}
