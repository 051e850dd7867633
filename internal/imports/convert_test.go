package imports_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/ffmpeg"
	"github.com/dot-mike/ta-scripts/internal/imports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToolkit simulates the ffmpeg side effects: every dump or remux
// creates its output file so the converter's renames and deletions
// operate on real paths.
type fakeToolkit struct {
	streams   []ffmpeg.StreamInfo
	subtitles []string
	remuxed   []string
	converted []string
	dumped    []string
}

func (f *fakeToolkit) Streams(_ context.Context, _ string) ([]ffmpeg.StreamInfo, error) {
	return f.streams, nil
}

func (f *fakeToolkit) DumpSubtitle(_ context.Context, _ string, _ int, outputPath string) error {
	f.subtitles = append(f.subtitles, outputPath)
	return os.WriteFile(outputPath, []byte("WEBVTT"), 0o644)
}

func (f *fakeToolkit) DumpCover(_ context.Context, _ string, _ int, outputPath string) error {
	f.dumped = append(f.dumped, outputPath)
	return os.WriteFile(outputPath, []byte("cover"), 0o644)
}

func (f *fakeToolkit) DumpAttachment(_ context.Context, _ string, _ int, outputPath string) error {
	f.dumped = append(f.dumped, outputPath)
	return os.WriteFile(outputPath, []byte("cover"), 0o644)
}

func (f *fakeToolkit) ConvertImage(_ context.Context, inputPath string, outputPath string) error {
	f.converted = append(f.converted, inputPath)
	return os.WriteFile(outputPath, []byte("jpg"), 0o644)
}

func (f *fakeToolkit) RemuxToMP4(_ context.Context, _ string, outputPath string, onProgress func(ffmpeg.Progress)) error {
	if onProgress != nil {
		onProgress(ffmpeg.Progress{Progress: 100})
	}
	f.remuxed = append(f.remuxed, outputPath)
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

func subtitleStream(index int, lang string) ffmpeg.StreamInfo {
	stream := ffmpeg.StreamInfo{Index: index, CodecType: "subtitle", CodecName: "webvtt"}
	stream.Tags.Language = lang
	return stream
}

func Test_Convert_FullBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	media := writeFile(t, dir, "Some Video [aaaaaaaaaaa].mkv", "media")
	metadata := writeFile(t, dir, "Some Video [aaaaaaaaaaa].info.json", "{}")

	attachment := ffmpeg.StreamInfo{Index: 3, CodecType: "attachment", CodecName: "png"}
	attachment.Tags.Filename = "cover.png"

	toolkit := &fakeToolkit{streams: []ffmpeg.StreamInfo{
		{Index: 0, CodecType: "video", CodecName: "vp9"},
		{Index: 1, CodecType: "audio", CodecName: "opus"},
		subtitleStream(2, "eng"),
		attachment,
	}}

	bundle := &imports.Bundle{VideoID: "aaaaaaaaaaa", Media: media, Metadata: metadata}
	report, err := imports.NewConverter(toolkit).Convert(context.Background(), []*imports.Bundle{bundle}, imports.ConvertOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Converted)
	assert.Empty(t, report.Failed)

	assert.NoFileExists(t, media, "source media is deleted after conversion")
	assert.FileExists(t, filepath.Join(dir, "[aaaaaaaaaaa].mp4"))
	assert.FileExists(t, filepath.Join(dir, "[aaaaaaaaaaa].info.json"))
	assert.FileExists(t, filepath.Join(dir, "[aaaaaaaaaaa].jpg"))
	assert.FileExists(t, filepath.Join(dir, "[aaaaaaaaaaa].en.vtt"), "iso 639-2 language codes are shortened")

	require.Len(t, toolkit.converted, 1, "png cover art is re-encoded to jpg")
	assert.NoFileExists(t, toolkit.converted[0], "intermediate cover file is removed")

	assert.Equal(t, filepath.Join(dir, "[aaaaaaaaaaa].mp4"), bundle.Media)
}

func Test_Convert_SkipsMP4AndMedialess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mp4 := writeFile(t, dir, "Done [bbbbbbbbbbb].mp4", "media")

	bundles := []*imports.Bundle{
		{VideoID: "bbbbbbbbbbb", Media: mp4},
		{VideoID: "ccccccccccc"},
	}

	toolkit := &fakeToolkit{}
	report, err := imports.NewConverter(toolkit).Convert(context.Background(), bundles, imports.ConvertOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Converted)
	assert.Empty(t, toolkit.remuxed)
	assert.FileExists(t, mp4)
}

func Test_Convert_ExistingSidecarThumbnail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	media := writeFile(t, dir, "Video [ddddddddddd].webm", "media")
	thumb := writeFile(t, dir, "Video [ddddddddddd].jpg", "thumb")

	toolkit := &fakeToolkit{streams: []ffmpeg.StreamInfo{
		{Index: 0, CodecType: "video", CodecName: "vp9"},
	}}

	bundle := &imports.Bundle{VideoID: "ddddddddddd", Media: media, Thumb: thumb}
	report, err := imports.NewConverter(toolkit).Convert(context.Background(), []*imports.Bundle{bundle}, imports.ConvertOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Converted)
	assert.Empty(t, toolkit.dumped, "sidecar thumbnail wins over embedded cover")
	assert.NoFileExists(t, thumb)
	assert.FileExists(t, filepath.Join(dir, "[ddddddddddd].jpg"))
}
