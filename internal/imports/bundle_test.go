package imports_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/imports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_Scan_GroupsFilesByVideoID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	media := writeFile(t, dir, "Some Video [aaaaaaaaaaa].mkv", "media")
	metadata := writeFile(t, dir, "Some Video [aaaaaaaaaaa].info.json", "{}")
	thumb := writeFile(t, dir, "Some Video [aaaaaaaaaaa].webp", "thumb")
	subEN := writeFile(t, dir, "Some Video [aaaaaaaaaaa].en.vtt", "sub")
	subSV := writeFile(t, dir, "Some Video [aaaaaaaaaaa].sv.vtt", "sub")
	other := writeFile(t, dir, "nested/Other Video [bbbbbbbbbbb].mp4", "media")
	writeFile(t, dir, "no-id-here.mkv", "ignored")
	writeFile(t, dir, "Some Video [aaaaaaaaaaa].txt", "unknown extension")

	bundles, err := imports.Scan(dir)
	require.NoError(t, err)
	require.Len(t, bundles, 2)

	first := bundles[0]
	assert.Equal(t, "aaaaaaaaaaa", first.VideoID)
	assert.Equal(t, media, first.Media)
	assert.Equal(t, metadata, first.Metadata)
	assert.Equal(t, thumb, first.Thumb)
	assert.Equal(t, []string{subEN, subSV}, first.Subtitles)

	second := bundles[1]
	assert.Equal(t, "bbbbbbbbbbb", second.VideoID)
	assert.Equal(t, other, second.Media)
	assert.Empty(t, second.Metadata)
}

func Test_Scan_MetadataIsNotMistakenForOtherCategories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	metadata := writeFile(t, dir, "Video [ccccccccccc].info.json", "{}")

	bundles, err := imports.Scan(dir)
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, metadata, bundles[0].Metadata)
	assert.Empty(t, bundles[0].Media)
}

func Test_CheckMissing(t *testing.T) {
	t.Parallel()

	bundles := []*imports.Bundle{
		{VideoID: "aaaaaaaaaaa", Media: "a.mkv", Metadata: "a.info.json"},
		{VideoID: "bbbbbbbbbbb", Media: "b.mkv"},
		{VideoID: "ccccccccccc", Thumb: "c.jpg"},
	}

	assert.Equal(t, []string{"bbbbbbbbbbb", "ccccccccccc"}, imports.CheckMissing(bundles))
}

func Test_BundleFiles(t *testing.T) {
	t.Parallel()

	bundle := &imports.Bundle{
		VideoID:   "aaaaaaaaaaa",
		Media:     "a.mkv",
		Metadata:  "a.info.json",
		Subtitles: []string{"a.en.vtt"},
	}

	assert.Equal(t, []string{"a.mkv", "a.info.json", "a.en.vtt"}, bundle.Files())
}
