package imports_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/imports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	mu      sync.Mutex
	badPath string
	probed  []string
}

func (f *fakeProber) ValidateMedia(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, path)
	if path == f.badPath {
		return errors.New("no video stream")
	}
	return nil
}

func Test_Validate(t *testing.T) {
	t.Parallel()

	bundles := []*imports.Bundle{
		{VideoID: "aaaaaaaaaaa", Media: "a.mkv"},
		{VideoID: "bbbbbbbbbbb", Media: "b.mkv"},
		{VideoID: "ccccccccccc"},
		{VideoID: "ddddddddddd", Media: "d.webm"},
	}
	prober := &fakeProber{badPath: "b.mkv"}

	report, err := imports.Validate(bundles, prober, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, []string{"ccccccccccc"}, report.MissingMedia)
	assert.Equal(t, []string{"bbbbbbbbbbb"}, report.Invalid)
	assert.Len(t, prober.probed, 3)
}

type fakeArchive struct {
	existing map[string]struct{}
	queried  []string
}

func (f *fakeArchive) ExistingIDs(_ context.Context, _ string, ids []string) (map[string]struct{}, error) {
	f.queried = ids
	return f.existing, nil
}

func Test_FindArchived(t *testing.T) {
	t.Parallel()

	bundles := []*imports.Bundle{
		{VideoID: "aaaaaaaaaaa", Media: "a.mkv"},
		{VideoID: "bbbbbbbbbbb", Media: "b.mkv"},
		{VideoID: "ccccccccccc"},
	}
	archive := &fakeArchive{existing: map[string]struct{}{"bbbbbbbbbbb": {}}}

	archived, err := imports.FindArchived(context.Background(), archive, bundles)
	require.NoError(t, err)

	require.Len(t, archived, 1)
	assert.Equal(t, "bbbbbbbbbbb", archived[0].VideoID)
	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, archive.queried,
		"bundles without media are not looked up")
}

func Test_RemoveBundles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	media := writeFile(t, dir, "Video [aaaaaaaaaaa].mkv", "media")
	metadata := writeFile(t, dir, "Video [aaaaaaaaaaa].info.json", "{}")
	keep := writeFile(t, dir, "Video [bbbbbbbbbbb].mkv", "media")

	bundles := []*imports.Bundle{
		{VideoID: "aaaaaaaaaaa", Media: media, Metadata: metadata},
		{VideoID: "ddddddddddd", Media: "/does/not/exist.mkv"},
	}

	removed, failed := imports.RemoveBundles(bundles, 4)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, failed)

	assert.NoFileExists(t, media)
	assert.NoFileExists(t, metadata)
	assert.FileExists(t, keep)
}

func Test_Validate_NoBundles(t *testing.T) {
	t.Parallel()

	report, err := imports.Validate(nil, &fakeProber{}, 0)
	require.NoError(t, err)
	assert.Zero(t, report.Checked)
	assert.Empty(t, report.Invalid)
}
