package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ResolveIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	idFile := filepath.Join(dir, "ids.txt")
	require.NoError(t, os.WriteFile(idFile, []byte("dQw4w9WgXcQ\nhttps://youtu.be/aaaaaaaaaaa\n"), 0o644))

	ids, err := resolveIDs([]string{idFile, "https://www.youtube.com/watch?v=bbbbbbbbbbb", "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dQw4w9WgXcQ", "aaaaaaaaaaa", "bbbbbbbbbbb"}, ids)
}

func Test_ResolveIDs_NothingRecognised(t *testing.T) {
	t.Parallel()

	_, err := resolveIDs([]string{"???"})
	assert.Error(t, err)
}

func Test_ParseDate(t *testing.T) {
	t.Parallel()

	parsed, err := parseDate("published-after", "2024-12-01")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, time.December, parsed.Month())

	empty, err := parseDate("published-after", "")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseDate("published-after", "not a date")
	assert.Error(t, err)
}

func Test_RootCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd(&app{})

	groups := make(map[string][]string)
	for _, group := range root.Commands() {
		for _, sub := range group.Commands() {
			groups[group.Name()] = append(groups[group.Name()], sub.Name())
		}
	}

	assert.ElementsMatch(t, []string{"add", "remove", "priority", "status", "pending", "cleanup", "search", "channels"}, groups["queue"])
	assert.ElementsMatch(t, []string{"search", "get", "reindex", "dupe-check", "deactivated", "no-comments"}, groups["video"])
	assert.ElementsMatch(t, []string{"scan", "pending", "export"}, groups["channel"])
	assert.ElementsMatch(t, []string{"check", "fix-keys", "validate", "dedupe", "convert", "watch"}, groups["import"])
}
