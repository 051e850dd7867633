// Package imports prepares yt-dlp download directories for ingestion
// into TubeArchivist: grouping files into per-video bundles, checking
// and repairing metadata, validating media, removing already-archived
// bundles and converting containers to mp4.
package imports

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dot-mike/ta-scripts/internal/ytid"
	"github.com/dot-mike/ta-scripts/pkg/logger"
)

var log = logger.Get("Imports")

// Category names one kind of file inside a video bundle.
type Category string

const (
	CategoryMedia       Category = "media"
	CategoryMetadata    Category = "metadata"
	CategoryThumb       Category = "thumb"
	CategorySubtitle    Category = "subtitle"
	CategoryDescription Category = "description"
)

// extMap assigns filename suffixes to bundle categories. Metadata is
// matched before thumbnails so ".info.json" never falls through to a
// weaker suffix.
var extMap = []struct {
	category Category
	suffixes []string
}{
	{CategoryMetadata, []string{".info.json"}},
	{CategoryMedia, []string{".mkv", ".webm", ".mp4"}},
	{CategoryThumb, []string{".jpg", ".png", ".webp"}},
	{CategorySubtitle, []string{".vtt"}},
	{CategoryDescription, []string{".description"}},
}

// Bundle is the set of files belonging to one video, grouped by the
// 11-character ID embedded in their filenames.
type Bundle struct {
	VideoID     string
	Media       string
	Metadata    string
	Thumb       string
	Description string
	Subtitles   []string
}

// Files returns every path in the bundle.
func (bundle *Bundle) Files() []string {
	files := make([]string, 0, 4+len(bundle.Subtitles))
	for _, path := range []string{bundle.Media, bundle.Metadata, bundle.Thumb, bundle.Description} {
		if path != "" {
			files = append(files, path)
		}
	}
	files = append(files, bundle.Subtitles...)

	return files
}

func (bundle *Bundle) assign(category Category, path string) {
	switch category {
	case CategoryMedia:
		bundle.Media = path
	case CategoryMetadata:
		bundle.Metadata = path
	case CategoryThumb:
		bundle.Thumb = path
	case CategorySubtitle:
		bundle.Subtitles = append(bundle.Subtitles, path)
	case CategoryDescription:
		bundle.Description = path
	}
}

func categorize(filename string) (Category, bool) {
	for _, mapping := range extMap {
		for _, suffix := range mapping.suffixes {
			if strings.HasSuffix(filename, suffix) {
				return mapping.category, true
			}
		}
	}

	return "", false
}

// Scan walks the directory tree and groups every recognisable file into
// a bundle keyed by video ID. Files without a bracketed ID in their
// name, or with an unknown extension, are ignored. Bundles are returned
// sorted by video ID.
func Scan(dir string) ([]*Bundle, error) {
	bundles := make(map[string]*Bundle)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		videoID := ytid.ExtractFromFilename(entry.Name())
		if videoID == "" {
			return nil
		}
		category, ok := categorize(entry.Name())
		if !ok {
			return nil
		}

		bundle, exists := bundles[videoID]
		if !exists {
			bundle = &Bundle{VideoID: videoID}
			bundles[videoID] = bundle
		}
		bundle.assign(category, path)

		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]*Bundle, 0, len(bundles))
	for _, bundle := range bundles {
		sort.Strings(bundle.Subtitles)
		result = append(result, bundle)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VideoID < result[j].VideoID })

	log.Emit(logger.DEBUG, "Scanned %s: %d bundles\n", dir, len(result))
	return result, nil
}

// CheckMissing reports the IDs of bundles that are not importable: a
// bundle needs media and metadata, and stray thumbnails or subtitles
// without media indicate a partial download.
func CheckMissing(bundles []*Bundle) []string {
	missing := make([]string, 0)
	for _, bundle := range bundles {
		if bundle.Media == "" || bundle.Metadata == "" {
			missing = append(missing, bundle.VideoID)
		}
	}

	return missing
}
