package imports

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dot-mike/ta-scripts/pkg/logger"
)

// defaultedKeys are the info.json keys TubeArchivist's importer expects
// to exist, with the neutral value used when repairing.
var defaultedKeys = []struct {
	Key     string
	Default interface{}
}{
	{"tags", []interface{}{}},
	{"categories", []interface{}{}},
	{"thumbnails", []interface{}{}},
	{"description", ""},
	{"view_count", 0},
	{"upload_date", ""},
	{"uploader", ""},
	{"uploader_id", ""},
	{"channel_id", ""},
	{"title", ""},
}

// misspelledKeys maps key names produced by old yt-dlp forks to their
// correct spelling.
var misspelledKeys = map[string]string{
	"channelid":  "channel_id",
	"uploaddate": "upload_date",
	"viewdate":   "view_date",
}

// KeyReport describes the problems found in one metadata file and, when
// repairs were written, what changed.
type KeyReport struct {
	VideoID     string
	Path        string
	MissingKeys []string
	RenamedKeys map[string]string
	Repaired    bool
}

// Clean reports whether the metadata file needs no repair.
func (report *KeyReport) Clean() bool {
	return len(report.MissingKeys) == 0 && len(report.RenamedKeys) == 0
}

// CheckKeys inspects the metadata file of every bundle for missing or
// misspelled keys. When write is true the repairs are applied in place:
// misspelled keys renamed first, then any still-missing keys added with
// their defaults. Bundles without a metadata file are skipped.
func CheckKeys(bundles []*Bundle, write bool) ([]KeyReport, error) {
	reports := make([]KeyReport, 0)

	for _, bundle := range bundles {
		if bundle.Metadata == "" {
			continue
		}

		report, err := checkBundleKeys(bundle, write)
		if err != nil {
			return nil, err
		}
		if !report.Clean() {
			reports = append(reports, *report)
		}
	}

	return reports, nil
}

func checkBundleKeys(bundle *Bundle, write bool) (*KeyReport, error) {
	content, err := os.ReadFile(bundle.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file %s: %w", bundle.Metadata, err)
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(content, &metadata); err != nil {
		return nil, fmt.Errorf("metadata file %s is not valid JSON: %w", bundle.Metadata, err)
	}

	report := &KeyReport{
		VideoID:     bundle.VideoID,
		Path:        bundle.Metadata,
		RenamedKeys: make(map[string]string),
	}

	for misspelled, correct := range misspelledKeys {
		value, present := metadata[misspelled]
		if !present {
			continue
		}

		report.RenamedKeys[misspelled] = correct
		if _, alsoCorrect := metadata[correct]; !alsoCorrect {
			metadata[correct] = value
		}
		delete(metadata, misspelled)
	}

	for _, keyDefault := range defaultedKeys {
		if _, present := metadata[keyDefault.Key]; present {
			continue
		}

		report.MissingKeys = append(report.MissingKeys, keyDefault.Key)
		metadata[keyDefault.Key] = keyDefault.Default
	}
	sort.Strings(report.MissingKeys)

	if report.Clean() || !write {
		return report, nil
	}

	repaired, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(bundle.Metadata, repaired, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write repaired metadata file %s: %w", bundle.Metadata, err)
	}

	report.Repaired = true
	log.Emit(logger.SUCCESS, "Repaired metadata for %s (%d missing keys, %d renamed)\n",
		bundle.VideoID, len(report.MissingKeys), len(report.RenamedKeys))

	return report, nil
}
