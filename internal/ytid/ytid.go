// Package ytid recovers YouTube video IDs from the many shapes users
// throw at the CLI: bare IDs, watch URLs, short URLs, filenames with a
// bracketed ID, or files containing one entry per line.
package ytid

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	exactIDMatcher     = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	bracketedIDMatcher = regexp.MustCompile(`\[([a-zA-Z0-9_-]{11})\]`)
	looseIDMatcher     = regexp.MustCompile(`([a-zA-Z0-9_-]{11})`)
)

// Extract recovers an 11 character video ID from the input string. The
// input may be a bare ID, a youtube.com/watch URL, a youtu.be short URL,
// or any string containing an ID shaped token. Returns an empty string
// when nothing ID shaped can be found.
func Extract(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if exactIDMatcher.MatchString(input) {
		return input
	}

	if strings.Contains(input, "youtube.com") || strings.Contains(input, "youtu.be") {
		parsed, err := url.Parse(input)
		if err != nil {
			return ""
		}

		if parsed.Host == "youtu.be" {
			return candidate(strings.TrimPrefix(parsed.Path, "/"))
		}

		if v := parsed.Query().Get("v"); v != "" {
			return candidate(v)
		}

		return ""
	}

	if groups := looseIDMatcher.FindStringSubmatch(input); groups != nil {
		return groups[1]
	}

	return ""
}

// ExtractFromFilename recovers the video ID from a yt-dlp style filename
// where the ID is enclosed in square brackets, e.g. "Title [dQw4w9WgXcQ].mkv".
func ExtractFromFilename(filename string) string {
	if groups := bracketedIDMatcher.FindStringSubmatch(filename); groups != nil {
		return groups[1]
	}

	return ""
}

// ReadSpec resolves a CLI argument to a list of video IDs. When the
// argument names an existing file, each line of the file is treated as an
// ID or URL; otherwise the argument itself is. Invalid entries are
// dropped and duplicates removed, preserving first-seen order.
func ReadSpec(arg string) ([]string, error) {
	var inputs []string

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		f, err := os.Open(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", arg, err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			inputs = append(inputs, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read input file %s: %w", arg, err)
		}
	} else {
		inputs = []string{arg}
	}

	seen := make(map[string]struct{}, len(inputs))
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		id := Extract(input)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func candidate(s string) string {
	if exactIDMatcher.MatchString(s) {
		return s
	}

	return ""
}
