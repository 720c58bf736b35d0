// Package playlist parses the encoded play-list strings maccms10 sources
// attach to their detail records (`vod_play_url`).
package playlist

import (
	"strings"

	"github.com/vodbridge/vodbridge/internal/domain"
)

// The grammar, as emitted by upstream CMS installs: alternative play groups
// separated by "$$", entries within a group separated by "#", and each entry
// a "label$url" pair. Only one group carries m3u8 links; the others hold
// player-specific or dead formats.
const (
	groupSeparator = "$$"
	entrySeparator = "#"
	labelSeparator = "$"
)

// ExtractEpisodes parses a raw play-list string into ordered episode entries.
// Entries that are malformed, point at a non-m3u8 resource, or carry a
// non-absolute URL are dropped silently; upstream data routinely contains
// them. A string yielding no valid entries returns an empty slice.
func ExtractEpisodes(raw string) []domain.PlayEntry {
	group := selectGroup(raw)

	entries := []domain.PlayEntry{}
	for _, entry := range strings.Split(group, entrySeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" || !strings.Contains(entry, labelSeparator) {
			continue
		}

		parts := strings.SplitN(entry, labelSeparator, 2)
		title := strings.TrimSpace(parts[0])
		rawURL := strings.TrimSpace(parts[1])

		if !strings.HasSuffix(rawURL, ".m3u8") {
			continue
		}
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			continue
		}

		entries = append(entries, domain.PlayEntry{Title: title, URL: rawURL})
	}

	return entries
}

// selectGroup picks the first play group containing m3u8 links. When no group
// qualifies the whole raw string is treated as a single group; some sources
// never emit the "$$" separator at all.
func selectGroup(raw string) string {
	for _, group := range strings.Split(raw, groupSeparator) {
		if strings.Contains(group, ".m3u8") {
			return group
		}
	}
	return raw
}
