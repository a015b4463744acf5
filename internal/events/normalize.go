package events

import (
	"errors"
	"strings"
	"time"
)

// Validation errors surfaced when an upload yields no usable data.
var (
	ErrNoReactions = errors.New("no valid emoji reactions found (expected 🤯 Wow, 🤔 Curious or 😴 Boring)")
	ErrNoDates     = errors.New("no valid dates found in data")
)

// Column candidates, in priority order. Matching is case-insensitive on
// whitespace-collapsed header names; when no candidate matches exactly, the
// fallback substrings are tried against every header.
var (
	emojiColumnCandidates = []string{
		"how did today's edition make you feel?",
		"sentiment",
		"emotion",
		"reaction",
		"emoji",
	}
	emojiColumnFallbacks = []string{"make you feel", "sentiment", "reaction"}

	timestampColumnCandidates = []string{
		"submit date (utc)",
		"submit date",
		"submission date",
		"timestamp",
		"date",
		"created at",
		"time",
	}
	timestampColumnFallbacks = []string{"date", "time"}

	userIDColumnCandidates = []string{
		"network id",
		"network_id",
		"networkid",
		"user id",
		"user_id",
		"userid",
		"id",
	}
)

// Accepted timestamp layouts, tried in order. All are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006 15:04:05",
	"1-2-2006",
}

// Report summarizes a normalization pass. Dropped rows are not an error
// unless nothing survives.
type Report struct {
	TotalRows   int `json:"total_rows"`
	KeptRows    int `json:"kept_rows"`
	DroppedRows int `json:"dropped_rows"`
}

// Normalize converts raw CSV rows into typed events. A row is kept iff both
// the emoji and the timestamp resolve; everything else is dropped silently
// and tallied in the report. It fails only when zero rows survive.
func Normalize(header []string, rows [][]string) ([]Event, Report, error) {
	emojiCol := resolveColumn(header, emojiColumnCandidates, emojiColumnFallbacks)
	dateCol := resolveColumn(header, timestampColumnCandidates, timestampColumnFallbacks)
	userCol := resolveColumn(header, userIDColumnCandidates, nil)

	report := Report{TotalRows: len(rows)}
	out := make([]Event, 0, len(rows))
	emojiHits := 0

	for _, row := range rows {
		emoji := resolveEmoji(row, emojiCol)
		if emoji == EmojiUnknown {
			continue
		}
		emojiHits++

		if dateCol < 0 {
			continue
		}
		ts, ok := parseTimestamp(row[dateCol])
		if !ok {
			continue
		}

		ev := Event{Emoji: emoji, Timestamp: ts}
		if userCol >= 0 {
			ev.UserID = normalizeUserID(row[userCol])
		}
		out = append(out, ev)
	}

	report.KeptRows = len(out)
	report.DroppedRows = report.TotalRows - report.KeptRows

	if len(out) == 0 {
		if emojiHits == 0 {
			return nil, report, ErrNoReactions
		}
		return nil, report, ErrNoDates
	}

	return out, report, nil
}

// resolveColumn finds the index of the first header matching a candidate, in
// candidate priority order; falls back to substring matching.
func resolveColumn(header []string, candidates, fallbacks []string) int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	for _, cand := range candidates {
		for i, h := range normalized {
			if h == cand {
				return i
			}
		}
	}

	for _, sub := range fallbacks {
		for i, h := range normalized {
			if strings.Contains(h, sub) {
				return i
			}
		}
	}

	return -1
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "’", "'")
	return strings.Join(strings.Fields(s), " ")
}

// resolveEmoji reads the resolved column when present, otherwise scans the
// whole row for a literal glyph.
func resolveEmoji(row []string, col int) Emoji {
	if col >= 0 {
		if e := ParseEmoji(row[col]); e != EmojiUnknown {
			return e
		}
	}
	for _, cell := range row {
		trimmed := strings.TrimSpace(cell)
		for _, e := range TrackedEmojis {
			if trimmed == e.Glyph() {
				return e
			}
		}
	}
	return EmojiUnknown
}

// ParseEmoji maps a raw cell value to a tracked emoji: literal glyphs,
// free-text synonyms ("wow", "mind blown", "curious", "neutral", "boring",
// "negative"), or text containing a glyph (e.g. "Wow 🤯").
func ParseEmoji(value string) Emoji {
	v := strings.TrimSpace(value)
	if v == "" {
		return EmojiUnknown
	}

	for _, e := range TrackedEmojis {
		if v == e.Glyph() {
			return e
		}
	}

	lower := strings.ToLower(v)
	switch {
	case strings.Contains(lower, "wow"),
		strings.Contains(lower, "mind blown"),
		strings.Contains(lower, "very positive"):
		return EmojiWow
	case strings.Contains(lower, "curious"),
		strings.Contains(lower, "neutral"):
		return EmojiCurious
	case strings.Contains(lower, "boring"),
		strings.Contains(lower, "bored"),
		strings.Contains(lower, "negative"):
		return EmojiBoring
	}

	for _, e := range TrackedEmojis {
		if strings.Contains(v, e.Glyph()) {
			return e
		}
	}

	return EmojiUnknown
}

func parseTimestamp(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeUserID treats placeholder identifiers as absent.
func normalizeUserID(value string) string {
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, "unknown") {
		return ""
	}
	return v
}
