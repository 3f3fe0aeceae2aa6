package model

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownArtist is the uploader placeholder that is never shown as performer
const UnknownArtist = "Unknown Artist"

// TitleSeparators are the glyphs that may follow an uploader prefix
var TitleSeparators = []string{"-", "–", "|", ":", "•"}

// CleanTitle strips a leading uploader name and one following separator
// glyph from title. The uploader must be followed by whitespace or a
// separator, so "Artistry" is not stripped for uploader "Artist". A title
// that does not start with the uploader is returned unchanged.
func CleanTitle(title, uploader string) string {
	title = strings.TrimSpace(title)
	uploader = strings.TrimSpace(uploader)
	if uploader == "" || !strings.HasPrefix(title, uploader) {
		return title
	}

	rest := strings.TrimPrefix(title, uploader)
	if !startsAtBoundary(rest) {
		return title
	}
	rest = strings.TrimSpace(rest)
	for _, sep := range TitleSeparators {
		if strings.HasPrefix(rest, sep) {
			rest = strings.TrimSpace(strings.TrimPrefix(rest, sep))
			break
		}
	}

	if rest == "" {
		return title
	}
	return rest
}

func startsAtBoundary(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	if unicode.IsSpace(r) {
		return true
	}
	for _, sep := range TitleSeparators {
		if strings.HasPrefix(rest, sep) {
			return true
		}
	}
	return false
}

// Performer returns uploader unless it is empty or the unknown placeholder
func Performer(uploader string) string {
	uploader = strings.TrimSpace(uploader)
	if uploader == UnknownArtist {
		return ""
	}
	return uploader
}

// FormatDuration formats seconds as m:ss, or h:mm:ss for an hour or more
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
