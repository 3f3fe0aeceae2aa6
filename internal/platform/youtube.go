package platform

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// URL templates and shapes
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
	VideoIDLength           = 11
	HTTPSScheme             = "https://"
)

// Recognized hosts and paths
const (
	HostYouTube      = "youtube.com"
	HostShort        = "youtu.be"
	WatchPath        = "/watch"
	EmbedPathPrefix  = "/embed/"
	LegacyPathPrefix = "/v/"
	ShortsPathPrefix = "/shorts/"
	VideoQueryParam  = "v"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsValidVideoID reports whether id has the catalog id shape
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// IsYouTubeURL reports whether raw points at a YouTube host
func IsYouTubeURL(raw string) bool {
	u, err := parseLoose(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == HostShort || host == HostYouTube || strings.HasSuffix(host, "."+HostYouTube)
}

// ExtractVideoID returns the catalog id referenced by a YouTube link
func ExtractVideoID(raw string) (string, error) {
	u, err := parseLoose(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	var id string

	switch {
	case host == HostShort:
		id = strings.Trim(u.Path, "/")
	case host == HostYouTube || strings.HasSuffix(host, "."+HostYouTube):
		switch {
		case u.Path == WatchPath || strings.HasPrefix(u.Path, WatchPath+"/"):
			id = u.Query().Get(VideoQueryParam)
		case strings.HasPrefix(u.Path, EmbedPathPrefix):
			id = strings.TrimPrefix(u.Path, EmbedPathPrefix)
		case strings.HasPrefix(u.Path, LegacyPathPrefix):
			id = strings.TrimPrefix(u.Path, LegacyPathPrefix)
		case strings.HasPrefix(u.Path, ShortsPathPrefix):
			id = strings.TrimPrefix(u.Path, ShortsPathPrefix)
		}
	default:
		return "", fmt.Errorf("not a YouTube URL: %s", raw)
	}

	if i := strings.IndexAny(id, "/?&"); i != -1 {
		id = id[:i]
	}
	if !IsValidVideoID(id) {
		return "", fmt.Errorf("unable to extract video ID from URL: %s", raw)
	}
	return id, nil
}

// CleanVideoURL normalizes a recognized link to its canonical watch URL,
// dropping playlist and tracking parameters
func CleanVideoURL(raw string) (string, error) {
	id, err := ExtractVideoID(raw)
	if err != nil {
		return "", err
	}
	return VideoURL(id), nil
}

// VideoURL builds the canonical watch URL for a catalog id
func VideoURL(id string) string {
	return fmt.Sprintf(YouTubeVideoURLTemplate, id)
}

// FindVideoURL returns the first recognizable video link in free text
func FindVideoURL(text string) (string, bool) {
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, "<>()[]\"'")
		if !IsYouTubeURL(field) {
			continue
		}
		if clean, err := CleanVideoURL(field); err == nil {
			return clean, true
		}
	}
	return "", false
}

// parseLoose parses raw, accepting links typed without a scheme
func parseLoose(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = HTTPSScheme + raw
	}
	return url.Parse(raw)
}
