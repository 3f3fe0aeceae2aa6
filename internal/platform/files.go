package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Word matching thresholds for the degraded title fallback
const (
	MinSignificantWordLength = 4
	MinSharedWords           = 2
	MaxNameDifference        = 10
)

// File extensions to skip
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp", ".tmp"}
)

// Image extensions yt-dlp may write thumbnails with
var (
	ThumbnailExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
)

// ErrFileNotFound is returned when no file matches a lookup
var ErrFileNotFound = errors.New("file not found")

// MatchKind tells how a file was matched
type MatchKind string

const (
	MatchNone  MatchKind = ""
	MatchToken MatchKind = "token"
	MatchID    MatchKind = "id"
	MatchTitle MatchKind = "title" // degraded, filename heuristics only
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FileSize returns the size of the file at path
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FindJobOutput locates the audio file produced for token in dir. Only files
// named after the token are considered; preferredExt wins when several exist.
func FindJobOutput(dir, token, preferredExt string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("job token is empty")
	}

	candidates, err := tokenFiles(dir, token)
	if err != nil {
		return "", err
	}

	var audio []string
	for _, path := range candidates {
		if isThumbnail(path) {
			continue
		}
		audio = append(audio, path)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: no output for job %s in %s", ErrFileNotFound, token, dir)
	}

	preferred := "." + strings.TrimPrefix(strings.ToLower(preferredExt), ".")
	for _, path := range audio {
		if strings.ToLower(filepath.Ext(path)) == preferred {
			return path, nil
		}
	}
	sort.Strings(audio)
	return audio[0], nil
}

// FindOutputByTitle is the degraded lookup for outputs not named after a job
// token. It matches file names similar to title and must never be the first
// choice, since concurrent jobs with similar titles are indistinguishable.
func FindOutputByTitle(dir, title, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	ext = "." + strings.TrimPrefix(strings.ToLower(ext), ".")
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || isSkipped(entry.Name()) {
			continue
		}
		entryExt := filepath.Ext(entry.Name())
		if strings.ToLower(entryExt) != ext {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), entryExt)
		if isSimilarFileName(base, title) {
			candidates = append(candidates, filepath.Join(dir, entry.Name()))
		}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no file similar to %q in %s", ErrFileNotFound, title, dir)
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

// ResolveThumbnail finds the cover image downloaded for a job. A file named
// after the job token or the catalog id is preferred. Otherwise a file
// sharing significant title words is accepted as a weaker match. Unrelated
// images in dir are never returned.
func ResolveThumbnail(dir, token, sourceID, title string) (string, MatchKind) {
	if token != "" {
		if files, err := tokenFiles(dir, token); err == nil {
			for _, path := range files {
				if isThumbnail(path) {
					return path, MatchToken
				}
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", MatchNone
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || isSkipped(entry.Name()) || !isThumbnail(entry.Name()) {
			continue
		}
		images = append(images, entry.Name())
	}
	sort.Strings(images)

	if sourceID != "" {
		for _, name := range images {
			if strings.Contains(name, sourceID) {
				return filepath.Join(dir, name), MatchID
			}
		}
	}

	titleWords := significantWords(title)
	if len(titleWords) == 0 {
		return "", MatchNone
	}
	required := MinSharedWords
	if len(titleWords) < required {
		required = len(titleWords)
	}

	best, bestShared := "", 0
	for _, name := range images {
		shared := sharedWordCount(titleWords, significantWords(strings.TrimSuffix(name, filepath.Ext(name))))
		if shared >= required && shared > bestShared {
			best, bestShared = name, shared
		}
	}
	if best == "" {
		return "", MatchNone
	}
	return filepath.Join(dir, best), MatchTitle
}

// RemoveJobArtifacts deletes every file namespaced by token in dir
func RemoveJobArtifacts(dir, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	files, err := tokenFiles(dir, token)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, path := range files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// SweepStale deletes regular files in dir last modified before now-maxAge
func SweepStale(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// tokenFiles lists finished files whose name starts with token followed by a dot
func tokenFiles(dir, token string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(token)+".*"))
	if err != nil {
		return nil, err
	}

	files := matches[:0]
	for _, path := range matches {
		if isSkipped(path) {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func globEscape(s string) string {
	replacer := strings.NewReplacer("*", "\\*", "?", "\\?", "[", "\\[", "]", "\\]")
	return replacer.Replace(s)
}

func isSkipped(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isThumbnail(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range ThumbnailExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// isSimilarFileName checks if a file name is close enough to title to be its output
func isSimilarFileName(name, title string) bool {
	clean1 := normalizeName(name)
	clean2 := normalizeName(title)
	if clean1 == "" || clean2 == "" {
		return false
	}
	if clean1 == clean2 {
		return true
	}

	// Truncated or restricted names
	if strings.Contains(clean1, clean2) || strings.Contains(clean2, clean1) {
		diff := utf8.RuneCountInString(clean1) - utf8.RuneCountInString(clean2)
		if diff < 0 {
			diff = -diff
		}
		return diff <= MaxNameDifference
	}
	return false
}

// normalizeName lowercases s and collapses separators yt-dlp may substitute
func normalizeName(s string) string {
	return strings.Join(significantFields(s), " ")
}

func significantFields(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// significantWords returns the distinct words of s longer than three runes
func significantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, field := range significantFields(s) {
		if utf8.RuneCountInString(field) >= MinSignificantWordLength {
			words[field] = struct{}{}
		}
	}
	return words
}

func sharedWordCount(a, b map[string]struct{}) int {
	count := 0
	for word := range a {
		if _, ok := b[word]; ok {
			count++
		}
	}
	return count
}
