package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error classes reported by the pipeline
var (
	ErrExtractionBlocked = errors.New("extraction blocked by remote anti-automation")
	ErrNotFound          = errors.New("content unavailable")
	ErrNetwork           = errors.New("network error")
	ErrTooLarge          = errors.New("file too large")
	ErrDownloadFailed    = errors.New("download failed")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrInvalidSource     = errors.New("invalid source")
)

// Phrases matched case-insensitively against yt-dlp output
var (
	BlockedPhrases = []string{
		"sign in to confirm",
		"not a bot",
		"unusual traffic",
		"http error 429",
		"too many requests",
		"this app is not available",
		"the page needs to be reloaded",
		"playability status: login_required",
	}
	NotFoundPhrases = []string{
		"video unavailable",
		"private video",
		"has been removed",
		"not available in your country",
		"members-only",
		"confirm your age",
		"does not exist",
		"is not a valid url",
		"unsupported url",
	}
	NetworkPhrases = []string{
		"timed out",
		"connection reset",
		"temporary failure",
		"unable to download webpage",
		"network is unreachable",
		"connection refused",
		"remote end closed",
		"ssl: ",
	}
)

// ErrorLinePrefix marks error lines in yt-dlp stderr
const ErrorLinePrefix = "ERROR:"

// ClassifyToolError maps a failed yt-dlp invocation to one of the error
// classes. output is the combined tool output used for phrase matching.
func ClassifyToolError(output string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	detail := lastErrorLine(output)
	if detail == "" {
		detail = err.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrNetwork, detail)
	}

	text := strings.ToLower(output + "\n" + err.Error())
	switch {
	case containsAny(text, BlockedPhrases):
		return fmt.Errorf("%w: %s", ErrExtractionBlocked, detail)
	case containsAny(text, NotFoundPhrases):
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case containsAny(text, NetworkPhrases):
		return fmt.Errorf("%w: %s", ErrNetwork, detail)
	}
	return fmt.Errorf("%w: %s", ErrDownloadFailed, detail)
}

// IsTransient reports whether err is worth retrying the whole job for
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsBlocked reports whether err is an anti-automation rejection
func IsBlocked(err error) bool {
	return errors.Is(err, ErrExtractionBlocked)
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// lastErrorLine returns the last "ERROR:" line of tool output
func lastErrorLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, ErrorLinePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, ErrorLinePrefix))
		}
	}
	return ""
}
