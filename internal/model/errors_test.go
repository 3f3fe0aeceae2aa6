package model

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestClassifyToolError(t *testing.T) {
	exitErr := errors.New("exit status 1")

	tests := []struct {
		name     string
		output   string
		err      error
		expected error
	}{
		{"bot check", "ERROR: [youtube] abc: Sign in to confirm you're not a bot", exitErr, ErrExtractionBlocked},
		{"rate limit", "ERROR: unable to download video data: HTTP Error 429: Too Many Requests", exitErr, ErrExtractionBlocked},
		{"app restriction", "ERROR: [youtube] abc: This app is not available on this device", exitErr, ErrExtractionBlocked},
		{"private", "ERROR: [youtube] abc: Private video. Sign in if you've been granted access", exitErr, ErrNotFound},
		{"unavailable", "ERROR: [youtube] abc: Video unavailable", exitErr, ErrNotFound},
		{"login required", "ERROR: [youtube] abc: Playability status: LOGIN_REQUIRED", exitErr, ErrExtractionBlocked},
		{"age gate sign in", "ERROR: [youtube] abc: Sign in to confirm your age. This video may be inappropriate for some users.", exitErr, ErrExtractionBlocked},
		{"age restricted", "ERROR: [youtube] abc: Please confirm your age to watch this video", exitErr, ErrNotFound},
		{"reset", "ERROR: [Errno 104] Connection reset by peer", exitErr, ErrNetwork},
		{"webpage", "ERROR: Unable to download webpage: <urlopen error>", exitErr, ErrNetwork},
		{"deadline", "", context.DeadlineExceeded, ErrNetwork},
		{"unknown", "ERROR: something else entirely", exitErr, ErrDownloadFailed},
	}

	for _, test := range tests {
		result := ClassifyToolError(test.output, test.err)
		if !errors.Is(result, test.expected) {
			t.Errorf("%s: ClassifyToolError() = %v, expected class %v", test.name, result, test.expected)
		}
	}
}

func TestClassifyToolError_DetailFromErrorLine(t *testing.T) {
	output := "[youtube] abc: Downloading webpage\nERROR: [youtube] abc: Video unavailable\n"
	err := ClassifyToolError(output, errors.New("exit status 1"))

	if !strings.Contains(err.Error(), "Video unavailable") {
		t.Errorf("Expected detail from ERROR line, got %q", err.Error())
	}
	if strings.Contains(err.Error(), "Downloading webpage") {
		t.Errorf("Expected progress lines to be dropped, got %q", err.Error())
	}
}

func TestClassifyToolError_NilAndCanceled(t *testing.T) {
	if err := ClassifyToolError("ERROR: x", nil); err != nil {
		t.Errorf("Expected nil for nil error, got %v", err)
	}
	if err := ClassifyToolError("", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected canceled to pass through, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{ErrNetwork, true},
		{ClassifyToolError("ERROR: timed out", errors.New("exit status 1")), true},
		{ErrExtractionBlocked, false},
		{ErrNotFound, false},
		{ErrTooLarge, false},
		{ErrConversionFailed, false},
	}

	for _, test := range tests {
		if result := IsTransient(test.err); result != test.expected {
			t.Errorf("IsTransient(%v) = %v, expected %v", test.err, result, test.expected)
		}
	}
}
