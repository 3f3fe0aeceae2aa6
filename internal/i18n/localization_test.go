package i18n

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/session"
)

func TestNewLocalizationDefaults(t *testing.T) {
	l := NewLocalization("xx")
	if l.GetCurrentLanguage() != DefaultLanguage {
		t.Errorf("Expected default language %s, got %s", DefaultLanguage, l.GetCurrentLanguage())
	}

	l = NewLocalization(LangRussian)
	if l.GetCurrentLanguage() != LangRussian {
		t.Errorf("Expected %s, got %s", LangRussian, l.GetCurrentLanguage())
	}
}

func TestEveryLanguageHasEveryKey(t *testing.T) {
	l := NewLocalization(DefaultLanguage)
	reference := l.texts[DefaultLanguage]

	for lang := range l.GetAvailableLanguages() {
		texts, exists := l.texts[lang]
		if !exists {
			t.Fatalf("Missing texts for %s", lang)
		}
		for key := range reference {
			if texts[key] == "" {
				t.Errorf("Language %s is missing key %s", lang, key)
			}
		}
	}
}

func TestGetTextFallback(t *testing.T) {
	l := NewLocalization(LangEnglish)
	if got := l.GetText("unknown_key"); got != "unknown_key" {
		t.Errorf("Expected key itself, got %q", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		lang     string
		key      string
		args     []any
		expected string
	}{
		{LangAzerbaijani, KeyDownloading, []any{"Song", 42}, "📥 Yüklənir: Song (42%)"},
		{LangEnglish, KeyFileTooLarge, []any{45}, "❌ The file is too large (over 45MB). Telegram does not support files this big."},
		{LangEnglish, KeySearchResults, []any{"lofi", 24, 1, 3}, "🎵 Found 24 songs for «lofi»\n\nPage 1/3 - Choose a song:"},
		{LangAzerbaijani, KeySearchResults, []any{"lofi", 24, 1, 3}, "🎵 «lofi» üçün 24 mahnı tapıldı\n\nSəhifə 1/3 - Mahnı seçin:"},
	}

	for _, test := range tests {
		t.Run(test.lang+"/"+test.key, func(t *testing.T) {
			l := NewLocalization(test.lang)
			if got := l.Format(test.key, test.args...); got != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestMessageKeyFor(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{fmt.Errorf("%w: estimated", model.ErrTooLarge), KeyFileTooLarge},
		{model.ErrExtractionBlocked, KeyContentUnavailable},
		{fmt.Errorf("%w: private video", model.ErrNotFound), KeyContentUnavailable},
		{model.ErrNetwork, KeyNetworkError},
		{model.ErrConversionFailed, KeyConversionFailed},
		{model.ErrDownloadFailed, KeyDownloadFailed},
		{model.ErrInvalidSource, KeyInvalidURL},
		{session.ErrSessionSuperseded, KeySessionSuperseded},
		{session.ErrSessionExpired, KeySessionExpired},
		{session.ErrNoSession, KeySessionExpired},
		{errors.New("boom"), KeyGeneralError},
	}

	for _, test := range tests {
		if got := MessageKeyFor(test.err); got != test.expected {
			t.Errorf("MessageKeyFor(%v) = %q, expected %q", test.err, got, test.expected)
		}
	}
}
