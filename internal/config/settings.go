package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment settings
const (
	EnvPrefix          = "YTAUDIO"
	LegacyTokenEnv     = "TELEGRAM_BOT_TOKEN"
	ConfigName         = "yt-audio-bot"
	ConfigType         = "yaml"
	DefaultTempDirName = "yt-audio-bot"
)

// Settings keys
const (
	KeyTelegramToken    = "telegram.token"
	KeyTempDir          = "download.temp_dir"
	KeyMaxSizeMB        = "download.max_size_mb"
	KeyAudioFormat      = "download.audio_format"
	KeyAudioQuality     = "download.audio_quality"
	KeyDownloadTimeout  = "download.timeout"
	KeyMaxParallel      = "download.max_parallel"
	KeyRetries          = "download.retries"
	KeyBackoff          = "download.backoff"
	KeyFailureRetention = "download.failure_retention"
	KeyCookiesFile      = "download.cookies_file"
	KeyProxy            = "download.proxy"
	KeySocketTimeout    = "download.socket_timeout"
	KeyProgressInterval = "progress.interval"
	KeyProgressMinDelta = "progress.min_delta"
	KeyCoverSize        = "cover.size"
	KeySearchMaxResults = "search.max_results"
	KeySearchPageSize   = "search.page_size"
	KeySessionTTL       = "session.ttl"
	KeySessionRedisURL  = "session.redis_url"
	KeyCleanupInterval  = "cleanup.interval"
	KeyCleanupMaxAge    = "cleanup.max_age"
	KeyLanguage         = "bot.language"
	KeyLogLevel         = "log.level"
	KeyLogJSON          = "log.json"
)

// Default values
const (
	DefaultMaxSizeMB        = 45
	DefaultAudioFormat      = "mp3"
	DefaultAudioQuality     = 192
	DefaultDownloadTimeout  = 10 * time.Minute
	DefaultMaxParallel      = 4
	DefaultRetries          = 2
	DefaultBackoff          = 2 * time.Second
	DefaultFailureRetention = 10 * time.Minute
	DefaultSocketTimeout    = 30 * time.Second
	DefaultProgressInterval = time.Second
	DefaultProgressMinDelta = 5
	DefaultCoverSize        = 320
	DefaultSearchMaxResults = 24
	DefaultSearchPageSize   = 8
	DefaultSessionTTL       = time.Hour
	DefaultCleanupInterval  = 30 * time.Minute
	DefaultCleanupMaxAge    = time.Hour
	DefaultLanguage         = "az"
	DefaultLogLevel         = "info"
)

// Limits applied by getters and setters
const (
	MinMaxSizeMB     = 1
	MaxMaxSizeMB     = 49 // the platform rejects uploads of 50MB and above
	MinAudioQuality  = 32
	MaxAudioQuality  = 320
	MinParallel      = 1
	MaxParallel      = 16
	MaxRetries       = 5
	MinCoverSize     = 64
	MaxCoverSize     = 1280
	MaxSearchResults = 24
	BytesPerMegabyte = 1024 * 1024
)

// ErrMissingToken is returned by Validate when no bot token is configured
var ErrMissingToken = errors.New("telegram bot token is required (set " + LegacyTokenEnv + " or " + EnvPrefix + "_TELEGRAM_TOKEN)")

// EnvKeyReplacer maps nested keys to environment variable names
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Defaults holds the factory default of every key
var Defaults = map[string]any{
	KeyTelegramToken:    "",
	KeyTempDir:          filepath.Join(os.TempDir(), DefaultTempDirName),
	KeyMaxSizeMB:        DefaultMaxSizeMB,
	KeyAudioFormat:      DefaultAudioFormat,
	KeyAudioQuality:     DefaultAudioQuality,
	KeyDownloadTimeout:  DefaultDownloadTimeout,
	KeyMaxParallel:      DefaultMaxParallel,
	KeyRetries:          DefaultRetries,
	KeyBackoff:          DefaultBackoff,
	KeyFailureRetention: DefaultFailureRetention,
	KeyCookiesFile:      "",
	KeyProxy:            "",
	KeySocketTimeout:    DefaultSocketTimeout,
	KeyProgressInterval: DefaultProgressInterval,
	KeyProgressMinDelta: DefaultProgressMinDelta,
	KeyCoverSize:        DefaultCoverSize,
	KeySearchMaxResults: DefaultSearchMaxResults,
	KeySearchPageSize:   DefaultSearchPageSize,
	KeySessionTTL:       DefaultSessionTTL,
	KeySessionRedisURL:  "",
	KeyCleanupInterval:  DefaultCleanupInterval,
	KeyCleanupMaxAge:    DefaultCleanupMaxAge,
	KeyLanguage:         DefaultLanguage,
	KeyLogLevel:         DefaultLogLevel,
	KeyLogJSON:          false,
}

// Settings exposes typed, clamped access to the process configuration
type Settings struct {
	v *viper.Viper
}

// NewSettings creates a settings manager over v and registers defaults
func NewSettings(v *viper.Viper) *Settings {
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
	return &Settings{v: v}
}

// Load reads configuration from the environment and an optional config file.
// A missing config file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()
	if err := v.BindEnv(KeyTelegramToken, EnvPrefix+"_TELEGRAM_TOKEN", LegacyTokenEnv); err != nil {
		return nil, err
	}

	settings := NewSettings(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return settings, nil
		}
		return nil, err
	}

	return settings, nil
}

// Validate checks that required values are present
func (s *Settings) Validate() error {
	if s.GetTelegramToken() == "" {
		return ErrMissingToken
	}
	return nil
}

// GetTelegramToken returns the bot credential
func (s *Settings) GetTelegramToken() string {
	return strings.TrimSpace(s.v.GetString(KeyTelegramToken))
}

// GetTempDir returns the directory holding job artifacts
func (s *Settings) GetTempDir() string {
	dir := s.v.GetString(KeyTempDir)
	if dir == "" {
		return Defaults[KeyTempDir].(string)
	}
	return dir
}

// GetMaxSizeMB returns the size ceiling in megabytes
func (s *Settings) GetMaxSizeMB() int {
	return clamp(s.v.GetInt(KeyMaxSizeMB), MinMaxSizeMB, MaxMaxSizeMB)
}

// SetMaxSizeMB sets the size ceiling in megabytes
func (s *Settings) SetMaxSizeMB(mb int) {
	s.v.Set(KeyMaxSizeMB, clamp(mb, MinMaxSizeMB, MaxMaxSizeMB))
}

// GetMaxSizeBytes returns the size ceiling in bytes
func (s *Settings) GetMaxSizeBytes() int64 {
	return int64(s.GetMaxSizeMB()) * BytesPerMegabyte
}

// GetAudioFormat returns the target audio codec
func (s *Settings) GetAudioFormat() string {
	format := strings.ToLower(strings.TrimSpace(s.v.GetString(KeyAudioFormat)))
	if format == "" {
		return DefaultAudioFormat
	}
	return format
}

// GetAudioQuality returns the target bitrate in kbps
func (s *Settings) GetAudioQuality() int {
	quality := s.v.GetInt(KeyAudioQuality)
	if quality <= 0 {
		return DefaultAudioQuality
	}
	return clamp(quality, MinAudioQuality, MaxAudioQuality)
}

// GetDownloadTimeout returns the upper bound for one job attempt
func (s *Settings) GetDownloadTimeout() time.Duration {
	return positiveDuration(s.v.GetDuration(KeyDownloadTimeout), DefaultDownloadTimeout)
}

// GetMaxParallel returns the maximum number of simultaneous transcodes
func (s *Settings) GetMaxParallel() int {
	value := s.v.GetInt(KeyMaxParallel)
	if value <= 0 {
		return DefaultMaxParallel
	}
	return clamp(value, MinParallel, MaxParallel)
}

// SetMaxParallel sets the maximum number of simultaneous transcodes
func (s *Settings) SetMaxParallel(count int) {
	s.v.Set(KeyMaxParallel, clamp(count, MinParallel, MaxParallel))
}

// GetRetries returns how many times a transient job failure is retried
func (s *Settings) GetRetries() int {
	return clamp(s.v.GetInt(KeyRetries), 0, MaxRetries)
}

// GetBackoff returns the initial wait between job retries
func (s *Settings) GetBackoff() time.Duration {
	return positiveDuration(s.v.GetDuration(KeyBackoff), DefaultBackoff)
}

// GetFailureRetention returns how long artifacts of a failed job are kept
func (s *Settings) GetFailureRetention() time.Duration {
	return positiveDuration(s.v.GetDuration(KeyFailureRetention), DefaultFailureRetention)
}

// GetCookiesFile returns the optional cookies.txt path
func (s *Settings) GetCookiesFile() string {
	return s.v.GetString(KeyCookiesFile)
}

// GetProxy returns the optional proxy URL
func (s *Settings) GetProxy() string {
	return s.v.GetString(KeyProxy)
}

// GetSocketTimeout returns the per-request network timeout for yt-dlp
func (s *Settings) GetSocketTimeout() time.Duration {
	return positiveDuration(s.v.GetDuration(KeySocketTimeout), DefaultSocketTimeout)
}

// GetProgressInterval returns the minimum spacing of progress events
func (s *Settings) GetProgressInterval() time.Duration {
	return positiveDuration(s.v.GetDuration(KeyProgressInterval), DefaultProgressInterval)
}

// GetProgressMinDelta returns the percent jump that bypasses the interval
func (s *Settings) GetProgressMinDelta() int {
	delta := s.v.GetInt(KeyProgressMinDelta)
	if delta <= 0 {
		return DefaultProgressMinDelta
	}
	return clamp(delta, 1, 100)
}

// GetCoverSize returns the side of the square cover image in pixels
func (s *Settings) GetCoverSize() int {
	size := s.v.GetInt(KeyCoverSize)
	if size <= 0 {
		return DefaultCoverSize
	}
	return clamp(size, MinCoverSize, MaxCoverSize)
}

// GetSearchMaxResults returns the maximum number of search results kept
func (s *Settings) GetSearchMaxResults() int {
	value := s.v.GetInt(KeySearchMaxResults)
	if value <= 0 {
		return DefaultSearchMaxResults
	}
	return clamp(value, 1, MaxSearchResults)
}

// GetSearchPageSize returns how many results are shown per page
func (s *Settings) GetSearchPageSize() int {
	value := s.v.GetInt(KeySearchPageSize)
	if value <= 0 {
		return DefaultSearchPageSize
	}
	return value
}

// GetSessionTTL returns the validity window of a search session
func (s *Settings) GetSessionTTL() time.Duration {
	return positiveDuration(s.v.GetDuration(KeySessionTTL), DefaultSessionTTL)
}

// GetRedisURL returns the session store URL, empty for in-memory sessions
func (s *Settings) GetRedisURL() string {
	return s.v.GetString(KeySessionRedisURL)
}

// GetCleanupInterval returns how often the temp dir is swept
func (s *Settings) GetCleanupInterval() time.Duration {
	return positiveDuration(s.v.GetDuration(KeyCleanupInterval), DefaultCleanupInterval)
}

// GetCleanupMaxAge returns the age after which stray temp files are removed
func (s *Settings) GetCleanupMaxAge() time.Duration {
	return positiveDuration(s.v.GetDuration(KeyCleanupMaxAge), DefaultCleanupMaxAge)
}

// GetLanguage returns the language of user-facing messages
func (s *Settings) GetLanguage() string {
	lang := s.v.GetString(KeyLanguage)
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

// GetLogLevel returns the configured log level name
func (s *Settings) GetLogLevel() string {
	level := s.v.GetString(KeyLogLevel)
	if level == "" {
		return DefaultLogLevel
	}
	return level
}

// GetLogJSON returns whether logs are written as JSON
func (s *Settings) GetLogJSON() bool {
	return s.v.GetBool(KeyLogJSON)
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func positiveDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
