package main

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-audio-bot/internal/bot"
	"github.com/ytget/yt-audio-bot/internal/config"
	"github.com/ytget/yt-audio-bot/internal/cover"
	"github.com/ytget/yt-audio-bot/internal/download"
	"github.com/ytget/yt-audio-bot/internal/extract"
	"github.com/ytget/yt-audio-bot/internal/i18n"
	"github.com/ytget/yt-audio-bot/internal/platform"
	"github.com/ytget/yt-audio-bot/internal/search"
	"github.com/ytget/yt-audio-bot/internal/session"
)

// Long polling timeout in seconds
const UpdateTimeout = 60

// RequiredTools are the external binaries jobs invoke
var RequiredTools = []string{"yt-dlp", "ffmpeg"}

// run builds the object graph and serves updates until ctx is done
func run(ctx context.Context, settings *config.Settings, log *logrus.Logger) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	checkTools(log)

	tempDir := settings.GetTempDir()
	if err := platform.CreateDirectoryIfNotExists(tempDir); err != nil {
		return fmt.Errorf("failed to create temp directory %s: %w", tempDir, err)
	}

	ytdlp := platform.NewYTDLPService(settings.GetCookiesFile(), settings.GetProxy())
	ytdlp.SetSocketTimeout(settings.GetSocketTimeout())

	engine := newEngine(settings, ytdlp, log)
	searcher := search.NewService(ytdlp, settings.GetSearchMaxResults(), log)

	sessions, closeSessions, err := newSessionStore(ctx, settings, log)
	if err != nil {
		return err
	}
	defer closeSessions()

	api, err := tgbotapi.NewBotAPI(settings.GetTelegramToken())
	if err != nil {
		return fmt.Errorf("failed to authorize bot: %w", err)
	}
	log.Infof("Authorized as @%s", api.Self.UserName)

	messenger := bot.NewTelegramMessenger(api, log)
	b := bot.New(messenger, engine, searcher, sessions, i18n.NewLocalization(settings.GetLanguage()), bot.Options{
		MaxSizeMB: settings.GetMaxSizeMB(),
		PageSize:  settings.GetSearchPageSize(),
	}, log)

	go sweep(ctx, tempDir, settings.GetCleanupInterval(), settings.GetCleanupMaxAge(), sessions, log)

	err = b.Run(ctx, messenger.Updates(ctx, UpdateTimeout))
	log.WithField("active_jobs", engine.ActiveCount()).Info("Stopped")
	return err
}

// newEngine wires the extractor, yt-dlp gateway and cover service into the engine
func newEngine(settings *config.Settings, ytdlp *platform.YTDLPService, log logrus.FieldLogger) *download.Service {
	extractor := extract.NewExtractor(ytdlp, nil, log)
	covers := cover.NewService(settings.GetCoverSize(), log)

	retry := download.DefaultRetryConfig
	retry.MaxRetries = settings.GetRetries()
	retry.InitialWait = settings.GetBackoff()

	return download.NewService(download.Options{
		TempDir:          settings.GetTempDir(),
		AudioFormat:      settings.GetAudioFormat(),
		AudioQuality:     settings.GetAudioQuality(),
		MaxSizeBytes:     settings.GetMaxSizeBytes(),
		MaxParallel:      settings.GetMaxParallel(),
		Retry:            retry,
		JobTimeout:       settings.GetDownloadTimeout(),
		FailureRetention: settings.GetFailureRetention(),
		ProgressInterval: settings.GetProgressInterval(),
		ProgressMinDelta: settings.GetProgressMinDelta(),
	}, extractor, ytdlp, covers, log)
}

// newSessionStore returns the Redis store when a URL is configured and the
// in-memory store otherwise
func newSessionStore(ctx context.Context, settings *config.Settings, log logrus.FieldLogger) (session.Store, func(), error) {
	redisURL := settings.GetRedisURL()
	if redisURL == "" {
		log.Info("Using in-memory session store")
		return session.NewMemoryStore(settings.GetSessionTTL()), func() {}, nil
	}

	client, err := session.DialRedis(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using Redis session store")
	return session.NewRedisStore(client, settings.GetSessionTTL()), func() { client.Close() }, nil
}

// sweep periodically removes stale temp files and expired in-memory sessions
func sweep(ctx context.Context, dir string, interval, maxAge time.Duration, sessions session.Store, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := platform.SweepStale(dir, maxAge, now)
			if err != nil {
				log.Warnf("Temp sweep failed: %v", err)
			}
			if removed > 0 {
				log.Infof("Removed %d stale temp files", removed)
			}
			if memory, ok := sessions.(*session.MemoryStore); ok {
				if expired := memory.Sweep(); expired > 0 {
					log.Debugf("Dropped %d expired sessions", expired)
				}
			}
		}
	}
}

// checkTools warns about missing external binaries
func checkTools(log logrus.FieldLogger) {
	for _, tool := range RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			log.Warnf("%s not found in PATH, jobs will fail", tool)
		}
	}
}
