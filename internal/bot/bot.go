// Package bot turns chat updates into searches and audio jobs and reports
// their outcome back to the chat.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-audio-bot/internal/i18n"
	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/platform"
	"github.com/ytget/yt-audio-bot/internal/session"
)

// Commands
const (
	CommandStart = "start"
	CommandHelp  = "help"
)

// Jobs runs acquisition jobs
type Jobs interface {
	Run(ctx context.Context, source string, onProgress func(model.Progress)) (*model.AudioArtifact, error)
	Release(artifact *model.AudioArtifact) error
}

// Searcher runs catalog searches
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Options configures the bot
type Options struct {
	MaxSizeMB int
	PageSize  int
}

// Bot dispatches updates. Every handler that waits on the network runs in
// its own goroutine so the update loop never blocks on a job.
type Bot struct {
	messenger Messenger
	jobs      Jobs
	searcher  Searcher
	sessions  session.Store
	l         *i18n.Localization
	opts      Options
	log       logrus.FieldLogger

	wg sync.WaitGroup
}

// New creates a bot
func New(messenger Messenger, jobs Jobs, searcher Searcher, sessions session.Store, l *i18n.Localization, opts Options, log logrus.FieldLogger) *Bot {
	if opts.PageSize <= 0 {
		opts.PageSize = session.DefaultPageSize
	}
	return &Bot{
		messenger: messenger,
		jobs:      jobs,
		searcher:  searcher,
		sessions:  sessions,
		l:         l,
		opts:      opts,
		log:       logging.OrDiscard(log),
	}
}

// Run dispatches updates until ctx is done or updates is closed, then waits
// for in-flight handlers. Jobs are not cancelled by ctx; they run to
// completion or to their own timeout.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			b.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.Wait()
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// Wait blocks until all running handlers returned
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate dispatches a single update without waiting for its work
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	work := context.WithoutCancel(ctx)
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(work, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(work, update.Message)
	}
}

// spawn runs fn in a tracked goroutine
func (b *Bot) spawn(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Errorf("Handler panic: %v", r)
			}
		}()
		fn()
	}()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	log := b.log.WithField(logging.FieldUser, msg.From.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case CommandStart:
			b.sendMarkdown(chatID, b.l.Format(i18n.KeyWelcome, b.opts.MaxSizeMB))
		case CommandHelp:
			b.sendMarkdown(chatID, b.l.Format(i18n.KeyHelp, b.opts.MaxSizeMB))
		default:
			log.Debugf("Ignoring command /%s", msg.Command())
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if link, ok := platform.FindVideoURL(text); ok {
		log.Infof("Link request: %s", link)
		b.spawn(func() {
			messageID, err := b.messenger.Send(chatID, b.l.GetText(i18n.KeyProcessing), false, nil)
			if err != nil {
				log.Errorf("Failed to send status message: %v", err)
				return
			}
			b.deliver(ctx, chatID, messageID, link, "", log)
		})
		return
	}

	if containsYouTubeLink(text) {
		b.send(chatID, b.l.GetText(i18n.KeyInvalidURL))
		return
	}

	user := msg.From.ID
	b.spawn(func() {
		b.search(ctx, chatID, user, text, log)
	})
}

// search runs a query and shows the first page of results
func (b *Bot) search(ctx context.Context, chatID, user int64, query string, log logrus.FieldLogger) {
	if err := b.messenger.Typing(chatID); err != nil {
		log.Debugf("Failed to send typing action: %v", err)
	}
	messageID, err := b.messenger.Send(chatID, b.l.GetText(i18n.KeySearching), false, nil)
	if err != nil {
		log.Errorf("Failed to send status message: %v", err)
		return
	}

	results, err := b.searcher.Search(ctx, query)
	if err != nil {
		log.Errorf("Search for %q failed: %v", query, err)
		b.edit(chatID, messageID, b.errorText(err, query), nil)
		return
	}
	if len(results) == 0 {
		b.edit(chatID, messageID, b.l.GetText(i18n.KeyNoResults), nil)
		return
	}

	sess, err := b.sessions.Put(ctx, user, query, results)
	if err != nil {
		log.Errorf("Failed to store session: %v", err)
		b.edit(chatID, messageID, b.l.GetText(i18n.KeyGeneralError), nil)
		return
	}

	log.Infof("Search %q returned %d results", query, len(results))
	b.showPage(chatID, messageID, sess, 0)
}

// showPage renders page number of sess into messageID
func (b *Bot) showPage(chatID int64, messageID int, sess *session.Session, number int) {
	page := session.Paginate(sess.Results, number, b.opts.PageSize)
	header := b.l.Format(i18n.KeySearchResults, sess.Query, len(sess.Results), page.Number+1, page.Count)
	keyboard := ResultsKeyboard(page, sess.User, sess.Token)
	b.edit(chatID, messageID, ResultsText(header, page), &keyboard)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil || query.Message.Chat == nil {
		return
	}
	presser := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	log := b.log.WithField(logging.FieldUser, presser)

	cb, err := ParseCallback(query.Data)
	if err != nil {
		log.Warnf("Rejected callback: %v", err)
		b.answer(query.ID, b.l.GetText(i18n.KeyGeneralError), true)
		return
	}
	if cb.Kind == CallbackNoop {
		b.answer(query.ID, "", false)
		return
	}
	if cb.User != presser {
		b.answer(query.ID, b.l.GetText(i18n.KeyWrongUser), true)
		return
	}

	b.spawn(func() {
		sess, err := b.sessions.Validate(ctx, presser, cb.Token)
		if err != nil {
			log.Infof("Stale button: %v", err)
			text := b.errorText(err, "")
			b.answer(query.ID, text, true)
			if errors.Is(err, session.ErrSessionExpired) {
				b.edit(chatID, messageID, text, nil)
			}
			return
		}

		switch cb.Kind {
		case CallbackPage:
			b.answer(query.ID, "", false)
			b.showPage(chatID, messageID, sess, cb.Value)
		case CallbackSong:
			result, ok := sess.Result(cb.Value)
			if !ok {
				b.answer(query.ID, b.l.GetText(i18n.KeySessionExpired), true)
				return
			}
			b.answer(query.ID, "", false)
			source := result.URL
			if source == "" || !platform.IsYouTubeURL(source) {
				source = platform.VideoURL(result.ID)
			}
			log.Infof("Song selected: %s", result.Title)
			if b.deliver(ctx, chatID, messageID, source, result.Title, log) {
				if err := b.sessions.Clear(ctx, presser); err != nil {
					log.Warnf("Failed to clear session: %v", err)
				}
			}
		}
	})
}

// deliver runs a job for source and reports through the status message.
// It reports whether the audio reached the chat.
func (b *Bot) deliver(ctx context.Context, chatID int64, messageID int, source, title string, log logrus.FieldLogger) bool {
	editor := NewProgressEditor(b.messenger, b.l, log, chatID, messageID, title)
	editor.OnProgress(model.Progress{Status: model.JobStatusExtracting, Title: title})

	artifact, err := b.jobs.Run(ctx, source, editor.OnProgress)
	if err != nil {
		log.Errorf("Job for %s failed: %v", source, err)
		if title == "" {
			title = source
		}
		editor.Finish(b.errorText(err, title))
		return false
	}
	defer func() {
		if err := b.jobs.Release(artifact); err != nil {
			log.WithField(logging.FieldJob, artifact.JobToken).Warnf("Failed to release job files: %v", err)
		}
	}()

	editor.Uploading()
	if err := b.messenger.SendAudio(chatID, artifact); err != nil {
		log.WithField(logging.FieldJob, artifact.JobToken).Errorf("Failed to send audio: %v", err)
		editor.Finish(b.l.GetText(i18n.KeyGeneralError))
		return false
	}
	editor.Close()
	return true
}

// errorText returns the one localized message for err
func (b *Bot) errorText(err error, title string) string {
	key := i18n.MessageKeyFor(err)
	switch key {
	case i18n.KeyFileTooLarge:
		return b.l.Format(key, b.opts.MaxSizeMB)
	case i18n.KeyContentUnavailable:
		return b.l.Format(key, title)
	}
	return b.l.GetText(key)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.messenger.Send(chatID, text, false, nil); err != nil {
		b.log.Errorf("Failed to send message: %v", err)
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	if _, err := b.messenger.Send(chatID, text, true, nil); err != nil {
		b.log.Errorf("Failed to send message: %v", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if err := b.messenger.Edit(chatID, messageID, text, keyboard); err != nil {
		b.log.Warnf("Failed to edit message: %v", err)
	}
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	if err := b.messenger.AnswerCallback(callbackID, text, alert); err != nil {
		b.log.Debugf("Failed to answer callback: %v", err)
	}
}

// containsYouTubeLink reports whether text has a YouTube link that carries
// a scheme or a path. A bare "youtube.com" is treated as search text.
func containsYouTubeLink(text string) bool {
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, "<>()[]\"'")
		if !strings.Contains(field, "://") && !strings.Contains(field, "/") {
			continue
		}
		if platform.IsYouTubeURL(field) {
			return true
		}
	}
	return false
}
