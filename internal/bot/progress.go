package bot

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-audio-bot/internal/i18n"
	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
)

// Cosmetic progress settings
const (
	TickerInterval = 2 * time.Second
	TickerStep     = 10
	TickerMax      = 90
)

// ProgressEditor renders job progress into one status message. Edits that
// would not change the text are skipped. Once finished it ignores updates.
type ProgressEditor struct {
	messenger Messenger
	l         *i18n.Localization
	log       logrus.FieldLogger
	chatID    int64
	messageID int
	interval  time.Duration

	mu       sync.Mutex
	title    string
	lastText string
	shown    int
	stopTick chan struct{}
	ticked   bool
	finished bool
}

// NewProgressEditor creates an editor for an already sent status message
func NewProgressEditor(messenger Messenger, l *i18n.Localization, log logrus.FieldLogger, chatID int64, messageID int, title string) *ProgressEditor {
	return &ProgressEditor{
		messenger: messenger,
		l:         l,
		log:       logging.OrDiscard(log),
		chatID:    chatID,
		messageID: messageID,
		interval:  TickerInterval,
		title:     title,
	}
}

// MessageID returns the status message id
func (p *ProgressEditor) MessageID() int {
	return p.messageID
}

// OnProgress renders one engine event
func (p *ProgressEditor) OnProgress(event model.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	if event.Title != "" {
		p.title = event.Title
	}

	switch event.Status {
	case model.JobStatusExtracting:
		p.editLocked(p.l.GetText(i18n.KeyExtracting))
	case model.JobStatusDownloading:
		if event.Percent <= 0 {
			p.startTickerLocked()
			p.editLocked(p.downloadingText(p.shown))
			return
		}
		p.stopTickerLocked()
		if event.Percent > p.shown {
			p.shown = event.Percent
		}
		p.editLocked(p.downloadingText(p.shown))
	case model.JobStatusTranscoding, model.JobStatusEmbedding:
		p.stopTickerLocked()
		p.editLocked(p.l.GetText(i18n.KeyTranscoding))
	}
}

// Uploading switches the message to the upload phase
func (p *ProgressEditor) Uploading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.stopTickerLocked()
	p.editLocked(p.l.GetText(i18n.KeyUploading))
}

// Finish writes the final text and stops all further edits
func (p *ProgressEditor) Finish(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.stopTickerLocked()
	p.editLocked(text)
	p.finished = true
}

// Close stops the ticker and deletes the status message
func (p *ProgressEditor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
	p.finished = true
	if err := p.messenger.Delete(p.chatID, p.messageID); err != nil {
		p.log.Debugf("Failed to delete status message: %v", err)
	}
}

func (p *ProgressEditor) downloadingText(percent int) string {
	return p.l.Format(i18n.KeyDownloading, p.title, percent)
}

func (p *ProgressEditor) editLocked(text string) {
	if text == p.lastText {
		return
	}
	if err := p.messenger.Edit(p.chatID, p.messageID, text, nil); err != nil {
		p.log.Debugf("Failed to edit status message: %v", err)
		return
	}
	p.lastText = text
}

// startTickerLocked advances a simulated percentage until real progress
// arrives. It only touches the message. It runs at most once per editor.
func (p *ProgressEditor) startTickerLocked() {
	if p.ticked {
		return
	}
	p.ticked = true
	stop := make(chan struct{})
	p.stopTick = stop

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.mu.Lock()
				if p.finished || p.stopTick != stop {
					p.mu.Unlock()
					return
				}
				if p.shown+TickerStep > TickerMax {
					p.mu.Unlock()
					continue
				}
				p.shown += TickerStep
				p.editLocked(p.downloadingText(p.shown))
				p.mu.Unlock()
			}
		}
	}()
}

func (p *ProgressEditor) stopTickerLocked() {
	if p.stopTick == nil {
		return
	}
	close(p.stopTick)
	p.stopTick = nil
}
