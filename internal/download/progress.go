package download

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytget/yt-audio-bot/internal/model"
)

// Progress delivery settings
const (
	DefaultProgressInterval = time.Second
	DefaultProgressMinDelta = 5
	ProgressBufferSize      = 16
	MaxDownloadPercent      = 99
)

// tracker moves progress from the transfer worker to the job consumer.
// Intermediate events are throttled and dropped when the consumer lags.
// The download-complete signal is a closed channel and cannot be lost.
type tracker struct {
	updates    chan model.Progress
	downloaded chan struct{}
	once       sync.Once
	limiter    *rate.Limiter
	minDelta   int

	mu          sync.Mutex
	lastPercent int
}

func newTracker(interval time.Duration, minDelta int) *tracker {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if minDelta <= 0 {
		minDelta = DefaultProgressMinDelta
	}
	return &tracker{
		updates:    make(chan model.Progress, ProgressBufferSize),
		downloaded: make(chan struct{}),
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		minDelta:   minDelta,
	}
}

// phase emits a phase change, bypassing the throttle
func (t *tracker) phase(p model.Progress) {
	t.mu.Lock()
	if p.Percent > t.lastPercent {
		t.lastPercent = p.Percent
	}
	t.mu.Unlock()
	t.send(p)
}

// progress emits a download percentage if it grew and either the interval
// elapsed or it jumped by at least minDelta points
func (t *tracker) progress(p model.Progress) {
	t.mu.Lock()
	if p.Percent <= t.lastPercent {
		t.mu.Unlock()
		return
	}
	if p.Percent-t.lastPercent < t.minDelta && !t.limiter.Allow() {
		t.mu.Unlock()
		return
	}
	t.lastPercent = p.Percent
	t.mu.Unlock()
	t.send(p)
}

// send never blocks the worker
func (t *tracker) send(p model.Progress) {
	select {
	case t.updates <- p:
	default:
	}
}

// markDownloaded fires the download-complete signal. Only the first call has
// an effect; it reports whether this call fired it.
func (t *tracker) markDownloaded() bool {
	fired := false
	t.once.Do(func() {
		close(t.downloaded)
		fired = true
	})
	return fired
}

// downloadPercent converts byte counts to a percentage held below 100
// until the transcoder output exists
func downloadPercent(downloaded, total int64) int {
	if total <= 0 || downloaded <= 0 {
		return 0
	}
	percent := int(downloaded * 100 / total)
	if percent > MaxDownloadPercent {
		percent = MaxDownloadPercent
	}
	return percent
}
