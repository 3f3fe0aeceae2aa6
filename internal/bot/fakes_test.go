package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-audio-bot/internal/model"
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Markdown bool
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  *tgbotapi.InlineKeyboardMarkup
}

type callbackAnswer struct {
	ID    string
	Text  string
	Alert bool
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []editedMessage
	deleted []int
	audio   []*model.AudioArtifact
	answers []callbackAnswer
	typing  int
}

func (f *fakeMessenger) Send(chatID int64, text string, markdown bool, _ *tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Markdown: markdown})
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
	return nil
}

func (f *fakeMessenger) Delete(_ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) SendAudio(_ int64, artifact *model.AudioArtifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, artifact)
	return nil
}

func (f *fakeMessenger) Typing(int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return nil
}

func (f *fakeMessenger) AnswerCallback(callbackID, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, callbackAnswer{ID: callbackID, Text: text, Alert: alert})
	return nil
}

func (f *fakeMessenger) lastEdit() editedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return editedMessage{}
	}
	return f.edits[len(f.edits)-1]
}

func (f *fakeMessenger) editTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, len(f.edits))
	for i, e := range f.edits {
		texts[i] = e.Text
	}
	return texts
}

type fakeJobs struct {
	mu       sync.Mutex
	sources  []string
	released []*model.AudioArtifact
	err      error
	events   []model.Progress
}

func (f *fakeJobs) Run(_ context.Context, source string, onProgress func(model.Progress)) (*model.AudioArtifact, error) {
	f.mu.Lock()
	f.sources = append(f.sources, source)
	events, err := f.events, f.err
	f.mu.Unlock()

	for _, event := range events {
		onProgress(event)
	}
	if err != nil {
		return nil, err
	}
	return &model.AudioArtifact{JobToken: "job-1", Path: "/tmp/job-1.mp3", Title: "Song", Performer: "Artist", Duration: 200}, nil
}

func (f *fakeJobs) Release(artifact *model.AudioArtifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, artifact)
	return nil
}

type fakeSearcher struct {
	mu      sync.Mutex
	results []model.SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func makeResults(n int) []model.SearchResult {
	results := make([]model.SearchResult, n)
	for i := range results {
		id := fmt.Sprintf("video%06d", i)
		results[i] = model.SearchResult{ID: id, Title: fmt.Sprintf("Song %d", i), URL: "https://www.youtube.com/watch?v=" + id, Duration: 185}
	}
	return results
}
