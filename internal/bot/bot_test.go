package bot

import (
	"context"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-audio-bot/internal/i18n"
	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/session"
)

const (
	testUser = int64(1001)
	testChat = int64(2002)
)

type harness struct {
	bot       *Bot
	messenger *fakeMessenger
	jobs      *fakeJobs
	searcher  *fakeSearcher
	sessions  *session.MemoryStore
	l         *i18n.Localization
}

func newHarness() *harness {
	h := &harness{
		messenger: &fakeMessenger{},
		jobs:      &fakeJobs{},
		searcher:  &fakeSearcher{results: makeResults(24)},
		sessions:  session.NewMemoryStore(0),
		l:         i18n.NewLocalization(i18n.LangEnglish),
	}
	h.bot = New(h.messenger, h.jobs, h.searcher, h.sessions, h.l, Options{MaxSizeMB: 45, PageSize: 8}, nil)
	return h
}

func (h *harness) message(text string) {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUser},
		Chat:      &tgbotapi.Chat{ID: testChat},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
	h.bot.Wait()
}

func (h *harness) press(from int64, messageID int, data string) {
	query := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: query})
	h.bot.Wait()
}

func TestStartAndHelpCommands(t *testing.T) {
	h := newHarness()

	h.message("/start")
	h.message("/help")

	require.Len(t, h.messenger.sent, 2)
	assert.True(t, h.messenger.sent[0].Markdown)
	assert.Equal(t, h.l.Format(i18n.KeyWelcome, 45), h.messenger.sent[0].Text)
	assert.Equal(t, h.l.Format(i18n.KeyHelp, 45), h.messenger.sent[1].Text)
}

func TestLinkMessageDeliversAudio(t *testing.T) {
	h := newHarness()
	h.jobs.events = []model.Progress{
		{Status: model.JobStatusDownloading, Percent: 50, Title: "Song"},
		{Status: model.JobStatusTranscoding, Percent: 99},
	}

	h.message("listen https://youtu.be/dQw4w9WgXcQ?si=tracking")

	assert.Equal(t, []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, h.jobs.sources)
	require.Len(t, h.messenger.audio, 1)
	assert.Equal(t, "Song", h.messenger.audio[0].Title)
	assert.Len(t, h.jobs.released, 1, "job files are released after delivery")
	assert.Equal(t, []int{1}, h.messenger.deleted, "status message is deleted")
	assert.Contains(t, h.messenger.editTexts(), "📥 Downloading: Song (50%)")
}

func TestInvalidYouTubeLink(t *testing.T) {
	h := newHarness()

	h.message("https://www.youtube.com/watch?v=bad")

	require.Len(t, h.messenger.sent, 1)
	assert.Equal(t, h.l.GetText(i18n.KeyInvalidURL), h.messenger.sent[0].Text)
	assert.Empty(t, h.jobs.sources)
}

func TestBareDomainIsSearched(t *testing.T) {
	h := newHarness()

	h.message("youtube.com tutorial")

	assert.Equal(t, []string{"youtube.com tutorial"}, h.searcher.queries)
	assert.Empty(t, h.jobs.sources)
	for _, sent := range h.messenger.sent {
		assert.NotEqual(t, h.l.GetText(i18n.KeyInvalidURL), sent.Text)
	}
}

func TestContainsYouTubeLink(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"https://www.youtube.com/watch?v=bad", true},
		{"youtube.com/watch?v=bad", true},
		{"see (youtu.be/short)", true},
		{"youtube.com tutorial", false},
		{"how to use youtu.be", false},
		{"lofi beats", false},
	}

	for _, test := range tests {
		if result := containsYouTubeLink(test.text); result != test.expected {
			t.Errorf("containsYouTubeLink(%q) = %v, expected %v", test.text, result, test.expected)
		}
	}
}

func TestSearchShowsFirstPage(t *testing.T) {
	h := newHarness()

	h.message("lofi beats")

	assert.Equal(t, 1, h.messenger.typing)
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Len(t, sess.Results, 24)

	edit := h.messenger.lastEdit()
	require.NotNil(t, edit.Keyboard)
	assert.Len(t, edit.Keyboard.InlineKeyboard, 9)
	assert.Contains(t, edit.Text, "Page 1/3")
	assert.Equal(t, fmt.Sprintf("s|%d|0|%s", testUser, sess.Token), *edit.Keyboard.InlineKeyboard[0][0].CallbackData)
}

func TestSearchWithoutResults(t *testing.T) {
	h := newHarness()
	h.searcher.results = nil

	h.message("nothing matches")

	assert.Equal(t, h.l.GetText(i18n.KeyNoResults), h.messenger.lastEdit().Text)
	_, err := h.sessions.Get(context.Background(), testUser)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestPageCallbackEditsInPlace(t *testing.T) {
	h := newHarness()
	h.message("lofi")
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)

	h.press(testUser, 7, Callback{Kind: CallbackPage, User: testUser, Value: 2, Token: sess.Token}.Encode())

	edit := h.messenger.lastEdit()
	assert.Equal(t, 7, edit.MessageID)
	assert.Contains(t, edit.Text, "Page 3/3")
	require.NotNil(t, edit.Keyboard)
	assert.Equal(t, fmt.Sprintf("s|%d|16|%s", testUser, sess.Token), *edit.Keyboard.InlineKeyboard[0][0].CallbackData)
}

func TestSongCallbackRunsJobAndClearsSession(t *testing.T) {
	h := newHarness()
	h.message("lofi")
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)

	h.press(testUser, 7, Callback{Kind: CallbackSong, User: testUser, Value: 3, Token: sess.Token}.Encode())

	assert.Equal(t, []string{sess.Results[3].URL}, h.jobs.sources)
	assert.Len(t, h.messenger.audio, 1)
	_, err = h.sessions.Get(context.Background(), testUser)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSupersededCallbackRejected(t *testing.T) {
	h := newHarness()
	h.message("first")
	old, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)
	h.message("second")

	h.press(testUser, 7, Callback{Kind: CallbackSong, User: testUser, Value: 0, Token: old.Token}.Encode())

	assert.Empty(t, h.jobs.sources)
	require.NotEmpty(t, h.messenger.answers)
	last := h.messenger.answers[len(h.messenger.answers)-1]
	assert.True(t, last.Alert)
	assert.Equal(t, h.l.GetText(i18n.KeySessionSuperseded), last.Text)
}

func TestWrongUserCallbackRejected(t *testing.T) {
	h := newHarness()
	h.message("lofi")
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)

	h.press(testUser+1, 7, Callback{Kind: CallbackSong, User: testUser, Value: 0, Token: sess.Token}.Encode())

	assert.Empty(t, h.jobs.sources)
	require.Len(t, h.messenger.answers, 1)
	assert.Equal(t, h.l.GetText(i18n.KeyWrongUser), h.messenger.answers[0].Text)
}

func TestFailedJobShowsOneLocalizedMessage(t *testing.T) {
	h := newHarness()
	h.jobs.err = fmt.Errorf("%w: private video", model.ErrNotFound)
	h.message("lofi")
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)

	h.press(testUser, 7, Callback{Kind: CallbackSong, User: testUser, Value: 1, Token: sess.Token}.Encode())

	assert.Empty(t, h.messenger.audio)
	assert.Equal(t, h.l.Format(i18n.KeyContentUnavailable, "Song 1"), h.messenger.lastEdit().Text)
	_, err = h.sessions.Get(context.Background(), testUser)
	assert.NoError(t, err, "session survives a failed download")
}

func TestTooLargeMessageCarriesLimit(t *testing.T) {
	h := newHarness()
	h.jobs.err = fmt.Errorf("%w: estimated", model.ErrTooLarge)

	h.message("https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	assert.Equal(t, h.l.Format(i18n.KeyFileTooLarge, 45), h.messenger.lastEdit().Text)
}

func TestRunStopsWhenUpdatesClose(t *testing.T) {
	h := newHarness()
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUser},
		Chat:      &tgbotapi.Chat{ID: testChat},
		Text:      "lofi",
	}}
	close(updates)

	require.NoError(t, h.bot.Run(context.Background(), updates))
	assert.Equal(t, 1, h.messenger.typing)
}
