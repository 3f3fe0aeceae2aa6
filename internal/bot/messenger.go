package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
)

// NotModifiedError is the API reply for an edit that changes nothing
const NotModifiedError = "message is not modified"

// Messenger is the chat transport the bot talks through
type Messenger interface {
	Send(chatID int64, text string, markdown bool, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error)
	Edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	Delete(chatID int64, messageID int) error
	SendAudio(chatID int64, artifact *model.AudioArtifact) error
	Typing(chatID int64) error
	AnswerCallback(callbackID, text string, alert bool) error
}

// TelegramMessenger implements Messenger with the Telegram Bot API
type TelegramMessenger struct {
	api *tgbotapi.BotAPI
	log logrus.FieldLogger
}

// NewTelegramMessenger wraps an authorized bot API client
func NewTelegramMessenger(api *tgbotapi.BotAPI, log logrus.FieldLogger) *TelegramMessenger {
	return &TelegramMessenger{api: api, log: logging.OrDiscard(log)}
}

// Send sends a text message and returns its id
func (t *TelegramMessenger) Send(chatID int64, text string, markdown bool, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// Edit replaces the text of a message. A nil keyboard removes the buttons.
func (t *TelegramMessenger) Edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if keyboard != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *keyboard)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	_, err := t.api.Request(edit)
	if err != nil && strings.Contains(err.Error(), NotModifiedError) {
		return nil
	}
	return err
}

// Delete removes a message
func (t *TelegramMessenger) Delete(chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// SendAudio uploads the artifact with its display title, performer,
// duration and cover
func (t *TelegramMessenger) SendAudio(chatID int64, artifact *model.AudioArtifact) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(artifact.Path))
	audio.Title = artifact.Title
	audio.Performer = artifact.Performer
	audio.Duration = artifact.Duration
	if artifact.HasThumbnail() {
		audio.Thumb = tgbotapi.FilePath(artifact.ThumbnailPath)
	}
	_, err := t.api.Send(audio)
	return err
}

// Typing shows the typing indicator in chatID
func (t *TelegramMessenger) Typing(chatID int64) error {
	_, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// AnswerCallback acknowledges a button press, optionally as an alert
func (t *TelegramMessenger) AnswerCallback(callbackID, text string, alert bool) error {
	answer := tgbotapi.NewCallback(callbackID, text)
	answer.ShowAlert = alert
	_, err := t.api.Request(answer)
	return err
}

// Updates starts long polling and returns the update stream. Polling stops
// when ctx is done.
func (t *TelegramMessenger) Updates(ctx context.Context, timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := t.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		t.log.Debug("Stopping update polling")
		t.api.StopReceivingUpdates()
	}()
	return updates
}
