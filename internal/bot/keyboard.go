package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/session"
)

// Button labels
const (
	MaxButtonLabelRunes = 60
	Ellipsis            = "…"
	PrevLabel           = "◀"
	NextLabel           = "▶"
	PageIndicatorFormat = "%d/%d"
)

// ButtonLabel renders "N. Title (m:ss)" for the result at index, truncated
// to MaxButtonLabelRunes runes
func ButtonLabel(index int, result model.SearchResult) string {
	label := fmt.Sprintf("%d. %s", index+1, strings.TrimSpace(result.Title))
	if result.Duration > 0 {
		label += fmt.Sprintf(" (%s)", result.GetDurationString())
	}
	return truncateRunes(label, MaxButtonLabelRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + Ellipsis
}

// ResultsKeyboard builds one button per result of page and a navigation row
func ResultsKeyboard(page session.Page, user int64, token string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(page.Items)+1)
	for i, result := range page.Items {
		index := page.Offset + i
		data := Callback{Kind: CallbackSong, User: user, Value: index, Token: token}.Encode()
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonLabel(index, result), data),
		))
	}

	if page.Count > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page.HasPrev() {
			data := Callback{Kind: CallbackPage, User: user, Value: page.Number - 1, Token: token}.Encode()
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(PrevLabel, data))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf(PageIndicatorFormat, page.Number+1, page.Count),
			Callback{Kind: CallbackNoop}.Encode(),
		))
		if page.HasNext() {
			data := Callback{Kind: CallbackPage, User: user, Value: page.Number + 1, Token: token}.Encode()
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(NextLabel, data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ResultsText renders the header and the list of results on page
func ResultsText(header string, page session.Page) string {
	var b strings.Builder
	b.WriteString(header)
	for i, result := range page.Items {
		fmt.Fprintf(&b, "\n%d. %s", page.Offset+i+1, strings.TrimSpace(result.Title))
		if result.Uploader != "" {
			b.WriteString(" · " + result.Uploader)
		}
		if result.Duration > 0 {
			b.WriteString(" (" + result.GetDurationString() + ")")
		}
	}
	return b.String()
}
