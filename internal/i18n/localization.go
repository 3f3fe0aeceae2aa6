// Package i18n holds the user-facing texts of the bot
package i18n

import (
	"errors"
	"fmt"

	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/session"
)

// Languages
const (
	LangAzerbaijani = "az"
	LangEnglish     = "en"
	LangRussian     = "ru"
	DefaultLanguage = LangAzerbaijani
)

// Text keys for localization
const (
	KeyWelcome            = "welcome"
	KeyHelp               = "help"
	KeyInvalidURL         = "invalid_url"
	KeyProcessing         = "processing"
	KeySearching          = "searching"
	KeyNoResults          = "no_results"
	KeySearchResults      = "search_results"
	KeyExtracting         = "extracting"
	KeyDownloading        = "downloading"
	KeyTranscoding        = "transcoding"
	KeyUploading          = "uploading"
	KeyUploaded           = "uploaded"
	KeySessionExpired     = "session_expired"
	KeySessionSuperseded  = "session_superseded"
	KeyContentUnavailable = "content_unavailable"
	KeyFileTooLarge       = "file_too_large"
	KeyNetworkError       = "network_error"
	KeyConversionFailed   = "conversion_failed"
	KeyDownloadFailed     = "download_failed"
	KeyGeneralError       = "general_error"
	KeyWrongUser          = "wrong_user"
)

// Localization manages bot text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// NewLocalization creates a localization manager set to lang, or to the
// default language when lang is unknown
func NewLocalization(lang string) *Localization {
	l := &Localization{
		currentLanguage: DefaultLanguage,
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	l.SetLanguage(lang)
	return l
}

// SetLanguage sets the current language if it is available
func (l *Localization) SetLanguage(lang string) {
	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to the default language
	if texts, exists := l.texts[DefaultLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// Format returns the localized text for key with args substituted
func (l *Localization) Format(key string, args ...any) string {
	return fmt.Sprintf(l.GetText(key), args...)
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		LangAzerbaijani: "Azərbaycan",
		LangEnglish:     "English",
		LangRussian:     "Русский",
	}
}

// MessageKeyFor maps an error to the one message shown to the user
func MessageKeyFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrTooLarge):
		return KeyFileTooLarge
	case errors.Is(err, model.ErrExtractionBlocked), errors.Is(err, model.ErrNotFound):
		return KeyContentUnavailable
	case errors.Is(err, model.ErrNetwork):
		return KeyNetworkError
	case errors.Is(err, model.ErrConversionFailed):
		return KeyConversionFailed
	case errors.Is(err, model.ErrDownloadFailed):
		return KeyDownloadFailed
	case errors.Is(err, model.ErrInvalidSource):
		return KeyInvalidURL
	case errors.Is(err, session.ErrSessionSuperseded):
		return KeySessionSuperseded
	case errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrNoSession):
		return KeySessionExpired
	}
	return KeyGeneralError
}

// initializeTexts initializes all text translations. Texts with format verbs take
// arguments: welcome, help and file_too_large the size limit in MB;
// search_results the query, count, page and page count; downloading the
// title and percent; content_unavailable the title.
func (l *Localization) initializeTexts() {
	// Azerbaijani texts
	l.texts[LangAzerbaijani] = map[string]string{
		KeyWelcome: "🎵 *YouTube-dan MP3 Çevirici Bot* 🎵\n\n" +
			"Xoş gəlmisiniz! Mən sizin üçün YouTube mahnılarını MP3 fayllarına çevirə bilərəm.\n\n" +
			"*Necə istifadə etmək:*\n" +
			"• Birbaşa yükləmək üçün YouTube mahnı linkini göndərin\n" +
			"• Mahnı adını yazın və nəticələrdən seçin\n" +
			"• Mən onu yükləyib MP3-ə çevirərəm\n" +
			"• Audio faylı alacaqsınız\n\n" +
			"*Əmrlər:*\n" +
			"/start - Bu xoş gəldin mesajını göstər\n" +
			"/help - Kömək və istifadə təlimatları\n\n" +
			"*Qeyd:*\n" +
			"• Telegram limitlərinə görə %dMB-dan böyük fayllar göndərilə bilməz.\n" +
			"• Sözlüklə axtarılan mahnılar düzgün təqdim edilməyə bilər. Bu halda YouTube linki ilə atmağa cəhd edin.",
		KeyHelp: "🔧 *Kömək və Təlimatlar* 🔧\n\n" +
			"*Musiqi almağın iki yolu:*\n" +
			"1. *Birbaşa Link:* Dərhal yükləmək üçün YouTube linki göndərin\n" +
			"2. *Axtarış:* Hər hansı mahnı adı yazın və axtarış nəticələrindən seçin\n\n" +
			"*Dəstəklənən Linklər:*\n" +
			"• youtube.com/watch?v=...\n" +
			"• youtu.be/...\n" +
			"• m.youtube.com/watch?v=...\n\n" +
			"*Axtarış Xüsusiyyətləri:*\n" +
			"• Hər axtarışda 24-ə qədər nəticə\n" +
			"• Hər səhifədə 8 mahnı, maksimum 3 səhifə\n" +
			"• Əvvəlki/Növbəti düymələri ilə asan naviqasiya\n\n" +
			"*Məhdudiyyətlər:*\n" +
			"• Maksimum fayl ölçüsü: %dMB\n" +
			"• Yalnız YouTube mahnıları\n\n" +
			"*Problem yaşayırsınız?*\n" +
			"YouTube linkinizin etibarlı olduğundan və mahnının ictimai əlçatan olduğundan əmin olun.",
		KeyInvalidURL:         "❌ Yanlış YouTube linki. Zəhmət olmasa etibarlı YouTube linki göndərin.",
		KeyProcessing:         "🔄 Sorğunuz emal olunur...",
		KeySearching:          "🔍 Mahnılar axtarılır...",
		KeyNoResults:          "❌ Heç bir mahnı tapılmadı. Fərqli axtarış sözü sınayın.",
		KeySearchResults:      "🎵 «%s» üçün %d mahnı tapıldı\n\nSəhifə %d/%d - Mahnı seçin:",
		KeyExtracting:         "🔎 Məlumat alınır...",
		KeyDownloading:        "📥 Yüklənir: %s (%d%%)",
		KeyTranscoding:        "🎧 MP3-ə çevrilir...",
		KeyUploading:          "📤 Köçürülür...",
		KeyUploaded:           "✅ Köçürüldü!",
		KeySessionExpired:     "❌ Bu axtarış sessiyası bitib. Zəhmət olmasa yenidən axtarın.",
		KeySessionSuperseded:  "❌ Bu köhnə axtarışdır. Zəhmət olmasa son axtarış nəticələrindən seçin və ya yenidən axtarın.",
		KeyContentUnavailable: "❌ Video əlçatan deyil: %s\nZəhmət olmasa axtarış nəticələrindən başqa mahnı sınayın.",
		KeyFileTooLarge:       "❌ Fayl çox böyükdür (%dMB-dan çox). Telegram bu qədər böyük faylları dəstəkləmir.",
		KeyNetworkError:       "❌ Şəbəkə xətası. Zəhmət olmasa bir az sonra yenidən cəhd edin.",
		KeyConversionFailed:   "❌ Mahnı MP3-ə çevrilə bilmədi. Zəhmət olmasa yenidən cəhd edin.",
		KeyDownloadFailed:     "❌ Mahnı yüklənə bilmədi. Zəhmət olmasa linki yoxlayın və yenidən cəhd edin.",
		KeyGeneralError:       "❌ Xəta baş verdi. Zəhmət olmasa sonra yenidən cəhd edin.",
		KeyWrongUser:          "❌ Bu düymə sizin axtarışınıza aid deyil.",
	}

	// English texts
	l.texts[LangEnglish] = map[string]string{
		KeyWelcome: "🎵 *YouTube to MP3 Bot* 🎵\n\n" +
			"Welcome! I can turn YouTube songs into MP3 files for you.\n\n" +
			"*How to use:*\n" +
			"• Send a YouTube link to download it directly\n" +
			"• Type a song name and pick one of the results\n" +
			"• I download it and convert it to MP3\n" +
			"• You receive the audio file\n\n" +
			"*Commands:*\n" +
			"/start - Show this welcome message\n" +
			"/help - Help and usage\n\n" +
			"*Note:*\n" +
			"• Files larger than %dMB cannot be sent because of Telegram limits.\n" +
			"• Songs found by keywords may not match exactly. Try a YouTube link in that case.",
		KeyHelp: "🔧 *Help* 🔧\n\n" +
			"*Two ways to get music:*\n" +
			"1. *Direct link:* send a YouTube link to download it right away\n" +
			"2. *Search:* type any song name and choose from the results\n\n" +
			"*Supported links:*\n" +
			"• youtube.com/watch?v=...\n" +
			"• youtu.be/...\n" +
			"• m.youtube.com/watch?v=...\n\n" +
			"*Search:*\n" +
			"• Up to 24 results per search\n" +
			"• 8 songs per page, at most 3 pages\n" +
			"• Previous/Next buttons for navigation\n\n" +
			"*Limits:*\n" +
			"• Maximum file size: %dMB\n" +
			"• YouTube songs only\n\n" +
			"*Having trouble?*\n" +
			"Make sure your link is valid and the song is publicly available.",
		KeyInvalidURL:         "❌ Invalid YouTube link. Please send a valid YouTube link.",
		KeyProcessing:         "🔄 Processing your request...",
		KeySearching:          "🔍 Searching for songs...",
		KeyNoResults:          "❌ No songs found. Try a different search term.",
		KeySearchResults:      "🎵 Found %[2]d songs for «%[1]s»\n\nPage %[3]d/%[4]d - Choose a song:",
		KeyExtracting:         "🔎 Fetching details...",
		KeyDownloading:        "📥 Downloading: %s (%d%%)",
		KeyTranscoding:        "🎧 Converting to MP3...",
		KeyUploading:          "📤 Uploading...",
		KeyUploaded:           "✅ Uploaded!",
		KeySessionExpired:     "❌ This search session has ended. Please search again.",
		KeySessionSuperseded:  "❌ This is an older search. Please choose from your latest results or search again.",
		KeyContentUnavailable: "❌ Video unavailable: %s\nPlease try another song from the search results.",
		KeyFileTooLarge:       "❌ The file is too large (over %dMB). Telegram does not support files this big.",
		KeyNetworkError:       "❌ Network error. Please try again a little later.",
		KeyConversionFailed:   "❌ Could not convert the song to MP3. Please try again.",
		KeyDownloadFailed:     "❌ Could not download the song. Please check the link and try again.",
		KeyGeneralError:       "❌ Something went wrong. Please try again later.",
		KeyWrongUser:          "❌ This button belongs to someone else's search.",
	}

	// Russian texts
	l.texts[LangRussian] = map[string]string{
		KeyWelcome: "🎵 *Бот YouTube в MP3* 🎵\n\n" +
			"Добро пожаловать! Я превращаю песни с YouTube в MP3 файлы.\n\n" +
			"*Как пользоваться:*\n" +
			"• Отправьте ссылку на YouTube для прямой загрузки\n" +
			"• Напишите название песни и выберите из результатов\n" +
			"• Я скачаю её и сконвертирую в MP3\n" +
			"• Вы получите аудиофайл\n\n" +
			"*Команды:*\n" +
			"/start - Показать это приветствие\n" +
			"/help - Помощь и инструкции\n\n" +
			"*Примечание:*\n" +
			"• Файлы больше %dMB нельзя отправить из-за ограничений Telegram.\n" +
			"• Песни, найденные по словам, могут не совпасть. В этом случае пришлите ссылку на YouTube.",
		KeyHelp: "🔧 *Помощь* 🔧\n\n" +
			"*Два способа получить музыку:*\n" +
			"1. *Прямая ссылка:* отправьте ссылку на YouTube\n" +
			"2. *Поиск:* напишите название песни и выберите из результатов\n\n" +
			"*Поддерживаемые ссылки:*\n" +
			"• youtube.com/watch?v=...\n" +
			"• youtu.be/...\n" +
			"• m.youtube.com/watch?v=...\n\n" +
			"*Поиск:*\n" +
			"• До 24 результатов за поиск\n" +
			"• 8 песен на странице, не больше 3 страниц\n" +
			"• Кнопки Назад/Вперёд для навигации\n\n" +
			"*Ограничения:*\n" +
			"• Максимальный размер файла: %dMB\n" +
			"• Только песни с YouTube\n\n" +
			"*Что-то не работает?*\n" +
			"Проверьте, что ссылка верна и песня доступна публично.",
		KeyInvalidURL:         "❌ Неверная ссылка YouTube. Пожалуйста, отправьте корректную ссылку.",
		KeyProcessing:         "🔄 Обрабатываю запрос...",
		KeySearching:          "🔍 Ищу песни...",
		KeyNoResults:          "❌ Ничего не найдено. Попробуйте другой запрос.",
		KeySearchResults:      "🎵 По запросу «%s» найдено песен: %d\n\nСтраница %d/%d - Выберите песню:",
		KeyExtracting:         "🔎 Получаю данные...",
		KeyDownloading:        "📥 Загрузка: %s (%d%%)",
		KeyTranscoding:        "🎧 Конвертирую в MP3...",
		KeyUploading:          "📤 Отправляю...",
		KeyUploaded:           "✅ Отправлено!",
		KeySessionExpired:     "❌ Этот поиск устарел. Пожалуйста, выполните поиск заново.",
		KeySessionSuperseded:  "❌ Это старый поиск. Выберите из последних результатов или выполните поиск заново.",
		KeyContentUnavailable: "❌ Видео недоступно: %s\nПопробуйте другую песню из результатов поиска.",
		KeyFileTooLarge:       "❌ Файл слишком большой (больше %dMB). Telegram не поддерживает такие файлы.",
		KeyNetworkError:       "❌ Ошибка сети. Попробуйте чуть позже.",
		KeyConversionFailed:   "❌ Не удалось сконвертировать песню в MP3. Попробуйте ещё раз.",
		KeyDownloadFailed:     "❌ Не удалось скачать песню. Проверьте ссылку и попробуйте снова.",
		KeyGeneralError:       "❌ Произошла ошибка. Попробуйте позже.",
		KeyWrongUser:          "❌ Эта кнопка относится к чужому поиску.",
	}
}
