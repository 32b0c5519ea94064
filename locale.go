package luna

import "fmt"

// 会话里存locale形式的语言代码(语音合成需要), 指令模板与语音识别用2字母形式,
// 两个代码空间之间的映射是固定的全函数, 不做任何兜底猜测
const defaultLanguage = "en-US"

var supportedLanguages = map[string]string{
	"en": "en-US",
	"ru": "ru-RU",
}

var localeToShort = map[string]string{
	"en-US": "en",
	"ru-RU": "ru",
}

// shortLang 把locale代码转换为2字母代码
func shortLang(locale string) (string, error) {
	short, ok := localeToShort[locale]
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnsupportedLanguage, locale)
	}
	return short, nil
}

// localeFor 把2字母代码转换为locale代码
func localeFor(short string) (string, error) {
	locale, ok := supportedLanguages[short]
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnsupportedLanguage, short)
	}
	return locale, nil
}

// 用户可见文案. 翻译表很小, 直接内置,
// Key缺失时回退英文, 这样漏翻不会变成空消息
var translations = map[string]map[string]string{
	"en": {
		"error.generic":         "Something went wrong, please try again a bit later.",
		"error.voice":           "Could not process the voice message.",
		"error.voice-empty":     "Could not understand the audio, please try again.",
		"error.voice-forbidden": "Voice reply failed, sending the answer as text.",
		"unknown-command":       "Unknown command: %s",
		"access-denied":         "Access denied. Ask the administrator to add you, your id is %d.",
		"processing":            "Processing the voice message...",
		"prompt":                "You said: %s",
		"lang-changed":          "Reply language changed to %s.",
		"character-changed":     "Persona changed to %s.",
		"voice-enabled":         "Voice responses enabled.",
		"voice-disabled":        "Voice responses disabled.",
		"pick-persona":          "Pick a persona for the assistant:",
		"pick-language":         "Pick a reply language:",
		"pick-programming":      "Pick a programming language for the examples:",
		"pick-voice":            "Voice responses:",
		"help":                  "I relay your messages to the assistant.\n/start - reset the conversation and pick a persona\n/lang - pick a reply language\n/voice_response - toggle voice replies\nSend a voice note and I will answer it too.",
		"cmd.start":             "Reset the conversation",
		"cmd.lang":              "Change the reply language",
		"cmd.voice":             "Toggle voice responses",
		"cmd.help":              "Show help",
		"btn.programmer":        "Programmer",
		"btn.designer":          "Designer",
		"btn.buddy":             "Buddy",
		"btn.voice-on":          "Enable",
		"btn.voice-off":         "Disable",
		"btn.any-language":      "Any language",
		"user.admin-only":       "Only the administrator can do that.",
		"user.need-id":          "A numeric user id is required.",
		"user.added":            "User added.",
		"user.removed":          "User removed.",
		"user.list":             "Allowed users:\n%s",
		"user.empty":            "The allowlist is empty.",
	},
	"ru": {
		"error.generic":         "Что-то пошло не так, попробуйте ещё раз чуть позже.",
		"error.voice":           "Не удалось обработать голосовое сообщение.",
		"error.voice-empty":     "Не удалось разобрать аудио, попробуйте ещё раз.",
		"error.voice-forbidden": "Не получилось ответить голосом, отправляю текстом.",
		"unknown-command":       "Неизвестная команда: %s",
		"access-denied":         "Доступ закрыт. Попросите администратора добавить вас, ваш id %d.",
		"processing":            "Обрабатываю голосовое сообщение...",
		"prompt":                "Вы сказали: %s",
		"lang-changed":          "Язык ответов переключён на %s.",
		"character-changed":     "Роль ассистента: %s.",
		"voice-enabled":         "Голосовые ответы включены.",
		"voice-disabled":        "Голосовые ответы выключены.",
		"pick-persona":          "Выберите роль ассистента:",
		"pick-language":         "Выберите язык ответов:",
		"pick-programming":      "Выберите язык программирования для примеров:",
		"pick-voice":            "Голосовые ответы:",
		"help":                  "Я передаю ваши сообщения ассистенту.\n/start - сбросить диалог и выбрать роль\n/lang - выбрать язык ответов\n/voice_response - голосовые ответы\nГолосовые сообщения тоже понимаю.",
		"cmd.start":             "Сбросить диалог",
		"cmd.lang":              "Сменить язык ответов",
		"cmd.voice":             "Голосовые ответы",
		"cmd.help":              "Справка",
		"btn.programmer":        "Программист",
		"btn.designer":          "Дизайнер",
		"btn.buddy":             "Дружбан",
		"btn.voice-on":          "Включить",
		"btn.voice-off":         "Выключить",
		"btn.any-language":      "Любой язык",
		"user.admin-only":       "Это может делать только администратор.",
		"user.need-id":          "Нужен числовой id пользователя.",
		"user.added":            "Пользователь добавлен.",
		"user.removed":          "Пользователь удалён.",
		"user.list":             "Разрешённые пользователи:\n%s",
		"user.empty":            "Список пуст.",
	},
}

// tr 按locale查找文案并格式化
func tr(locale string, key string, args ...any) string {
	short, err := shortLang(locale)
	if err != nil {
		short = "en"
	}

	text, ok := translations[short][key]
	if !ok {
		text = translations["en"][key]
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
