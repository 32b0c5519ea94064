package luna

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chhongzh/shlex"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (l *Luna) handleCommand(ctx context.Context, bt *bot.Bot, chatID int64, commandLine string, userID int64) error {
	parts, err := shlex.Split(commandLine)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	args := parts[1:]

	return l.executeCommand(ctx, bt, parts[0], chatID, userID, args)
}

// executeCommand 执行斜杠命令
func (l *Luna) executeCommand(ctx context.Context, bt *bot.Bot, command string, chatID int64, userID int64, args []string) error {
	handlers := map[string]commandHandlerFunc{
		"start":          l.handleStart,
		"lang":           l.handleLang,
		"voice_response": l.handleVoiceResponse,
		"help":           l.handleHelp,
		"user":           l.handleUserCommand,
	}

	if handler, ok := handlers[strings.ToLower(command)]; ok {
		return handler(ctx, bt, chatID, userID, args)
	}

	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "unknown-command", "/"+command), nil)
	return nil
}

// handleStart 清空历史并给出角色选择
func (l *Luna) handleStart(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	session.clearHistory()

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "pick-persona"), personaKeyboard(session.language))
	return nil
}

func (l *Luna) handleLang(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "pick-language"), languageKeyboard())
	return nil
}

func (l *Luna) handleVoiceResponse(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "pick-voice"), voiceKeyboard(session.language))
	return nil
}

func (l *Luna) handleHelp(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, _ []string) error {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "help"), nil)
	return nil
}

// handleUserCommand 管理白名单, 仅管理员可用
func (l *Luna) handleUserCommand(ctx context.Context, bt *bot.Bot, chatID int64, userID int64, args []string) error {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	locale := session.language
	session.mu.Unlock()

	if !l.isAdmin(ctx, userID) {
		l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.admin-only"), nil)
		return nil
	}

	if len(args) == 0 {
		return l.handleUserList(ctx, bt, chatID, locale)
	}

	switch strings.ToLower(args[0]) {
	case "ls", "list":
		return l.handleUserList(ctx, bt, chatID, locale)
	case "add":
		return l.handleUserAdd(ctx, bt, chatID, locale, args[1:])
	case "rm", "remove":
		return l.handleUserRemove(ctx, bt, chatID, locale, args[1:])
	default:
		l.sendMessageTo(ctx, bt, chatID, tr(locale, "unknown-command", args[0]), nil)
		return nil
	}
}

func (l *Luna) handleUserList(ctx context.Context, bt *bot.Bot, chatID int64, locale string) error {
	users, err := l.loadUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.empty"), nil)
		return nil
	}

	var sb strings.Builder
	for _, u := range users {
		role := "User"
		if u.IsAdmin {
			role = "Admin"
		}
		fmt.Fprintf(&sb, "%d - %s\n", u.UserID, role)
	}

	l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.list", sb.String()), nil)
	return nil
}

func (l *Luna) handleUserAdd(ctx context.Context, bt *bot.Bot, chatID int64, locale string, args []string) error {
	targetID, ok := parseUserID(args)
	if !ok {
		l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.need-id"), nil)
		return nil
	}

	isAdmin := len(args) >= 2 && strings.EqualFold(args[1], "admin")
	if err := l.createUser(ctx, targetID, isAdmin); err != nil {
		return err
	}

	l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.added"), nil)
	return nil
}

func (l *Luna) handleUserRemove(ctx context.Context, bt *bot.Bot, chatID int64, locale string, args []string) error {
	targetID, ok := parseUserID(args)
	if !ok {
		l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.need-id"), nil)
		return nil
	}

	if err := l.deleteUser(ctx, targetID); err != nil {
		return err
	}

	l.sendMessageTo(ctx, bt, chatID, tr(locale, "user.removed"), nil)
	return nil
}

func parseUserID(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// 下面是各个选择键盘, 按钮的CallbackData与parseCallbackCommand对应

func personaKeyboard(locale string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(personaIDs))
	for _, persona := range personaIDs {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: tr(locale, "btn."+persona), CallbackData: persona},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func languageKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{
		{{Text: "English", CallbackData: "en"}},
		{{Text: "Русский", CallbackData: "ru"}},
	}}
}

func voiceKeyboard(locale string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{
		{{Text: tr(locale, "btn.voice-on"), CallbackData: "enable_voice_response"}},
		{{Text: tr(locale, "btn.voice-off"), CallbackData: "disable_voice_response"}},
	}}
}

func programmingLanguageKeyboard(locale string) *models.InlineKeyboardMarkup {
	languages := []string{"javascript", "typescript", "python", "go", "rust"}
	rows := make([][]models.InlineKeyboardButton, 0, len(languages)+1)
	for _, language := range languages {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: language, CallbackData: "programming:" + language},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: tr(locale, "btn.any-language"), CallbackData: "programming:" + anyProgrammingLanguage},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
