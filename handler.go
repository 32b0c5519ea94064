package luna

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (l *Luna) handlerForUpdate(ctx context.Context, bt *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		l.handlerForCallbackQuery(ctx, bt, update)
		return
	}
	if update.Message != nil {
		l.handlerForMessage(ctx, bt, update)
	}
}

func (l *Luna) handlerForMessage(ctx context.Context, bt *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	chatText := strings.TrimSpace(update.Message.Text)
	username := update.Message.Chat.Username
	userID := update.Message.From.ID

	if !l.isUserAllowed(ctx, userID) {
		if strings.ToLower(chatText) == "/start" {
			l.logger.Info("一名新的用户!",
				zap.Int64("Chat ID", chatID),
				zap.String("Username", username),
				zap.Int64("UserID", userID),
			)
			l.sendMessageTo(ctx, bt, chatID, tr(l.sessions.defaultLanguage, "access-denied", userID), nil)
		}
		// 其余消息静默处理
		return
	}

	if update.Message.Voice != nil {
		l.logger.Info("收到语音消息",
			zap.Int64("Chat ID", chatID),
			zap.Int64("UserID", userID),
			zap.String("FileID", update.Message.Voice.FileID),
		)
		l.handleVoiceMessage(ctx, bt, userID, chatID, update.Message.Voice.FileID)
		return
	}

	if chatText == "" {
		// 贴纸、图片等没有文本的消息, 静默忽略
		l.logger.Debug("忽略非文本消息", zap.Int64("UserID", userID))
		return
	}

	l.logger.Info("收到消息",
		zap.Int64("Chat ID", chatID),
		zap.String("Username", username),
		zap.Int64("UserID", userID),
		zap.String("Chat Text", chatText),
	)

	if strings.HasPrefix(chatText, "/") {
		commandLine := strings.TrimSpace(chatText[1:])
		err := l.handleCommand(ctx, bt, chatID, commandLine, userID)
		if err != nil {
			l.sendError(ctx, bt, chatID, err)
		}
		return
	}

	err := l.handleAiChat(ctx, bt, userID, chatID, chatText)
	if err != nil {
		l.sendError(ctx, bt, chatID, err)
	}
}

// handleAiChat 处理一轮文本AI聊天
func (l *Luna) handleAiChat(ctx context.Context, bt *bot.Bot, userID int64, chatID int64, chatText string) error {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	return l.converseAndDeliver(ctx, bt, userID, chatID, session, chatText)
}

// converseAndDeliver 调补全接口并按语音偏好投递回复
// 调用方必须已持有session锁
func (l *Luna) converseAndDeliver(ctx context.Context, bt *bot.Bot, userID int64, chatID int64, session *userSession, chatText string) error {
	stopTyping := l.startTypingLoop(ctx, bt, chatID)
	defer stopTyping()

	turns, err := l.converse(ctx, userID, session, chatText)
	if err != nil {
		// converse内部已经记录并重置, 这里只给用户一个笼统的提示
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "error.generic"), nil)
		return nil
	}

	if !session.voiceReplyEnabled {
		for _, turn := range turns {
			l.sendMessageTo(ctx, bt, chatID, turn.Content, nil)
		}
		return nil
	}

	actions, synthErr := l.speak(ctx, turns, session)
	if synthErr != nil {
		l.logger.Error("语音回复降级为文本", zap.Int64("UserID", userID), zap.Error(synthErr))
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "error.voice-forbidden"), nil)
	}
	for _, action := range actions {
		switch action.kind {
		case actionSendVoice:
			l.sendVoiceTo(ctx, bt, chatID, action.audio)
		case actionSendText:
			l.sendMessageTo(ctx, bt, chatID, action.text, nil)
		}
	}
	return nil
}

// handleVoiceMessage 处理语音消息: 下载 -> 识别 -> AI对话
func (l *Luna) handleVoiceMessage(ctx context.Context, bt *bot.Bot, userID int64, chatID int64, fileID string) {
	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "processing"), nil)

	prompt, err := l.transcribeVoice(ctx, bt, fileID, session.language)
	if err != nil {
		l.logger.Error("语音识别失败", zap.Int64("UserID", userID), zap.Error(err))
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "error.voice"), nil)
		return
	}
	if prompt == "" {
		// 识别出空内容不是transport错误, 单独提示
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "error.voice-empty"), nil)
		return
	}

	l.sendMessageTo(ctx, bt, chatID, tr(session.language, "prompt", prompt), nil)

	err = l.converseAndDeliver(ctx, bt, userID, chatID, session, prompt)
	if err != nil {
		l.sendError(ctx, bt, chatID, err)
	}
}

// transcribeVoice 通过文件链接下载语音消息并转成文本
// 直接把原始字节交给识别接口, 省掉落盘和转码, 响应更快
func (l *Luna) transcribeVoice(ctx context.Context, bt *bot.Bot, fileID string, locale string) (string, error) {
	file, err := bt.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	audio, err := l.downloadFile(ctx, bt.FileDownloadLink(file))
	if err != nil {
		return "", fmt.Errorf("download voice: %w", err)
	}

	lang, err := shortLang(locale)
	if err != nil {
		return "", err
	}

	return l.speech.recognize(ctx, audio, lang)
}

func (l *Luna) downloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// handlerForCallbackQuery 处理按钮回调: 解析成命令后走状态迁移表
func (l *Luna) handlerForCallbackQuery(ctx context.Context, bt *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	userID := query.From.ID

	chatID := userID
	if query.Message.Message != nil {
		chatID = query.Message.Message.Chat.ID
	}

	// 先应答回调, 不然客户端的按钮会一直转圈
	_, err := bt.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})
	if err != nil {
		l.logger.Error("应答回调失败", zap.Error(err))
	}

	if !l.isUserAllowed(ctx, userID) {
		return
	}

	session := l.sessions.getOrInit(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	cmd, ok := parseCallbackCommand(query.Data)
	if !ok {
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "unknown-command", query.Data), nil)
		return
	}

	result, err := applyCommand(session, cmd)
	if err != nil {
		// 未识别的角色/语言按未知命令处理, 状态未被修改
		l.logger.Info("命令被拒绝", zap.Int64("UserID", userID), zap.String("Data", query.Data), zap.Error(err))
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "unknown-command", query.Data), nil)
		return
	}

	l.logger.Info("会话状态已更新",
		zap.Int64("UserID", userID),
		zap.String("Data", query.Data),
		zap.String("Persona", session.persona),
		zap.String("Language", session.language),
		zap.Bool("VoiceReply", session.voiceReplyEnabled),
	)

	l.sendMessageTo(ctx, bt, chatID, result.reply, nil)
	if result.promptProgrammingLanguage {
		l.sendMessageTo(ctx, bt, chatID, tr(session.language, "pick-programming"), programmingLanguageKeyboard(session.language))
	}
}

// startTypingLoop 开启一个goroutine持续发送Typing状态, 返回一个停止函数
func (l *Luna) startTypingLoop(ctx context.Context, bt *bot.Bot, chatID int64) func() {
	done := make(chan struct{})
	ticker := time.NewTicker(time.Second * 6)

	go func() {
		fn := func() {
			err := l.sendChatAction(ctx, bt, chatID, models.ChatActionTyping)
			if err != nil && !errors.Is(err, context.Canceled) {
				l.logger.Error("Action Routine Error", zap.Error(err))
			}
		}
		fn()
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return func() {
		close(done)
	}
}
