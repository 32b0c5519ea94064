package luna

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// sendMessageTo 发送文本消息, markup可以为nil
// 发送失败只记录日志, 一个用户的投递问题不应该打断事件循环
func (l *Luna) sendMessageTo(ctx context.Context, bt *bot.Bot, chatID int64, msg string, markup models.ReplyMarkup) {
	param := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   msg,
	}
	if markup != nil {
		param.ReplyMarkup = markup
	}

	_, err := bt.SendMessage(ctx, param)
	if err != nil {
		l.logger.Error("发送消息失败", zap.Int64("Chat ID", chatID), zap.Error(err))
	}
}

// sendVoiceTo 把合成好的音频作为语音消息发送
func (l *Luna) sendVoiceTo(ctx context.Context, bt *bot.Bot, chatID int64, audio []byte) {
	_, err := bt.SendVoice(ctx, &bot.SendVoiceParams{
		ChatID: chatID,
		Voice: &models.InputFileUpload{
			Filename: "reply.ogg",
			Data:     bytes.NewReader(audio),
		},
	})
	if err != nil {
		l.logger.Error("发送语音失败", zap.Int64("Chat ID", chatID), zap.Error(err))
	}
}

func (l *Luna) sendChatAction(ctx context.Context, bt *bot.Bot, chatID int64, newAction models.ChatAction) error {
	_, err := bt.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: newAction,
	})

	return err
}

func (l *Luna) sendError(ctx context.Context, bt *bot.Bot, chatID int64, err error) {
	l.logger.Info("发送错误", zap.Error(err))

	format := `>_< Fatal Error !
%s`
	l.sendMessageTo(ctx, bt, chatID, fmt.Sprintf(format, err), nil)
}
