package luna

import (
	"context"

	"github.com/go-telegram/bot"
)

// Turn 是对话历史中的一条消息
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// completer 是对话补全接口, 由openaiCompleter实现
type completer interface {
	complete(ctx context.Context, history []Turn) ([]Turn, error)
}

// speechClient 是语音识别与语音合成接口, 由yandexSpeech实现
type speechClient interface {
	start(ctx context.Context) error
	recognize(ctx context.Context, audio []byte, lang string) (string, error)
	synthesize(ctx context.Context, text string, locale string, profile voiceProfile) ([]byte, error)
}

type commandHandlerFunc = func(context.Context, *bot.Bot, int64, int64, []string) error
