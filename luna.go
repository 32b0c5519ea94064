// Package luna 是Luna的实现: 一个支持角色扮演与语音回复的对话中继Bot
package luna

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 用于配置Luna实例的模型、最大保留轮数和语音服务凭据
type Config struct {
	Model            string
	MaxRounds        int
	DefaultLanguage  string // locale形式, 如 "en-US"; 留空时使用 defaultLanguage
	YandexFolderID   string
	YandexOAuthToken string
}

func (c Config) validate() error {
	if c.Model == "" {
		return errors.New("config: model is required")
	}
	if c.YandexFolderID == "" || c.YandexOAuthToken == "" {
		return errors.New("config: yandex folder id and oauth token are required")
	}
	if c.DefaultLanguage != "" {
		if _, err := shortLang(c.DefaultLanguage); err != nil {
			return err
		}
	}
	return nil
}

// Luna 是Luna的实例
type Luna struct {
	ctx        context.Context
	logger     *zap.Logger
	db         *gorm.DB
	bot        *bot.Bot
	botToken   string
	config     Config
	httpClient *http.Client
	completer  completer
	speech     speechClient
	sessions   *sessionStore
}

// New 创建一个新的Luna实例
func New(ctx context.Context, logger *zap.Logger, openaiClient *openai.Client, db *gorm.DB, botToken string, cfg Config) *Luna {
	logger = logger.Named("Luna")

	return &Luna{
		ctx:        ctx,
		logger:     logger,
		db:         db,
		botToken:   botToken,
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		completer:  &openaiCompleter{client: openaiClient, model: cfg.Model},
		speech:     newYandexSpeech(logger, cfg.YandexFolderID, cfg.YandexOAuthToken),
		sessions:   newSessionStore(logger, cfg.DefaultLanguage),
	}
}

// Start 启动Telegram Bot并返回一个在停止时关闭的通道
func (l *Luna) Start() (<-chan struct{}, error) {
	if err := l.config.validate(); err != nil {
		return nil, err
	}

	if err := l.setupBot(); err != nil {
		return nil, err
	}

	if err := l.setupDB(); err != nil {
		return nil, err
	}

	// 先拿到IAM Token, 否则语音消息一来就会失败
	if err := l.speech.start(l.ctx); err != nil {
		return nil, err
	}

	if err := l.registerCommands(l.ctx); err != nil {
		l.logger.Error("注册命令失败", zap.Error(err))
	}

	closeCh := make(chan struct{})
	go func() {
		l.bot.Start(l.ctx)
		close(closeCh)
	}()

	return closeCh, nil
}
