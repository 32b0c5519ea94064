package luna

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (l *Luna) setupBot() error {
	opts := []bot.Option{
		bot.WithDefaultHandler(l.handlerForUpdate),
	}

	bt, err := bot.New(l.botToken, opts...)
	if err != nil {
		return err
	}

	l.bot = bt
	l.logger.Info("初始化Bot成功")

	return nil
}

func (l *Luna) setupDB() error {
	return l.db.AutoMigrate(&allowedUserRecord{})
}

// botCommands 按配置的默认语言生成命令菜单
func botCommands(locale string) []models.BotCommand {
	return []models.BotCommand{
		{Command: "start", Description: tr(locale, "cmd.start")},
		{Command: "lang", Description: tr(locale, "cmd.lang")},
		{Command: "voice_response", Description: tr(locale, "cmd.voice")},
		{Command: "help", Description: tr(locale, "cmd.help")},
	}
}

// registerCommands 把斜杠命令注册到Telegram的命令菜单
func (l *Luna) registerCommands(ctx context.Context) error {
	_, err := l.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: botCommands(l.sessions.defaultLanguage),
	})
	return err
}
