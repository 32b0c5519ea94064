package luna

import (
	"fmt"
	"strings"
)

// 回调数据先在边界处解析成带标签的命令类型,
// 状态迁移本身不接触transport, 可以单独测试
type command interface {
	isCommand()
}

// pickPersonaCommand 切换角色
type pickPersonaCommand struct {
	persona string
}

// pickLanguageCommand 切换回复语言, 2字母代码
type pickLanguageCommand struct {
	lang string
}

// pickProgrammingLanguageCommand 设置programmer角色的目标编程语言
type pickProgrammingLanguageCommand struct {
	language string
}

// setVoiceReplyCommand 开关语音回复
type setVoiceReplyCommand struct {
	enabled bool
}

func (pickPersonaCommand) isCommand()             {}
func (pickLanguageCommand) isCommand()            {}
func (pickProgrammingLanguageCommand) isCommand() {}
func (setVoiceReplyCommand) isCommand()           {}

// parseCallbackCommand 把回调数据解析成命令, 不认识的数据返回false
func parseCallbackCommand(data string) (command, bool) {
	if language, ok := strings.CutPrefix(data, "programming:"); ok {
		return pickProgrammingLanguageCommand{language: language}, true
	}

	switch data {
	case "enable_voice_response":
		return setVoiceReplyCommand{enabled: true}, true
	case "disable_voice_response":
		return setVoiceReplyCommand{enabled: false}, true
	}

	if _, ok := supportedLanguages[data]; ok {
		return pickLanguageCommand{lang: data}, true
	}

	if knownPersona(data) {
		return pickPersonaCommand{persona: data}, true
	}

	return nil, false
}

// commandResult 是状态迁移要发出的副作用
type commandResult struct {
	reply string
	// 选了programmer角色后, 追加一个编程语言键盘
	promptProgrammingLanguage bool
}

// applyCommand 执行一次状态迁移: (session, command) -> (新session状态, 副作用)
// 调用方必须已持有session锁; 返回错误时session不做任何修改
func applyCommand(session *userSession, cmd command) (commandResult, error) {
	switch c := cmd.(type) {
	case pickPersonaCommand:
		if !knownPersona(c.persona) {
			return commandResult{}, fmt.Errorf("%w: %q", errUnknownPersona, c.persona)
		}
		session.persona = c.persona
		// 换角色必须清历史, 新的system指令才能对后续轮次生效
		session.clearHistory()
		return commandResult{
			reply:                     tr(session.language, "character-changed", tr(session.language, "btn."+c.persona)),
			promptProgrammingLanguage: c.persona == personaProgrammer,
		}, nil

	case pickLanguageCommand:
		locale, err := localeFor(c.lang)
		if err != nil {
			return commandResult{}, err
		}
		session.language = locale
		return commandResult{reply: tr(locale, "lang-changed", c.lang)}, nil

	case pickProgrammingLanguageCommand:
		session.persona = personaProgrammer
		session.personaExtras = map[string]string{extraProgrammingLanguage: c.language}
		session.clearHistory()
		return commandResult{reply: tr(session.language, "character-changed", tr(session.language, "btn."+personaProgrammer))}, nil

	case setVoiceReplyCommand:
		session.voiceReplyEnabled = c.enabled
		key := "voice-disabled"
		if c.enabled {
			key = "voice-enabled"
		}
		return commandResult{reply: tr(session.language, key)}, nil
	}

	return commandResult{}, fmt.Errorf("unhandled command %T", cmd)
}
