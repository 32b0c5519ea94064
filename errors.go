package luna

import "errors"

var (
	// errUnknownPersona 表示catalog里不存在这个角色
	errUnknownPersona = errors.New("unknown persona")
	// errUnsupportedLanguage 表示该语言不在支持列表内
	errUnsupportedLanguage = errors.New("unsupported language")
	// errEmptyCompletion 表示补全接口返回了空响应
	errEmptyCompletion = errors.New("empty completion response")
	// errVoiceNotApplicable 表示语音与语言不匹配, 被合成接口拒绝
	errVoiceNotApplicable = errors.New("voice not applicable for language")
)
