package luna

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// voiceProfile 是语音合成用的(voice, emotion)组合
type voiceProfile struct {
	voice   string
	emotion string
}

// 语音表按locale和角色索引, 必须覆盖全部支持的(语言 x 角色)组合
// 合成接口会拒绝语言和voice不匹配的请求, 所以这里宁可报错也不兜底
var voiceProfiles = map[string]map[string]voiceProfile{
	"ru-RU": {
		personaProgrammer: {voice: "filipp"},
		personaDesigner:   {voice: "jane", emotion: "good"},
		personaBuddy:      {voice: "zahar", emotion: "good"},
	},
	"en-US": {
		personaProgrammer: {voice: "nick"},
		personaDesigner:   {voice: "alyss"},
		personaBuddy:      {voice: "nick"},
	},
}

// resolveVoice 返回(语言, 角色)对应的语音配置
func resolveVoice(locale string, persona string) (voiceProfile, error) {
	voices, ok := voiceProfiles[locale]
	if !ok {
		return voiceProfile{}, fmt.Errorf("%w: %q", errUnsupportedLanguage, locale)
	}
	profile, ok := voices[persona]
	if !ok {
		return voiceProfile{}, fmt.Errorf("%w: %q", errUnknownPersona, persona)
	}
	return profile, nil
}

type sendActionKind int

const (
	actionSendText sendActionKind = iota
	actionSendVoice
)

// sendAction 是语音管线产出的一条待发送动作, 与transport无关
type sendAction struct {
	kind  sendActionKind
	text  string
	audio []byte
}

// speak 把assistant回复转换成有序的发送动作序列
// 文本片段逐段合成语音, 紧随其后的代码块以文本原样插入, 顺序保持不变
// 某一段合成失败不会中断整个回合: 该回合降级为一条纯文本动作,
// 错误向上返回用于记录, 剩余回合继续处理
func (l *Luna) speak(ctx context.Context, turns []Turn, session *userSession) ([]sendAction, error) {
	var actions []sendAction
	var synthErr error

	for _, turn := range turns {
		turnActions, err := l.speakTurn(ctx, turn, session)
		if err != nil {
			synthErr = err
			turnActions = []sendAction{{kind: actionSendText, text: turn.Content}}
		}
		actions = append(actions, turnActions...)
	}

	return actions, synthErr
}

func (l *Luna) speakTurn(ctx context.Context, turn Turn, session *userSession) ([]sendAction, error) {
	profile, err := resolveVoice(session.language, session.persona)
	if err != nil {
		return nil, err
	}

	var actions []sendAction
	for _, seg := range segmentReply(turn.Content) {
		if seg.kind == segmentCode {
			actions = append(actions, sendAction{kind: actionSendText, text: seg.content})
			continue
		}
		if strings.TrimSpace(seg.content) == "" {
			continue
		}

		audio, err := l.speech.synthesize(ctx, seg.content, session.language, profile)
		if err != nil {
			l.logger.Error("语音合成失败",
				zap.String("Locale", session.language),
				zap.String("Voice", profile.voice),
				zap.Error(err),
			)
			return nil, err
		}
		actions = append(actions, sendAction{kind: actionSendVoice, audio: audio})
	}

	return actions, nil
}
