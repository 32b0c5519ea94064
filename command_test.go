package luna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseCallbackCommand(t *testing.T) {
	tests := []struct {
		data     string
		expected command
		ok       bool
	}{
		{"programmer", pickPersonaCommand{persona: "programmer"}, true},
		{"designer", pickPersonaCommand{persona: "designer"}, true},
		{"buddy", pickPersonaCommand{persona: "buddy"}, true},
		{"en", pickLanguageCommand{lang: "en"}, true},
		{"ru", pickLanguageCommand{lang: "ru"}, true},
		{"enable_voice_response", setVoiceReplyCommand{enabled: true}, true},
		{"disable_voice_response", setVoiceReplyCommand{enabled: false}, true},
		{"programming:go", pickProgrammingLanguageCommand{language: "go"}, true},
		{"programming:any", pickProgrammingLanguageCommand{language: "any"}, true},
		{"poet", nil, false},
		{"de", nil, false},
		{"", nil, false},
		// 模板表的内部变体Key不是角色, 伪造的回调数据不能通过
		{"programmer:any", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			cmd, ok := parseCallbackCommand(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, cmd)
		})
	}
}

func newSessionWithHistory() *userSession {
	store := newSessionStore(zap.NewNop(), "")
	session := store.newDefaultSession()
	session.history = []Turn{
		{Role: roleSystem, Content: "old instruction"},
		{Role: roleUser, Content: "hi"},
		{Role: roleAssistant, Content: "hello"},
	}
	return session
}

func TestApplyCommand(t *testing.T) {
	t.Run("persona pick clears history", func(t *testing.T) {
		session := newSessionWithHistory()
		result, err := applyCommand(session, pickPersonaCommand{persona: personaDesigner})

		require.NoError(t, err)
		assert.Equal(t, personaDesigner, session.persona)
		assert.Empty(t, session.history)
		assert.NotEmpty(t, result.reply)
		assert.False(t, result.promptProgrammingLanguage)
	})

	t.Run("programmer pick asks for a programming language", func(t *testing.T) {
		session := newSessionWithHistory()
		result, err := applyCommand(session, pickPersonaCommand{persona: personaProgrammer})

		require.NoError(t, err)
		assert.True(t, result.promptProgrammingLanguage)
	})

	t.Run("unknown persona leaves session untouched", func(t *testing.T) {
		session := newSessionWithHistory()
		_, err := applyCommand(session, pickPersonaCommand{persona: "poet"})

		assert.ErrorIs(t, err, errUnknownPersona)
		assert.Equal(t, defaultPersona, session.persona)
		assert.Len(t, session.history, 3)
	})

	t.Run("template variant key is rejected like any unknown persona", func(t *testing.T) {
		session := newSessionWithHistory()
		_, err := applyCommand(session, pickPersonaCommand{persona: personaProgrammer + ":any"})

		assert.ErrorIs(t, err, errUnknownPersona)
		assert.Equal(t, defaultPersona, session.persona)
		assert.Len(t, session.history, 3)
	})

	t.Run("language pick stores the locale form", func(t *testing.T) {
		session := newSessionWithHistory()
		result, err := applyCommand(session, pickLanguageCommand{lang: "ru"})

		require.NoError(t, err)
		assert.Equal(t, "ru-RU", session.language)
		assert.NotEmpty(t, result.reply)
		// 换语言不重置对话
		assert.Len(t, session.history, 3)
	})

	t.Run("unsupported language leaves session untouched", func(t *testing.T) {
		session := newSessionWithHistory()
		_, err := applyCommand(session, pickLanguageCommand{lang: "de"})

		assert.ErrorIs(t, err, errUnsupportedLanguage)
		assert.Equal(t, defaultLanguage, session.language)
	})

	t.Run("programming language pick resets extras and history", func(t *testing.T) {
		session := newSessionWithHistory()
		_, err := applyCommand(session, pickProgrammingLanguageCommand{language: "rust"})

		require.NoError(t, err)
		assert.Equal(t, personaProgrammer, session.persona)
		assert.Equal(t, "rust", session.personaExtras[extraProgrammingLanguage])
		assert.Empty(t, session.history)
	})

	t.Run("voice toggle", func(t *testing.T) {
		session := newSessionWithHistory()

		_, err := applyCommand(session, setVoiceReplyCommand{enabled: true})
		require.NoError(t, err)
		assert.True(t, session.voiceReplyEnabled)

		_, err = applyCommand(session, setVoiceReplyCommand{enabled: false})
		require.NoError(t, err)
		assert.False(t, session.voiceReplyEnabled)

		// 开关语音不影响历史
		assert.Len(t, session.history, 3)
	})
}
