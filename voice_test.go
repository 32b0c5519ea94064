package luna

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVoice(t *testing.T) {
	t.Run("total over the supported domain", func(t *testing.T) {
		for _, locale := range supportedLanguages {
			for _, persona := range personaIDs {
				profile, err := resolveVoice(locale, persona)
				require.NoError(t, err, "locale %s persona %s", locale, persona)
				assert.NotEmpty(t, profile.voice)
			}
		}
	})

	t.Run("unsupported language is a distinct error", func(t *testing.T) {
		_, err := resolveVoice("de-DE", personaProgrammer)
		assert.ErrorIs(t, err, errUnsupportedLanguage)
	})

	t.Run("unknown persona is a distinct error", func(t *testing.T) {
		_, err := resolveVoice("ru-RU", "poet")
		assert.ErrorIs(t, err, errUnknownPersona)
	})
}

func TestSpeakInterleavesCodeAsText(t *testing.T) {
	l := newTestLuna(&fakeCompleter{}, &fakeSpeech{})
	session := l.sessions.getOrInit(1)
	session.voiceReplyEnabled = true

	turns := []Turn{{Role: roleAssistant, Content: "before ```x=1``` after"}}
	actions, err := l.speak(context.Background(), turns, session)

	require.NoError(t, err)
	require.Len(t, actions, 3)

	assert.Equal(t, actionSendVoice, actions[0].kind)
	assert.Equal(t, "before ", string(actions[0].audio))

	assert.Equal(t, actionSendText, actions[1].kind)
	assert.Equal(t, "```x=1```", actions[1].text)

	assert.Equal(t, actionSendVoice, actions[2].kind)
	assert.Equal(t, " after", string(actions[2].audio))
}

func TestSpeakSkipsEmptyTextSegments(t *testing.T) {
	l := newTestLuna(&fakeCompleter{}, &fakeSpeech{})
	session := l.sessions.getOrInit(1)

	turns := []Turn{{Role: roleAssistant, Content: "```a``````b```"}}
	actions, err := l.speak(context.Background(), turns, session)

	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, actionSendText, actions[0].kind)
	assert.Equal(t, "```a```", actions[0].text)
	assert.Equal(t, "```b```", actions[1].text)
}

func TestSpeakPlainTurnIsSingleVoiceAction(t *testing.T) {
	l := newTestLuna(&fakeCompleter{}, &fakeSpeech{})
	session := l.sessions.getOrInit(1)

	actions, err := l.speak(context.Background(), []Turn{{Role: roleAssistant, Content: "hello there"}}, session)

	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, actionSendVoice, actions[0].kind)
}

func TestSpeakSynthesisFailureFallsBackToText(t *testing.T) {
	l := newTestLuna(&fakeCompleter{}, &fakeSpeech{failOn: "broken"})
	session := l.sessions.getOrInit(1)

	turns := []Turn{
		{Role: roleAssistant, Content: "this one is broken ```c``` tail"},
		{Role: roleAssistant, Content: "this one is fine"},
	}
	actions, err := l.speak(context.Background(), turns, session)

	// 错误上抛用于记录, 但每个回合仍然有投递动作
	require.Error(t, err)
	require.Len(t, actions, 2)

	assert.Equal(t, actionSendText, actions[0].kind)
	assert.Equal(t, "this one is broken ```c``` tail", actions[0].text)

	assert.Equal(t, actionSendVoice, actions[1].kind)
	assert.Equal(t, "this one is fine", string(actions[1].audio))
}

func TestSpeakUnsupportedSessionLanguageFallsBackToText(t *testing.T) {
	l := newTestLuna(&fakeCompleter{}, &fakeSpeech{})
	session := l.sessions.getOrInit(1)
	session.language = "de-DE"

	actions, err := l.speak(context.Background(), []Turn{{Role: roleAssistant, Content: "hallo"}}, session)

	require.ErrorIs(t, err, errUnsupportedLanguage)
	require.Len(t, actions, 1)
	assert.Equal(t, actionSendText, actions[0].kind)
	assert.Equal(t, "hallo", actions[0].text)
}
