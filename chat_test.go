package luna

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverseSeedsAndCommits(t *testing.T) {
	fake := &fakeCompleter{turns: []Turn{{Role: roleAssistant, Content: "hi"}}}
	l := newTestLuna(fake, &fakeSpeech{})

	session := l.sessions.getOrInit(1)
	turns, err := l.converse(context.Background(), 1, session, "hello")

	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hi", turns[0].Content)

	// system指令 + 用户消息 + assistant回复
	require.Len(t, session.history, 3)
	assert.Equal(t, roleSystem, session.history[0].Role)
	assert.Equal(t, roleUser, session.history[1].Role)
	assert.Equal(t, "hello", session.history[1].Content)
	assert.Equal(t, roleAssistant, session.history[2].Role)

	// 补全接口收到的上下文以system指令开头
	require.NotEmpty(t, fake.gotHistory)
	assert.Equal(t, roleSystem, fake.gotHistory[0].Role)
}

func TestConverseAccumulatesAcrossRounds(t *testing.T) {
	fake := &fakeCompleter{turns: []Turn{{Role: roleAssistant, Content: "first"}}}
	l := newTestLuna(fake, &fakeSpeech{})
	session := l.sessions.getOrInit(1)

	_, err := l.converse(context.Background(), 1, session, "one")
	require.NoError(t, err)

	fake.turns = []Turn{{Role: roleAssistant, Content: "second"}}
	_, err = l.converse(context.Background(), 1, session, "two")
	require.NoError(t, err)

	// 第二轮不重新播种, system指令只有一条
	require.Len(t, session.history, 5)
	assert.Equal(t, roleSystem, session.history[0].Role)
	assert.Equal(t, "two", session.history[3].Content)
	assert.Equal(t, "second", session.history[4].Content)
	assert.Equal(t, 2, countUserTurns(session.history))
}

func TestConverseFailureResetsHistory(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	l := newTestLuna(fake, &fakeSpeech{})
	session := l.sessions.getOrInit(1)
	session.history = []Turn{
		{Role: roleSystem, Content: "instruction"},
		{Role: roleUser, Content: "earlier"},
		{Role: roleAssistant, Content: "reply"},
	}

	_, err := l.converse(context.Background(), 1, session, "hello")

	require.Error(t, err)
	// 失败后历史彻底清空, 绝不留下没有回复的用户消息
	assert.Len(t, session.history, 0)

	// 下一条消息重新播种角色指令
	fake.err = nil
	fake.turns = []Turn{{Role: roleAssistant, Content: "recovered"}}
	_, err = l.converse(context.Background(), 1, session, "again")
	require.NoError(t, err)
	require.Len(t, session.history, 3)
	assert.Equal(t, roleSystem, session.history[0].Role)
}

func TestConverseEmptyCompletionIsFailure(t *testing.T) {
	fake := &fakeCompleter{err: errEmptyCompletion}
	l := newTestLuna(fake, &fakeSpeech{})
	session := l.sessions.getOrInit(1)

	_, err := l.converse(context.Background(), 1, session, "hello")
	assert.ErrorIs(t, err, errEmptyCompletion)
	assert.Empty(t, session.history)
}

func TestConverseRejectsBlankMessage(t *testing.T) {
	fake := &fakeCompleter{turns: []Turn{{Role: roleAssistant, Content: "hi"}}}
	l := newTestLuna(fake, &fakeSpeech{})
	session := l.sessions.getOrInit(1)
	session.history = []Turn{
		{Role: roleSystem, Content: "instruction"},
		{Role: roleUser, Content: "earlier"},
		{Role: roleAssistant, Content: "reply"},
	}

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := l.converse(context.Background(), 1, session, text)
		require.Error(t, err)
	}

	// 空消息不打补全接口, 也不动历史
	assert.Equal(t, 0, fake.calls)
	assert.Len(t, session.history, 3)
}

func TestConverseUnknownPersonaDoesNotMutate(t *testing.T) {
	fake := &fakeCompleter{turns: []Turn{{Role: roleAssistant, Content: "hi"}}}
	l := newTestLuna(fake, &fakeSpeech{})
	session := l.sessions.getOrInit(1)
	session.persona = "poet"

	_, err := l.converse(context.Background(), 1, session, "hello")

	assert.ErrorIs(t, err, errUnknownPersona)
	assert.Empty(t, session.history)
	assert.Equal(t, 0, fake.calls)
}

func TestPersonaSwitchReseedsNextConverse(t *testing.T) {
	fake := &fakeCompleter{turns: []Turn{{Role: roleAssistant, Content: "hi"}}}
	l := newTestLuna(fake, &fakeSpeech{})
	session := l.sessions.getOrInit(1)

	_, err := l.converse(context.Background(), 1, session, "hello")
	require.NoError(t, err)

	_, err = applyCommand(session, pickPersonaCommand{persona: personaBuddy})
	require.NoError(t, err)

	_, err = l.converse(context.Background(), 1, session, "hey")
	require.NoError(t, err)

	expected, err := instructionsFor(personaBuddy, session.personaExtras, session.language)
	require.NoError(t, err)
	require.NotEmpty(t, session.history)
	assert.Equal(t, expected[0], session.history[0])
}

func TestTrimHistoryToMaxRounds(t *testing.T) {
	history := []Turn{
		{Role: roleSystem, Content: "instruction"},
		{Role: roleUser, Content: "q1"},
		{Role: roleAssistant, Content: "a1"},
		{Role: roleUser, Content: "q2"},
		{Role: roleAssistant, Content: "a2"},
		{Role: roleUser, Content: "q3"},
		{Role: roleAssistant, Content: "a3"},
	}

	t.Run("zero keeps everything", func(t *testing.T) {
		assert.Len(t, trimHistoryToMaxRounds(history, 0), 7)
	})

	t.Run("fewer rounds than max keeps everything", func(t *testing.T) {
		assert.Len(t, trimHistoryToMaxRounds(history, 5), 7)
	})

	t.Run("trims oldest rounds but keeps the system turn", func(t *testing.T) {
		trimmed := trimHistoryToMaxRounds(history, 2)

		require.Len(t, trimmed, 5)
		assert.Equal(t, roleSystem, trimmed[0].Role)
		assert.Equal(t, "q2", trimmed[1].Content)
		assert.Equal(t, "a3", trimmed[4].Content)
		assert.Equal(t, 2, countUserTurns(trimmed))
	})
}
