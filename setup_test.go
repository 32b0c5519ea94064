package luna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotCommandsUseConfiguredLanguage(t *testing.T) {
	en := botCommands("en-US")
	ru := botCommands("ru-RU")

	require.Len(t, en, 4)
	require.Len(t, ru, 4)

	for i := range en {
		assert.Equal(t, en[i].Command, ru[i].Command)
		assert.NotEmpty(t, ru[i].Description)
		// ru部署的命令菜单不能是英文的
		assert.NotEqual(t, en[i].Description, ru[i].Description)
	}

	assert.Equal(t, tr("ru-RU", "cmd.start"), ru[0].Description)
}
