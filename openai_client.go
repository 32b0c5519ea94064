package luna

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// openaiCompleter 通过OpenAI兼容接口实现补全调用
// 不走流式: 语音管线需要拿到完整回复后才能切分, 流式在这里没有收益
type openaiCompleter struct {
	client *openai.Client
	model  string
}

func (c *openaiCompleter) complete(ctx context.Context, history []Turn) ([]Turn, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case roleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case roleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.model,
	})
	if err != nil {
		return nil, err
	}

	turns := make([]Turn, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice.Message.Content == "" {
			continue
		}
		turns = append(turns, Turn{Role: roleAssistant, Content: choice.Message.Content})
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: model %q", errEmptyCompletion, c.model)
	}

	return turns, nil
}
