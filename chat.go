package luna

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// converse 处理一轮AI对话
// 调用方必须已持有session锁. 历史在工作副本上累积,
// 补全成功才一次性提交; 失败时整个历史被清空(下一条消息重新播种角色指令),
// 绝不把没有回复的用户消息留在历史里
func (l *Luna) converse(ctx context.Context, userID int64, session *userSession, messageText string) ([]Turn, error) {
	if strings.TrimSpace(messageText) == "" {
		// 空消息不值得一次补全调用, 也不动会话状态
		return nil, errors.New("empty message text")
	}

	working := slices.Clone(session.history)

	if len(working) == 0 {
		seed, err := instructionsFor(session.persona, session.personaExtras, session.language)
		if err != nil {
			return nil, err
		}
		working = append(working, seed...)
	}

	working = append(working, Turn{Role: roleUser, Content: messageText})

	l.logger.Debug("调用补全API",
		zap.Int64("UserID", userID),
		zap.String("Persona", session.persona),
		zap.Int("ContextMessages", len(working)),
	)

	turns, err := l.completer.complete(ctx, working)
	if err == nil && len(turns) == 0 {
		err = errEmptyCompletion
	}
	if err != nil {
		// 快速失败并重置, 宁可丢上下文也不要悬挂的半个回合
		session.clearHistory()
		l.logger.Error("补全失败, 会话历史已重置",
			zap.Int64("UserID", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("completion: %w", err)
	}

	session.history = append(working, turns...)
	session.history = trimHistoryToMaxRounds(session.history, l.config.MaxRounds)

	l.logger.Info("会话完成",
		zap.Int64("UserID", userID),
		zap.Int("AssistantTurns", len(turns)),
		zap.Int("TotalMessages", len(session.history)),
		zap.Int("RoundsInMemory", countUserTurns(session.history)),
	)

	return turns, nil
}

func isUserTurn(turn Turn) bool {
	return turn.Role == roleUser
}

func countUserTurns(history []Turn) int {
	count := 0
	for _, turn := range history {
		if isUserTurn(turn) {
			count++
		}
	}
	return count
}

// trimHistoryToMaxRounds 把保留的历史裁剪到最近maxRounds轮,
// 开头的system指令永远保留
func trimHistoryToMaxRounds(history []Turn, maxRounds int) []Turn {
	if maxRounds <= 0 {
		return history
	}

	rounds := 0
	start := 0
	for i := len(history) - 1; i >= 0; i-- {
		if isUserTurn(history[i]) {
			rounds++
			if rounds == maxRounds {
				start = i
				break
			}
		}
	}
	if rounds < maxRounds || start == 0 {
		return history
	}

	trimmed := history[start:]
	if history[0].Role == roleSystem {
		trimmed = append([]Turn{history[0]}, trimmed...)
	}
	return trimmed
}
