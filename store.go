package luna

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// isUserAllowed 判断用户是否在白名单里
// 白名单为空时, 第一个来的用户自动成为管理员
func (l *Luna) isUserAllowed(ctx context.Context, userID int64) bool {
	hasAny, err := l.hasAnyUser(ctx)
	if err != nil {
		return false
	}
	if !hasAny {
		if err := l.createUser(ctx, userID, true); err != nil {
			l.logger.Error("创建首个管理员失败", zap.Error(err))
			return false
		}
		l.logger.Info("首个管理员已创建", zap.Int64("UserID", userID))
		return true
	}

	_, err = gorm.G[allowedUserRecord](l.db).Where("user_id = ?", userID).Last(ctx)
	return err == nil
}

func (l *Luna) hasAnyUser(ctx context.Context) (bool, error) {
	records, err := gorm.G[allowedUserRecord](l.db).Limit(1).Find(ctx)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (l *Luna) createUser(ctx context.Context, userID int64, isAdmin bool) error {
	return gorm.G[allowedUserRecord](l.db).Create(ctx, &allowedUserRecord{
		UserID:  userID,
		IsAdmin: isAdmin,
	})
}

func (l *Luna) deleteUser(ctx context.Context, userID int64) error {
	_, err := gorm.G[allowedUserRecord](l.db).Where("user_id = ?", userID).Delete(ctx)
	return err
}

func (l *Luna) loadUsers(ctx context.Context) ([]allowedUserRecord, error) {
	return gorm.G[allowedUserRecord](l.db).Find(ctx)
}

func (l *Luna) isAdmin(ctx context.Context, userID int64) bool {
	record, err := gorm.G[allowedUserRecord](l.db).Where("user_id = ? AND is_admin = ?", userID, true).Last(ctx)
	if err != nil {
		return false
	}
	return record.IsAdmin
}
