package luna

import "gorm.io/gorm"

type allowedUserRecord struct {
	gorm.Model

	UserID  int64
	IsAdmin bool
}
