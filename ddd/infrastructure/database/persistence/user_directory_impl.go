package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/ddd/infrastructure/database/dao"
	"club-notification-service/pkg/errno"
)

type userDirectoryImpl struct {
	dao *dao.UserDao
}

// NewUserDirectory reads recipient addresses from the shared users table.
func NewUserDirectory(db *gorm.DB) drepo.UserDirectory {
	return &userDirectoryImpl{dao: dao.NewUserDao(db)}
}

func (d *userDirectoryImpl) EmailOf(ctx context.Context, userID string) (string, error) {
	u, err := d.dao.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errno.NewSimpleBizError(errno.ErrNotFound, err, "user "+userID)
		}
		return "", errno.NewSimpleBizError(errno.ErrDatabase, err, "lookup user email")
	}
	if u.Email == "" {
		return "", errno.NewSimpleBizError(errno.ErrNotFound, nil, "email of user "+userID)
	}
	return u.Email, nil
}
