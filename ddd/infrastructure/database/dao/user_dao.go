package dao

import (
	"context"

	"gorm.io/gorm"

	"club-notification-service/ddd/infrastructure/database/po"
)

type UserDao struct {
	db *gorm.DB
}

func NewUserDao(db *gorm.DB) *UserDao {
	return &UserDao{db: db}
}

func (d *UserDao) Get(ctx context.Context, id string) (*po.User, error) {
	var u po.User
	if err := d.db.WithContext(ctx).Select("id", "email").Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
