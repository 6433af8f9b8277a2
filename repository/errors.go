package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrDuplicateUser = errors.New("user with this email already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlbumNotFound = errors.New("album not found")
)

// isDuplicateKey 判断是否为唯一键冲突（MySQL/SQLite）
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
