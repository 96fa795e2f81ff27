package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 后台用户 — 对应 users
type User struct {
	UserID       string `gorm:"type:varchar(36);primaryKey"           json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	DisplayName  string `gorm:"type:varchar(100)"                     json:"display_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"            json:"-"`
	Role         string `gorm:"type:varchar(20);not null"             json:"role"` // admin | staff
	IsActive     bool   `gorm:"not null"                              json:"is_active"`
	BaseModel
}

func (User) TableName() string { return "users" }

// BeforeCreate 生成 UUID 主键
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	return nil
}
