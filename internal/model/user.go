package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Username string `gorm:"size:128;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:128;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	// 头像在存储中的对象键，空表示未设置
	AvatarKey string    `gorm:"size:255" json:"-"`
	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) HasProfilePicture() bool {
	return u.AvatarKey != ""
}

// Token 已签发令牌的 SHA-256 摘要，用于注销与吊销
type Token struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Token) TableName() string {
	return "tokens"
}
