package model

import (
	"time"

	"gorm.io/gorm"
)

// swagger:model
type BaseModel struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`
	// 动态按创建时间倒序，需要索引
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OwnedModel 归属某个用户的资源
type OwnedModel struct {
	BaseModel
	UserID uint `gorm:"index;not null" json:"userId"`
}

func (m OwnedModel) OwnedBy(userID uint) bool {
	return m.UserID == userID
}
