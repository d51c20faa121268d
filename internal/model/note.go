package model

import "time"

// swagger:model Note
type Note struct {
	OwnedModel
	Title   string `gorm:"size:255;not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`
	Public  bool   `gorm:"index;default:false" json:"public"`
}

// VisibleTo 公开笔记对所有人可见，私有笔记仅作者可见
func (n *Note) VisibleTo(userID uint) bool {
	return n.Public || n.OwnedBy(userID)
}

func (Note) TableName() string {
	return "notes"
}

// Vote 每个用户对每篇笔记至多一票，Value 取 1 或 -1
type Vote struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	UserID    uint `gorm:"uniqueIndex:idx_vote_user_note;not null"`
	NoteID    uint `gorm:"uniqueIndex:idx_vote_user_note;index;not null"`
	Value     int  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Vote) TableName() string {
	return "votes"
}

type Bookmark struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	UserID    uint `gorm:"uniqueIndex:idx_bookmark_user_note;not null"`
	NoteID    uint `gorm:"uniqueIndex:idx_bookmark_user_note;index;not null"`
	CreatedAt time.Time
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
