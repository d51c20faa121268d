package repository

import (
	"studynotes_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TokenRepository struct {
	DB *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

func (r *TokenRepository) Create(token *model.Token) error {
	return r.DB.Create(token).Error
}

// Exists 摘要存在且未过期
func (r *TokenRepository) Exists(hash string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Token{}).
		Where("token_hash = ? AND expires_at > ?", hash, time.Now()).
		Count(&count).Error
	return count > 0, err
}

func (r *TokenRepository) DeleteByHash(hash string) error {
	return r.DB.Where("token_hash = ?", hash).Delete(&model.Token{}).Error
}

// DeleteExpired 返回删除的行数
func (r *TokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.DB.Where("expires_at <= ?", now).Delete(&model.Token{})
	return result.RowsAffected, result.Error
}
