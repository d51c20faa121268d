package repository

import (
	"studynotes_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) FindByNote(noteID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Where("note_id = ?", noteID).First(&quiz).Error
	return &quiz, err
}

func (r *QuizRepository) ExistsForNote(noteID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Quiz{}).Where("note_id = ?", noteID).Count(&count).Error
	return count > 0, err
}

// Create 同时写入题目
func (r *QuizRepository) Create(quiz *model.Quiz) error {
	for i := range quiz.Questions {
		quiz.Questions[i].Position = i
	}
	return r.DB.Create(quiz).Error
}

type FlashcardRepository struct {
	DB *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) *FlashcardRepository {
	return &FlashcardRepository{DB: db}
}

func (r *FlashcardRepository) FindByNote(noteID uint) (*model.FlashcardDeck, error) {
	var deck model.FlashcardDeck
	err := r.DB.Preload("Cards", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Where("note_id = ?", noteID).First(&deck).Error
	return &deck, err
}

func (r *FlashcardRepository) ExistsForNote(noteID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.FlashcardDeck{}).Where("note_id = ?", noteID).Count(&count).Error
	return count > 0, err
}

func (r *FlashcardRepository) Create(deck *model.FlashcardDeck) error {
	for i := range deck.Cards {
		deck.Cards[i].Position = i
	}
	return r.DB.Create(deck).Error
}
