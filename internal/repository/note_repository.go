package repository

import (
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteRepository struct {
	DB *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

// Create 在同一事务内写入笔记和文件关联
func (r *NoteRepository) Create(note *model.Note, fileIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(note).Error; err != nil {
			return err
		}
		return attachFiles(tx, note.ID, fileIDs)
	})
}

func (r *NoteRepository) FindByID(id uint) (*model.Note, error) {
	var note model.Note
	err := r.DB.First(&note, id).Error
	return &note, err
}

func (r *NoteRepository) Update(note *model.Note) error {
	return r.DB.Save(note).Error
}

func (r *NoteRepository) FindByUser(userID uint) ([]model.Note, error) {
	var notes []model.Note
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) FindPublicByUser(userID uint) ([]model.Note, error) {
	var notes []model.Note
	err := r.DB.Where("user_id = ? AND public = ?", userID, true).
		Order("created_at DESC, id DESC").
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) FindPublic() ([]model.Note, error) {
	var notes []model.Note
	err := r.DB.Where("public = ?", true).
		Order("created_at DESC, id DESC").
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) FindBookmarked(userID uint) ([]model.Note, error) {
	var notes []model.Note
	err := r.DB.Joins("JOIN bookmarks ON bookmarks.note_id = notes.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC, bookmarks.id DESC").
		Find(&notes).Error
	return notes, err
}

// Delete 删除笔记及其投票、收藏、文件关联、测验和闪卡
func (r *NoteRepository) Delete(noteID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", noteID).Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", noteID).Delete(&model.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", noteID).Delete(&model.NoteFile{}).Error; err != nil {
			return err
		}

		var quizIDs []uint
		if err := tx.Unscoped().Model(&model.Quiz{}).Where("note_id = ?", noteID).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&model.QuizQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", quizIDs).Delete(&model.Quiz{}).Error; err != nil {
				return err
			}
		}

		var deckIDs []uint
		if err := tx.Unscoped().Model(&model.FlashcardDeck{}).Where("note_id = ?", noteID).Pluck("id", &deckIDs).Error; err != nil {
			return err
		}
		if len(deckIDs) > 0 {
			if err := tx.Where("deck_id IN ?", deckIDs).Delete(&model.Flashcard{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", deckIDs).Delete(&model.FlashcardDeck{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Note{}, noteID).Error
	})
}

// NoteStats 列表渲染需要的聚合数据
type NoteStats struct {
	Saves        map[uint]int
	Scores       map[uint]int
	UserVotes    map[uint]int
	UserBookmark map[uint]bool
	FileIDs      map[uint][]uint
}

// LoadStats 批量加载一组笔记的收藏数、得分、当前用户投票与收藏状态
func (r *NoteRepository) LoadStats(noteIDs []uint, userID uint) (*NoteStats, error) {
	stats := &NoteStats{
		Saves:        make(map[uint]int),
		Scores:       make(map[uint]int),
		UserVotes:    make(map[uint]int),
		UserBookmark: make(map[uint]bool),
		FileIDs:      make(map[uint][]uint),
	}
	if len(noteIDs) == 0 {
		return stats, nil
	}

	var saves []struct {
		NoteID uint
		Count  int
	}
	if err := r.DB.Model(&model.Bookmark{}).
		Select("note_id, COUNT(*) AS count").
		Where("note_id IN ?", noteIDs).
		Group("note_id").
		Scan(&saves).Error; err != nil {
		return nil, err
	}
	for _, s := range saves {
		stats.Saves[s.NoteID] = s.Count
	}

	var scores []struct {
		NoteID uint
		Total  int
	}
	if err := r.DB.Model(&model.Vote{}).
		Select("note_id, COALESCE(SUM(value), 0) AS total").
		Where("note_id IN ?", noteIDs).
		Group("note_id").
		Scan(&scores).Error; err != nil {
		return nil, err
	}
	for _, s := range scores {
		stats.Scores[s.NoteID] = s.Total
	}

	var votes []model.Vote
	if err := r.DB.Where("user_id = ? AND note_id IN ?", userID, noteIDs).Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		stats.UserVotes[v.NoteID] = v.Value
	}

	var marks []model.Bookmark
	if err := r.DB.Where("user_id = ? AND note_id IN ?", userID, noteIDs).Find(&marks).Error; err != nil {
		return nil, err
	}
	for _, m := range marks {
		stats.UserBookmark[m.NoteID] = true
	}

	var links []model.NoteFile
	if err := r.DB.Where("note_id IN ?", noteIDs).Order("file_id").Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		stats.FileIDs[l.NoteID] = append(stats.FileIDs[l.NoteID], l.FileID)
	}

	return stats, nil
}

// SetVote value 为 0 时撤销投票，否则插入或覆盖
func (r *NoteRepository) SetVote(userID, noteID uint, value int) error {
	if value == util.VoteNone {
		return r.DB.Where("user_id = ? AND note_id = ?", userID, noteID).Delete(&model.Vote{}).Error
	}
	vote := model.Vote{UserID: userID, NoteID: noteID, Value: value}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "note_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&vote).Error
}

// ToggleBookmark 返回切换后的状态
func (r *NoteRepository) ToggleBookmark(userID, noteID uint) (bool, error) {
	var bookmarked bool
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND note_id = ?", userID, noteID).Delete(&model.Bookmark{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			bookmarked = false
			return nil
		}
		bookmarked = true
		return tx.Create(&model.Bookmark{UserID: userID, NoteID: noteID}).Error
	})
	return bookmarked, err
}

func (r *NoteRepository) AttachFiles(noteID uint, fileIDs []uint) error {
	return attachFiles(r.DB, noteID, fileIDs)
}

func attachFiles(db *gorm.DB, noteID uint, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	links := make([]model.NoteFile, 0, len(fileIDs))
	for _, id := range fileIDs {
		links = append(links, model.NoteFile{NoteID: noteID, FileID: id})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}
