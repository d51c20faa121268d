package repository

import (
	"studynotes_backend/internal/model"

	"gorm.io/gorm"
)

type FileRepository struct {
	DB *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{DB: db}
}

func (r *FileRepository) Create(file *model.File) error {
	return r.DB.Create(file).Error
}

func (r *FileRepository) FindByID(id uint) (*model.File, error) {
	var file model.File
	err := r.DB.First(&file, id).Error
	return &file, err
}

func (r *FileRepository) Update(file *model.File) error {
	return r.DB.Save(file).Error
}

// FindOwned 按给定顺序返回属于 userID 的文件，不属于或不存在的被忽略
func (r *FileRepository) FindOwned(userID uint, ids []uint) ([]model.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var files []model.File
	if err := r.DB.Where("user_id = ? AND id IN ?", userID, ids).Find(&files).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]model.File, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}
	ordered := make([]model.File, 0, len(files))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
			delete(byID, id)
		}
	}
	return ordered, nil
}
