package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/repository"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/logger"
	"studynotes_backend/pkg/messaging"
	"studynotes_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadedFile 单个上传部分
type UploadedFile struct {
	Filename string
	Data     []byte
}

// UploadResult swagger:model UploadResult
type UploadResult struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
}

type UpdateFileInput struct {
	Filename *string
	OCR      *string
}

type FileService struct {
	FileRepo  *repository.FileRepository
	Storage   *StorageService
	Publisher messaging.Publisher
}

func NewFileService(fileRepo *repository.FileRepository, storage *StorageService, publisher messaging.Publisher) *FileService {
	return &FileService{
		FileRepo:  fileRepo,
		Storage:   storage,
		Publisher: publisher,
	}
}

// Upload 先校验全部文件再写入，任一不是图片则整体拒绝
func (s *FileService) Upload(ctx context.Context, userID uint, uploads []UploadedFile) ([]UploadResult, error) {
	types := make([]string, len(uploads))
	for i, u := range uploads {
		mimeType, err := util.DetectImage(u.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", util.ErrInvalidFileType, mimeType)
		}
		types[i] = mimeType
	}

	results := make([]UploadResult, 0, len(uploads))
	for i, u := range uploads {
		filename := util.SanitizeFilename(u.Filename)
		key := NewKey(fmt.Sprintf("%s/%d", util.FilesPrefix, userID), filename)

		if err := s.Storage.Put(ctx, key, bytes.NewReader(u.Data), int64(len(u.Data)), types[i]); err != nil {
			return nil, fmt.Errorf("store file: %w", err)
		}

		file := &model.File{
			OwnedModel:  model.OwnedModel{UserID: userID},
			Filename:    filename,
			StorageKey:  key,
			ContentType: types[i],
			Size:        int64(len(u.Data)),
		}
		if err := s.FileRepo.Create(file); err != nil {
			if delErr := s.Storage.Delete(ctx, key); delErr != nil {
				logger.Log.Warn("Failed to remove orphaned object", zap.String("key", key), zap.Error(delErr))
			}
			return nil, fmt.Errorf("create file: %w", err)
		}

		monitoring.FilesUploaded.Inc()
		if err := s.Publisher.Publish(ctx, messaging.NewEvent(messaging.EventFileUploaded, map[string]interface{}{
			"fileId":      file.ID,
			"userId":      userID,
			"contentType": file.ContentType,
			"size":        file.Size,
		})); err != nil {
			logger.Log.Warn("Failed to publish upload event", zap.Uint("fileID", file.ID), zap.Error(err))
		}

		results = append(results, UploadResult{ID: file.ID, Filename: file.Filename})
	}
	return results, nil
}

func (s *FileService) Find(fileID uint) (*model.File, error) {
	file, err := s.FileRepo.FindByID(fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrFileNotFound
	}
	return file, err
}

// Open 返回文件元数据与内容，调用方负责关闭
func (s *FileService) Open(ctx context.Context, fileID uint) (*model.File, io.ReadCloser, error) {
	file, err := s.Find(fileID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.Storage.Get(ctx, file.StorageKey)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, nil, util.ErrFileNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return file, body, nil
}

func (s *FileService) Update(fileID, userID uint, in UpdateFileInput) (*model.File, error) {
	file, err := s.Find(fileID)
	if err != nil {
		return nil, err
	}
	if !file.OwnedBy(userID) {
		return nil, util.ErrPermissionDenied
	}

	if in.Filename != nil {
		file.Filename = util.SanitizeFilename(*in.Filename)
	}
	if in.OCR != nil {
		file.OCR = in.OCR
	}
	if err := s.FileRepo.Update(file); err != nil {
		return nil, fmt.Errorf("update file: %w", err)
	}
	return file, nil
}

// OCRText 按给定顺序拼接调用者文件的识别文本
func (s *FileService) OCRText(userID uint, fileIDs []uint) (string, error) {
	fileIDs = dedupe(fileIDs)
	files, err := s.FileRepo.FindOwned(userID, fileIDs)
	if err != nil {
		return "", err
	}
	if len(files) != len(fileIDs) {
		return "", util.ErrFileNotFound
	}

	var buf bytes.Buffer
	for _, f := range files {
		if f.OCR == nil || *f.OCR == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(*f.OCR)
	}
	if buf.Len() == 0 {
		return "", util.ErrNoOCRText
	}
	return buf.String(), nil
}
