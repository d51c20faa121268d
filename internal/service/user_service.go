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
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserResponse 当前用户信息
// swagger:model UserResponse
type UserResponse struct {
	ID                uint      `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	HasProfilePicture bool      `json:"hasProfilePicture"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
	}
}

func (s *UserService) find(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// Me 包含邮箱
func (s *UserService) Me(id uint) (*UserResponse, error) {
	user, err := s.find(id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	resp.Email = user.Email
	return resp, nil
}

// Profile 公开资料，不含邮箱
func (s *UserService) Profile(id uint) (*UserResponse, error) {
	user, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		CreatedAt:         u.CreatedAt,
		HasProfilePicture: u.HasProfilePicture(),
	}
}

// Avatar 调用方负责关闭返回的内容
func (s *UserService) Avatar(ctx context.Context, id uint) (io.ReadCloser, error) {
	user, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !user.HasProfilePicture() {
		return nil, ErrObjectNotFound
	}
	return s.Storage.Get(ctx, user.AvatarKey)
}

// SetAvatar 只能修改自己的头像
func (s *UserService) SetAvatar(ctx context.Context, targetID, callerID uint, data []byte) error {
	if targetID != callerID {
		return util.ErrPermissionDenied
	}
	if len(data) > util.MaxAvatarBytes {
		return util.ErrFileTooLarge
	}
	mimeType, err := util.DetectImage(data)
	if err != nil {
		return fmt.Errorf("%w: %s", util.ErrInvalidFileType, mimeType)
	}

	user, err := s.find(targetID)
	if err != nil {
		return err
	}

	key := NewKey(fmt.Sprintf("%s/%d", util.AvatarsPrefix, user.ID), "")
	if err := s.Storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	if err := s.UserRepo.UpdateAvatar(user.ID, key); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}

	if user.AvatarKey != "" {
		if err := s.Storage.Delete(ctx, user.AvatarKey); err != nil {
			logger.Log.Warn("Failed to delete previous avatar", zap.String("key", user.AvatarKey), zap.Error(err))
		}
	}
	return nil
}
