package service

import (
	"errors"
	"fmt"
	"studynotes_backend/internal/config"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/repository"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo  *repository.UserRepository
	TokenRepo *repository.TokenRepository
	Cfg       *config.JWTConfig
}

func NewAuthService(userRepo *repository.UserRepository, tokenRepo *repository.TokenRepository, cfg *config.JWTConfig) *AuthService {
	return &AuthService{
		UserRepo:  userRepo,
		TokenRepo: tokenRepo,
		Cfg:       cfg,
	}
}

func (s *AuthService) Register(username, email, password string) (*model.User, error) {
	usernameTaken, emailTaken, err := s.UserRepo.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, util.ErrUsernameTaken
	}
	if emailTaken {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login 未知用户与密码错误返回同一个错误
func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", util.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	token, expiresAt, err := util.GenerateJWT(user.ID, user.Username, s.Cfg.Secret, s.Cfg.ExpireTime)
	if err != nil {
		return "", err
	}

	if err := s.TokenRepo.Create(&model.Token{
		UserID:    user.ID,
		TokenHash: util.HashToken(token),
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userID", user.ID), zap.Error(err))
	}

	return token, nil
}

// Authenticate 令牌需签名有效、未过期且未被注销
func (s *AuthService) Authenticate(token string) (*util.Claims, error) {
	claims, err := util.ParseJWT(token, s.Cfg.Secret)
	if err != nil {
		return nil, util.ErrInvalidToken
	}

	ok, err := s.TokenRepo.Exists(util.HashToken(token))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) Logout(token string) error {
	return s.TokenRepo.DeleteByHash(util.HashToken(token))
}

// SweepExpiredTokens 由定时任务调用
func (s *AuthService) SweepExpiredTokens() (int64, error) {
	return s.TokenRepo.DeleteExpired(time.Now())
}
