package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo repository.UserStore
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// RegisterTelegramUser registers or refreshes a user seen by the bot
func (s *UserService) RegisterTelegramUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	existingUser, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existingUser != nil {
		if existingUser.Username == username {
			return existingUser, nil
		}
		existingUser.Username = username
		if err := s.userRepo.Update(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Info("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)

		return existingUser, nil
	}

	user := &model.User{
		TelegramID:  &telegramID,
		Username:    username,
		DisplayName: normalizeName(firstName + " " + lastName),
		Role:        model.RoleStudent,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID returns the user or nil
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// GetByID returns the user or nil
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// MakeExpert promotes a user; experts are listed under displayName
func (s *UserService) MakeExpert(ctx context.Context, userID int64, displayName string) (*model.User, error) {
	displayName = normalizeName(displayName)
	if displayName == "" {
		return nil, validationError("display name is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("user %d", userID)
	}

	user.Role = model.RoleExpert
	user.DisplayName = displayName
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User became expert",
		zap.Int64("user_id", user.ID),
		zap.String("display_name", displayName),
	)

	return user, nil
}
