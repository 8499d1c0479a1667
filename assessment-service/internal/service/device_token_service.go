package service

import (
	"context"
	"fmt"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeviceTokenService управляет пуш-токенами устройств пользователя.
type DeviceTokenService interface {
	// RegisterDeviceToken сохраняет (или обновляет) токен устройства.
	RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error
	// UnregisterDeviceToken удаляет токен устройства. Удаление отсутствующего
	// токена не считается ошибкой.
	UnregisterDeviceToken(ctx context.Context, token string) error
}

var _ DeviceTokenService = (*deviceTokenService)(nil)

type deviceTokenService struct {
	repo   interfaces.UserDeviceTokenRepository
	logger *zap.Logger
}

func NewDeviceTokenService(repo interfaces.UserDeviceTokenRepository, logger *zap.Logger) DeviceTokenService {
	return &deviceTokenService{
		repo:   repo,
		logger: logger.Named("DeviceTokenService"),
	}
}

func (s *deviceTokenService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	if token == "" {
		return fmt.Errorf("%w: empty device token", models.ErrInvalidInput)
	}
	switch platform {
	case "ios", "android":
	default:
		return fmt.Errorf("%w: unsupported platform %q", models.ErrInvalidInput, platform)
	}

	if err := s.repo.SaveDeviceToken(ctx, userID, token, platform); err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	s.logger.Info("Device token registered",
		zap.String("userID", userID.String()),
		zap.String("platform", platform),
	)
	return nil
}

func (s *deviceTokenService) UnregisterDeviceToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty device token", models.ErrInvalidInput)
	}
	if err := s.repo.DeleteDeviceToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}
