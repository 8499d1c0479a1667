package service

import (
	"context"
	"fmt"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenProvider определяет интерфейс для получения токенов устройств пользователя.
type TokenProvider interface {
	GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error)
}

// --- Провайдер поверх таблицы токенов ---

// dbTokenProvider читает токены напрямую из общей таблицы user_device_tokens.
type dbTokenProvider struct {
	repo   interfaces.UserDeviceTokenRepository
	logger *zap.Logger
}

// NewDBTokenProvider создает провайдер токенов поверх репозитория.
func NewDBTokenProvider(repo interfaces.UserDeviceTokenRepository, logger *zap.Logger) TokenProvider {
	if repo == nil {
		logger.Warn("Репозиторий токенов не передан, используется заглушка TokenProvider")
		return &stubTokenProvider{logger: logger}
	}
	return &dbTokenProvider{
		repo:   repo,
		logger: logger.Named("db_token_provider"),
	}
}

func (p *dbTokenProvider) GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error) {
	tokens, err := p.repo.GetDeviceTokensForUser(ctx, userID)
	if err != nil {
		p.logger.Error("Ошибка чтения токенов устройства", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения токенов устройства: %w", err)
	}
	p.logger.Debug("Токены устройства получены", zap.String("user_id", userID.String()), zap.Int("count", len(tokens)))
	return tokens, nil
}

// --- Заглушка для TokenProvider ---

type stubTokenProvider struct {
	logger *zap.Logger
}

func (p *stubTokenProvider) GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error) {
	p.logger.Warn("Используется ЗАГЛУШКА для TokenProvider", zap.String("user_id", userID.String()))
	return []models.DeviceTokenInfo{}, nil
}
