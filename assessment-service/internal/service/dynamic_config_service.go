package service

import (
	"context"
	"fmt"
	"strings"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"go.uber.org/zap"
)

// DynamicConfigService определяет методы для управления динамическими настройками.
// Изменения сохраняются в БД и рассылаются остальным сервисам через RabbitMQ,
// чтобы их ConfigService-кэши обновились без рестарта.
type DynamicConfigService interface {
	ListConfigs(ctx context.Context) ([]*models.DynamicConfig, error)
	GetConfig(ctx context.Context, key string) (*models.DynamicConfig, error)
	UpdateConfig(ctx context.Context, key, value string) error
}

type dynamicConfigService struct {
	repo      interfaces.DynamicConfigRepository
	publisher interfaces.ConfigUpdatePublisher
	logger    *zap.Logger
}

var _ DynamicConfigService = (*dynamicConfigService)(nil)

// NewDynamicConfigService создает новый экземпляр DynamicConfigService.
func NewDynamicConfigService(
	repo interfaces.DynamicConfigRepository,
	publisher interfaces.ConfigUpdatePublisher,
	logger *zap.Logger,
) DynamicConfigService {
	return &dynamicConfigService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("DynamicConfigService"),
	}
}

func (s *dynamicConfigService) ListConfigs(ctx context.Context) ([]*models.DynamicConfig, error) {
	configs, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to get all configs from repository", zap.Error(err))
		return nil, err
	}
	return configs, nil
}

func (s *dynamicConfigService) GetConfig(ctx context.Context, key string) (*models.DynamicConfig, error) {
	config, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to get config by key from repository", zap.String("key", key), zap.Error(err))
		// repo.GetByKey уже возвращает models.ErrNotFound
		return nil, err
	}
	return config, nil
}

func (s *dynamicConfigService) UpdateConfig(ctx context.Context, key, value string) error {
	log := s.logger.With(zap.String("key", key))

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: config key is empty", models.ErrInvalidInput)
	}

	// Обновляем только существующие ключи: опечатка в ключе не должна
	// незаметно создавать мертвую настройку.
	if _, err := s.repo.GetByKey(ctx, key); err != nil {
		log.Warn("Config key not found for update", zap.Error(err))
		return err
	}

	config := &models.DynamicConfig{
		Key:   key,
		Value: value,
		// UpdatedAt обновится автоматически триггером
	}

	if err := s.repo.Upsert(ctx, config); err != nil {
		log.Error("Failed to upsert config in repository", zap.Error(err))
		return err
	}

	log.Info("Config updated successfully")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *config); err != nil {
			// Кэши сервисов подхватят значение при следующем рестарте,
			// поэтому ошибку публикации не возвращаем наверх.
			log.Error("Failed to publish config update event", zap.Error(err))
		}
	} else {
		log.Warn("Config update publisher is nil, skipping notification")
	}

	return nil
}
