package database

import (
	"context"
	"errors"
	"fmt"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	pgxV5 "github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	getDynamicConfigByKeyQuery = `SELECT key, value, created_at, updated_at FROM dynamic_configs WHERE key = $1`
	getAllDynamicConfigsQuery  = `SELECT key, value, created_at, updated_at FROM dynamic_configs ORDER BY key`
	upsertDynamicConfigQuery   = `
        INSERT INTO dynamic_configs (key, value)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET
            value = EXCLUDED.value
            -- updated_at обновляется триггером
    `
)

var _ interfaces.DynamicConfigRepository = (*pgDynamicConfigRepository)(nil)

type pgDynamicConfigRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgDynamicConfigRepository создает новый экземпляр репозитория динамических настроек.
func NewPgDynamicConfigRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.DynamicConfigRepository {
	return &pgDynamicConfigRepository{
		db:     db,
		logger: logger.Named("DynamicConfigRepo"),
	}
}

// GetByKey возвращает настройку по ее ключу.
func (r *pgDynamicConfigRepository) GetByKey(ctx context.Context, key string) (*models.DynamicConfig, error) {
	log := r.logger.With(zap.String("query_key", key))

	var config models.DynamicConfig
	err := pgxscan.Get(ctx, r.db, &config, getDynamicConfigByKeyQuery, key)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			log.Warn("Dynamic config not found by key")
			return nil, models.ErrNotFound
		}
		log.Error("Error getting dynamic config by key", zap.Error(err))
		return nil, fmt.Errorf("failed to get dynamic config by key %s: %w", key, err)
	}
	return &config, nil
}

// GetAll возвращает все динамические настройки.
func (r *pgDynamicConfigRepository) GetAll(ctx context.Context) ([]*models.DynamicConfig, error) {
	var configs []*models.DynamicConfig
	err := pgxscan.Select(ctx, r.db, &configs, getAllDynamicConfigsQuery)
	if err != nil {
		// Пустой результат — не ошибка
		if errors.Is(err, pgxV5.ErrNoRows) {
			return []*models.DynamicConfig{}, nil
		}
		r.logger.Error("Error getting all dynamic configs", zap.Error(err))
		return nil, fmt.Errorf("failed to get all dynamic configs: %w", err)
	}
	return configs, nil
}

// Upsert создает или обновляет настройку.
func (r *pgDynamicConfigRepository) Upsert(ctx context.Context, config *models.DynamicConfig) error {
	log := r.logger.With(zap.String("key", config.Key))

	if _, err := r.db.Exec(ctx, upsertDynamicConfigQuery, config.Key, config.Value); err != nil {
		log.Error("Failed to upsert dynamic config", zap.Error(err))
		return fmt.Errorf("failed to upsert dynamic config %s: %w", config.Key, err)
	}

	log.Info("Dynamic config upserted")
	return nil
}
