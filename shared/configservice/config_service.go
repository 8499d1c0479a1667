package configservice

import (
	"context"
	"strconv"
	"sync"
	"time"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"go.uber.org/zap"
)

// Значения по умолчанию для динамических настроек.
// Используются, пока соответствующий ключ не появился в dynamic_configs.
const (
	DefaultSessionTTL        = 30 * 24 * time.Hour
	DefaultMaxSessionPerUser = 3
	DefaultPushEnabled       = true
	DefaultCatalogCacheTTL   = 5 * time.Minute
)

// ConfigService управляет динамическими конфигурациями, загруженными из БД.
// Он обеспечивает потокобезопасный доступ к этим конфигурациям.
type ConfigService struct {
	logger  *zap.Logger
	repo    interfaces.DynamicConfigRepository
	mu      sync.RWMutex      // Мьютекс для защиты доступа к configs
	configs map[string]string // Кэш конфигураций: ключ -> значение
}

// NewConfigService создает новый экземпляр ConfigService и загружает начальные конфигурации.
func NewConfigService(repo interfaces.DynamicConfigRepository, logger *zap.Logger) (*ConfigService, error) {
	cs := &ConfigService{
		logger:  logger.Named("ConfigService"),
		repo:    repo,
		configs: make(map[string]string),
	}

	cs.logger.Info("Загрузка начальных динамических конфигураций...")
	if err := cs.loadAllConfigs(); err != nil {
		cs.logger.Error("Не удалось загрузить начальные динамические конфигурации", zap.Error(err))
		// Считаем, что ошибка критична, если БД недоступна при старте.
		return nil, err
	}
	cs.logger.Info("Динамические конфигурации загружены", zap.Int("count", len(cs.configs)))

	return cs, nil
}

// loadAllConfigs загружает все конфигурации из репозитория в кэш.
func (cs *ConfigService) loadAllConfigs() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	configs, err := cs.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.configs = make(map[string]string)
	for _, cfg := range configs {
		cs.configs[cfg.Key] = cfg.Value
		cs.logger.Debug("Загружена конфигурация", zap.String("key", cfg.Key), zap.String("value", cfg.Value))
	}
	return nil
}

// get возвращает значение конфигурации по ключу (внутренний метод без логов).
func (cs *ConfigService) get(key string) (string, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	val, ok := cs.configs[key]
	return val, ok
}

// GetString возвращает строковое значение конфигурации по ключу или значение по умолчанию.
func (cs *ConfigService) GetString(key string, defaultValue string) string {
	val, ok := cs.get(key)
	if !ok || val == "" {
		cs.logger.Debug("Ключ не найден или значение пустое, используется значение по умолчанию", zap.String("key", key), zap.String("default", defaultValue))
		return defaultValue
	}
	return val
}

// GetInt возвращает целочисленное значение конфигурации по ключу или значение по умолчанию.
func (cs *ConfigService) GetInt(key string, defaultValue int) int {
	strVal, ok := cs.get(key)
	if !ok {
		return defaultValue
	}
	intVal, err := strconv.Atoi(strVal)
	if err != nil {
		cs.logger.Warn("Ошибка парсинга int, используется значение по умолчанию", zap.String("key", key), zap.String("value", strVal), zap.Error(err), zap.Int("default", defaultValue))
		return defaultValue
	}
	return intVal
}

// GetBool возвращает булево значение конфигурации по ключу или значение по умолчанию.
func (cs *ConfigService) GetBool(key string, defaultValue bool) bool {
	strVal, ok := cs.get(key)
	if !ok {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(strVal)
	if err != nil {
		cs.logger.Warn("Ошибка парсинга bool, используется значение по умолчанию", zap.String("key", key), zap.String("value", strVal), zap.Error(err), zap.Bool("default", defaultValue))
		return defaultValue
	}
	return boolVal
}

// GetFloat возвращает float64 значение конфигурации по ключу или значение по умолчанию.
func (cs *ConfigService) GetFloat(key string, defaultValue float64) float64 {
	strVal, ok := cs.get(key)
	if !ok {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(strVal, 64)
	if err != nil {
		cs.logger.Warn("Ошибка парсинга float64, используется значение по умолчанию", zap.String("key", key), zap.String("value", strVal), zap.Error(err), zap.Float64("default", defaultValue))
		return defaultValue
	}
	return floatVal
}

// GetDuration возвращает time.Duration значение конфигурации по ключу или значение по умолчанию.
func (cs *ConfigService) GetDuration(key string, defaultValue time.Duration) time.Duration {
	strVal, ok := cs.get(key)
	if !ok {
		return defaultValue
	}
	durationVal, err := time.ParseDuration(strVal)
	if err != nil {
		cs.logger.Warn("Ошибка парсинга time.Duration, используется значение по умолчанию", zap.String("key", key), zap.String("value", strVal), zap.Error(err), zap.Duration("default", defaultValue))
		return defaultValue
	}
	return durationVal
}

// Update обновляет значение конфигурации в кэше.
// Этот метод вызывается консьюмером при получении события обновления.
func (cs *ConfigService) Update(config models.DynamicConfig) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.logger.Info("Обновление динамической конфигурации в кэше", zap.String("key", config.Key), zap.String("new_value", config.Value))
	cs.configs[config.Key] = config.Value
}
