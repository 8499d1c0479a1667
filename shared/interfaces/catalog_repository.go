package interfaces

import (
	"context"

	"concierge-server/shared/models"
)

// TaskDefinitionRepository определяет методы доступа к каталогу задач.
// Каталог читается целиком: отбор подходящих задач — чистая функция
// над полным списком, фильтрация на стороне БД ей не нужна.
type TaskDefinitionRepository interface {
	// GetAll возвращает весь каталог задач в стабильном порядке (sort_order, code).
	GetAll(ctx context.Context) ([]models.TaskDefinition, error)
	// GetByCode возвращает задачу по ее коду.
	// Возвращает models.ErrTaskNotFound, если кода нет в каталоге.
	GetByCode(ctx context.Context, code string) (*models.TaskDefinition, error)
	// ListSubTasks возвращает под-задачи указанной родительской задачи.
	ListSubTasks(ctx context.Context, parentCode string) ([]models.TaskDefinition, error)
	// Upsert создает или обновляет определение задачи (админский контур).
	Upsert(ctx context.Context, def *models.TaskDefinition) error
}

// VendorDefinitionRepository определяет методы доступа к каталогу подрядчиков.
type VendorDefinitionRepository interface {
	// GetAll возвращает весь каталог подрядчиков в стабильном порядке.
	GetAll(ctx context.Context) ([]models.VendorDefinition, error)
	// Upsert создает или обновляет определение подрядчика.
	Upsert(ctx context.Context, def *models.VendorDefinition) error
}
