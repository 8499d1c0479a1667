package service

import (
	"context"
	"fmt"
	"strings"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"go.uber.org/zap"
)

// CatalogAdminService определяет методы для управления каталогами задач
// и подрядчиков. Каталог читается матчером при каждом запросе, поэтому
// изменения видны клиентам сразу, без рассылки событий.
type CatalogAdminService interface {
	// UpsertTask создает или обновляет определение задачи по коду.
	// Для под-задачи родитель обязан существовать и сам быть задачей
	// верхнего уровня. Возвращает models.ErrInvalidInput при нарушении формы
	// и models.ErrTaskNotFound, если родителя нет в каталоге.
	UpsertTask(ctx context.Context, def *models.TaskDefinition) error
	// UpsertVendor создает или обновляет определение подрядчика по коду.
	UpsertVendor(ctx context.Context, def *models.VendorDefinition) error
}

type catalogAdminService struct {
	taskRepo   interfaces.TaskDefinitionRepository
	vendorRepo interfaces.VendorDefinitionRepository
	logger     *zap.Logger
}

var _ CatalogAdminService = (*catalogAdminService)(nil)

// NewCatalogAdminService создает новый экземпляр CatalogAdminService.
func NewCatalogAdminService(
	taskRepo interfaces.TaskDefinitionRepository,
	vendorRepo interfaces.VendorDefinitionRepository,
	logger *zap.Logger,
) CatalogAdminService {
	return &catalogAdminService{
		taskRepo:   taskRepo,
		vendorRepo: vendorRepo,
		logger:     logger.Named("CatalogAdminService"),
	}
}

func (s *catalogAdminService) UpsertTask(ctx context.Context, def *models.TaskDefinition) error {
	log := s.logger.With(zap.String("code", def.Code))

	if err := validateDefinition(def.Code, def.Title, def.Conditions); err != nil {
		return err
	}

	def.ParentTask = strings.TrimSpace(def.ParentTask)
	if def.IsSubTask {
		if def.ParentTask == "" {
			return fmt.Errorf("%w: sub-task requires a parent task code", models.ErrInvalidInput)
		}
		parent, err := s.taskRepo.GetByCode(ctx, def.ParentTask)
		if err != nil {
			log.Warn("Parent task not found for sub-task upsert",
				zap.String("parent", def.ParentTask), zap.Error(err))
			return err
		}
		// Вложенность под-задач не поддерживается: второй проход матчинга один.
		if parent.IsSubTask {
			return fmt.Errorf("%w: parent task %s is itself a sub-task", models.ErrInvalidInput, parent.Code)
		}
	} else if def.ParentTask != "" {
		return fmt.Errorf("%w: only sub-tasks may reference a parent task", models.ErrInvalidInput)
	}

	if err := s.taskRepo.Upsert(ctx, def); err != nil {
		log.Error("Failed to upsert task definition", zap.Error(err))
		return err
	}

	log.Info("Task definition upserted", zap.Bool("is_sub_task", def.IsSubTask))
	return nil
}

func (s *catalogAdminService) UpsertVendor(ctx context.Context, def *models.VendorDefinition) error {
	log := s.logger.With(zap.String("code", def.Code))

	if err := validateDefinition(def.Code, def.Title, def.Conditions); err != nil {
		return err
	}

	if err := s.vendorRepo.Upsert(ctx, def); err != nil {
		log.Error("Failed to upsert vendor definition", zap.Error(err))
		return err
	}

	log.Info("Vendor definition upserted")
	return nil
}

// validateDefinition проверяет общую форму записи каталога. Пустой набор
// условий допустим (такая запись подходит всем), а вот поле с пустым
// списком спецификаторов вычислитель молча игнорирует — почти наверняка
// это ошибка редактора каталога, поэтому отклоняем ее на входе.
func validateDefinition(code, title string, conditions models.ConditionSet) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: definition code is empty", models.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: definition title is empty", models.ErrInvalidInput)
	}
	for field, specifiers := range conditions {
		if len(specifiers) == 0 {
			return fmt.Errorf("%w: condition field %q has no value specifiers", models.ErrInvalidInput, field)
		}
	}
	return nil
}
