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
	taskDefinitionFields = `id, code, title, category, conditions, is_sub_task, parent_task, sort_order, created_at, updated_at`

	getAllTaskDefinitionsQuery = `
        SELECT id, code, title, category, conditions, is_sub_task, parent_task, sort_order, created_at, updated_at
        FROM task_definitions
        ORDER BY sort_order, code`

	getTaskDefinitionByCodeQuery = `
        SELECT id, code, title, category, conditions, is_sub_task, parent_task, sort_order, created_at, updated_at
        FROM task_definitions
        WHERE code = $1`

	listSubTasksQuery = `
        SELECT id, code, title, category, conditions, is_sub_task, parent_task, sort_order, created_at, updated_at
        FROM task_definitions
        WHERE is_sub_task = TRUE AND parent_task = $1
        ORDER BY sort_order, code`

	upsertTaskDefinitionQuery = `
        INSERT INTO task_definitions (code, title, category, conditions, is_sub_task, parent_task, sort_order)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (code) DO UPDATE SET
            title       = EXCLUDED.title,
            category    = EXCLUDED.category,
            conditions  = EXCLUDED.conditions,
            is_sub_task = EXCLUDED.is_sub_task,
            parent_task = EXCLUDED.parent_task,
            sort_order  = EXCLUDED.sort_order
            -- updated_at обновляется триггером
        RETURNING id, created_at, updated_at`
)

// Compile-time check to ensure pgTaskDefinitionRepository implements TaskDefinitionRepository
var _ interfaces.TaskDefinitionRepository = (*pgTaskDefinitionRepository)(nil)

type pgTaskDefinitionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgTaskDefinitionRepository создает репозиторий каталога задач.
// Условия задач хранятся в колонке jsonb и декодируются в models.ConditionSet.
func NewPgTaskDefinitionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.TaskDefinitionRepository {
	return &pgTaskDefinitionRepository{
		db:     db,
		logger: logger.Named("TaskDefinitionRepo"),
	}
}

// GetAll возвращает весь каталог задач в стабильном порядке.
func (r *pgTaskDefinitionRepository) GetAll(ctx context.Context) ([]models.TaskDefinition, error) {
	var defs []models.TaskDefinition
	if err := pgxscan.Select(ctx, r.db, &defs, getAllTaskDefinitionsQuery); err != nil {
		r.logger.Error("Failed to load task catalog", zap.Error(err))
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}
	r.logger.Debug("Loaded task catalog", zap.Int("count", len(defs)))
	return defs, nil
}

// GetByCode возвращает задачу по коду или models.ErrTaskNotFound.
func (r *pgTaskDefinitionRepository) GetByCode(ctx context.Context, code string) (*models.TaskDefinition, error) {
	log := r.logger.With(zap.String("code", code))

	var def models.TaskDefinition
	err := pgxscan.Get(ctx, r.db, &def, getTaskDefinitionByCodeQuery, code)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			log.Warn("Task definition not found by code")
			return nil, models.ErrTaskNotFound
		}
		log.Error("Error getting task definition by code", zap.Error(err))
		return nil, fmt.Errorf("failed to get task definition %s: %w", code, err)
	}
	return &def, nil
}

// ListSubTasks возвращает под-задачи указанной родительской задачи.
func (r *pgTaskDefinitionRepository) ListSubTasks(ctx context.Context, parentCode string) ([]models.TaskDefinition, error) {
	var defs []models.TaskDefinition
	if err := pgxscan.Select(ctx, r.db, &defs, listSubTasksQuery, parentCode); err != nil {
		r.logger.Error("Failed to list sub-tasks", zap.String("parentTask", parentCode), zap.Error(err))
		return nil, fmt.Errorf("failed to list sub-tasks of %s: %w", parentCode, err)
	}
	return defs, nil
}

// Upsert создает или обновляет определение задачи по коду.
func (r *pgTaskDefinitionRepository) Upsert(ctx context.Context, def *models.TaskDefinition) error {
	log := r.logger.With(zap.String("code", def.Code))

	err := r.db.QueryRow(ctx, upsertTaskDefinitionQuery,
		def.Code, def.Title, def.Category, def.Conditions, def.IsSubTask, def.ParentTask, def.SortOrder,
	).Scan(&def.ID, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		log.Error("Failed to upsert task definition", zap.Error(err))
		return fmt.Errorf("failed to upsert task definition %s: %w", def.Code, err)
	}

	log.Info("Task definition upserted", zap.String("id", def.ID.String()))
	return nil
}
