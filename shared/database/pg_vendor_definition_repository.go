package database

import (
	"context"
	"fmt"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"
)

const (
	getAllVendorDefinitionsQuery = `
        SELECT id, code, title, category, conditions, sort_order, created_at, updated_at
        FROM vendor_definitions
        ORDER BY sort_order, code`

	upsertVendorDefinitionQuery = `
        INSERT INTO vendor_definitions (code, title, category, conditions, sort_order)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (code) DO UPDATE SET
            title      = EXCLUDED.title,
            category   = EXCLUDED.category,
            conditions = EXCLUDED.conditions,
            sort_order = EXCLUDED.sort_order
        RETURNING id, created_at, updated_at`
)

var _ interfaces.VendorDefinitionRepository = (*pgVendorDefinitionRepository)(nil)

type pgVendorDefinitionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgVendorDefinitionRepository создает репозиторий каталога подрядчиков.
func NewPgVendorDefinitionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.VendorDefinitionRepository {
	return &pgVendorDefinitionRepository{
		db:     db,
		logger: logger.Named("VendorDefinitionRepo"),
	}
}

// GetAll возвращает весь каталог подрядчиков в стабильном порядке.
func (r *pgVendorDefinitionRepository) GetAll(ctx context.Context) ([]models.VendorDefinition, error) {
	var defs []models.VendorDefinition
	if err := pgxscan.Select(ctx, r.db, &defs, getAllVendorDefinitionsQuery); err != nil {
		r.logger.Error("Failed to load vendor catalog", zap.Error(err))
		return nil, fmt.Errorf("failed to load vendor catalog: %w", err)
	}
	r.logger.Debug("Loaded vendor catalog", zap.Int("count", len(defs)))
	return defs, nil
}

// Upsert создает или обновляет определение подрядчика по коду.
func (r *pgVendorDefinitionRepository) Upsert(ctx context.Context, def *models.VendorDefinition) error {
	log := r.logger.With(zap.String("code", def.Code))

	err := r.db.QueryRow(ctx, upsertVendorDefinitionQuery,
		def.Code, def.Title, def.Category, def.Conditions, def.SortOrder,
	).Scan(&def.ID, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		log.Error("Failed to upsert vendor definition", zap.Error(err))
		return fmt.Errorf("failed to upsert vendor definition %s: %w", def.Code, err)
	}

	log.Info("Vendor definition upserted", zap.String("id", def.ID.String()))
	return nil
}
