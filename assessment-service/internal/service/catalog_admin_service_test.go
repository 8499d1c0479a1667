package service_test

import (
	"context"
	"testing"

	"concierge-server/assessment-service/internal/service"
	"concierge-server/assessment-service/internal/service/mocks"
	"concierge-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type catalogAdminMocks struct {
	taskRepo   *mocks.TaskDefinitionRepository
	vendorRepo *mocks.VendorDefinitionRepository
}

func newCatalogAdminService(t *testing.T) (service.CatalogAdminService, *catalogAdminMocks) {
	t.Helper()
	m := &catalogAdminMocks{
		taskRepo:   new(mocks.TaskDefinitionRepository),
		vendorRepo: new(mocks.VendorDefinitionRepository),
	}
	svc := service.NewCatalogAdminService(m.taskRepo, m.vendorRepo, zap.NewNop())
	return svc, m
}

func TestUpsertTask(t *testing.T) {
	ctx := context.Background()

	t.Run("top-level task", func(t *testing.T) {
		svc, m := newCatalogAdminService(t)

		def := &models.TaskDefinition{
			Code:       "HIRE_MOVERS",
			Title:      "Hire a moving company",
			Category:   "logistics",
			Conditions: models.ConditionSet{"MoveDistance": {"Long Distance", "Cross-Country"}},
			SortOrder:  20,
		}
		m.taskRepo.On("Upsert", ctx, def).Return(nil).Once()

		require.NoError(t, svc.UpsertTask(ctx, def))
		m.taskRepo.AssertExpectations(t)
	})

	t.Run("sub-task with existing parent", func(t *testing.T) {
		svc, m := newCatalogAdminService(t)

		def := &models.TaskDefinition{
			Code:       "SETUP_VET",
			Title:      "Find a vet near your new home",
			Conditions: models.ConditionSet{"PetTypes": {"Dog", "Cat"}},
			IsSubTask:  true,
			ParentTask: "PET_OPTIONS",
		}
		m.taskRepo.On("GetByCode", ctx, "PET_OPTIONS").Return(&models.TaskDefinition{
			Code:  "PET_OPTIONS",
			Title: "Plan the move with your pets",
		}, nil).Once()
		m.taskRepo.On("Upsert", ctx, def).Return(nil).Once()

		require.NoError(t, svc.UpsertTask(ctx, def))
		m.taskRepo.AssertExpectations(t)
	})

	t.Run("sub-task with unknown parent", func(t *testing.T) {
		svc, m := newCatalogAdminService(t)

		def := &models.TaskDefinition{
			Code:       "SETUP_VET",
			Title:      "Find a vet near your new home",
			IsSubTask:  true,
			ParentTask: "NO_SUCH_TASK",
		}
		m.taskRepo.On("GetByCode", ctx, "NO_SUCH_TASK").Return(nil, models.ErrTaskNotFound).Once()

		err := svc.UpsertTask(ctx, def)
		assert.ErrorIs(t, err, models.ErrTaskNotFound)
		m.taskRepo.AssertNotCalled(t, "Upsert", ctx, def)
	})

	t.Run("sub-task parent must be top-level", func(t *testing.T) {
		svc, m := newCatalogAdminService(t)

		def := &models.TaskDefinition{
			Code:       "VET_CHECKUP",
			Title:      "Book a farewell checkup",
			IsSubTask:  true,
			ParentTask: "SETUP_VET",
		}
		m.taskRepo.On("GetByCode", ctx, "SETUP_VET").Return(&models.TaskDefinition{
			Code:       "SETUP_VET",
			IsSubTask:  true,
			ParentTask: "PET_OPTIONS",
		}, nil).Once()

		err := svc.UpsertTask(ctx, def)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("sub-task without parent code", func(t *testing.T) {
		svc, _ := newCatalogAdminService(t)

		err := svc.UpsertTask(ctx, &models.TaskDefinition{
			Code:      "ORPHAN",
			Title:     "Orphan sub-task",
			IsSubTask: true,
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("top-level task must not reference a parent", func(t *testing.T) {
		svc, _ := newCatalogAdminService(t)

		err := svc.UpsertTask(ctx, &models.TaskDefinition{
			Code:       "HIRE_MOVERS",
			Title:      "Hire a moving company",
			ParentTask: "PET_OPTIONS",
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		svc, _ := newCatalogAdminService(t)

		err := svc.UpsertTask(ctx, &models.TaskDefinition{Code: "HIRE_MOVERS", Title: "   "})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("condition field with empty specifier list rejected", func(t *testing.T) {
		svc, _ := newCatalogAdminService(t)

		err := svc.UpsertTask(ctx, &models.TaskDefinition{
			Code:       "HIRE_MOVERS",
			Title:      "Hire a moving company",
			Conditions: models.ConditionSet{"MoveDistance": {}},
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestUpsertVendor(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, m := newCatalogAdminService(t)

		def := &models.VendorDefinition{
			Code:       "JUNK_REMOVAL",
			Title:      "Junk removal services",
			Category:   "logistics",
			Conditions: models.ConditionSet{"DwellingType": {"Own"}},
			SortOrder:  50,
		}
		m.vendorRepo.On("Upsert", ctx, def).Return(nil).Once()

		require.NoError(t, svc.UpsertVendor(ctx, def))
		m.vendorRepo.AssertExpectations(t)
	})

	t.Run("empty code rejected", func(t *testing.T) {
		svc, _ := newCatalogAdminService(t)

		err := svc.UpsertVendor(ctx, &models.VendorDefinition{Code: "", Title: "Nameless"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}
