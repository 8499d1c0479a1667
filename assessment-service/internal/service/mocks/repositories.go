package mocks

import (
	"context"
	"time"

	"concierge-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Save(ctx context.Context, session *models.AssessmentSession, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *SessionRepository) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*models.AssessmentSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if session, ok := args.Get(0).(*models.AssessmentSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *SessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock TaskDefinitionRepository
type TaskDefinitionRepository struct {
	mock.Mock
}

func (m *TaskDefinitionRepository) GetAll(ctx context.Context) ([]models.TaskDefinition, error) {
	args := m.Called(ctx)
	if defs, ok := args.Get(0).([]models.TaskDefinition); ok {
		return defs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskDefinitionRepository) GetByCode(ctx context.Context, code string) (*models.TaskDefinition, error) {
	args := m.Called(ctx, code)
	if def, ok := args.Get(0).(*models.TaskDefinition); ok {
		return def, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskDefinitionRepository) ListSubTasks(ctx context.Context, parentCode string) ([]models.TaskDefinition, error) {
	args := m.Called(ctx, parentCode)
	if defs, ok := args.Get(0).([]models.TaskDefinition); ok {
		return defs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskDefinitionRepository) Upsert(ctx context.Context, def *models.TaskDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

// Mock VendorDefinitionRepository
type VendorDefinitionRepository struct {
	mock.Mock
}

func (m *VendorDefinitionRepository) GetAll(ctx context.Context) ([]models.VendorDefinition, error) {
	args := m.Called(ctx)
	if defs, ok := args.Get(0).([]models.VendorDefinition); ok {
		return defs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VendorDefinitionRepository) Upsert(ctx context.Context, def *models.VendorDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

// Mock UserDeviceTokenRepository
type UserDeviceTokenRepository struct {
	mock.Mock
}

func (m *UserDeviceTokenRepository) SaveDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	args := m.Called(ctx, userID, token, platform)
	return args.Error(0)
}

func (m *UserDeviceTokenRepository) GetDeviceTokensForUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceTokenInfo, error) {
	args := m.Called(ctx, userID)
	if tokens, ok := args.Get(0).([]models.DeviceTokenInfo); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserDeviceTokenRepository) DeleteDeviceToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *UserDeviceTokenRepository) DeleteDeviceTokensForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
