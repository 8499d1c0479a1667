package mocks

import (
	"context"
	"time"

	"concierge-server/shared/models"

	"github.com/stretchr/testify/mock"
)

// Mock PushEventPublisher
type PushEventPublisher struct {
	mock.Mock
}

func (m *PushEventPublisher) PublishPushEvent(ctx context.Context, payload models.PushNotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// Mock TasksUnlockedPublisher
type TasksUnlockedPublisher struct {
	mock.Mock
}

func (m *TasksUnlockedPublisher) PublishTasksUnlocked(ctx context.Context, update models.TasksUnlockedUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// StaticSettings — заглушка DynamicSettings с фиксированными значениями.
// Возвращает дефолты, если значение не задано.
type StaticSettings struct {
	Ints      map[string]int
	Bools     map[string]bool
	Durations map[string]time.Duration
}

func (s *StaticSettings) GetInt(key string, defaultValue int) int {
	if s.Ints != nil {
		if v, ok := s.Ints[key]; ok {
			return v
		}
	}
	return defaultValue
}

func (s *StaticSettings) GetBool(key string, defaultValue bool) bool {
	if s.Bools != nil {
		if v, ok := s.Bools[key]; ok {
			return v
		}
	}
	return defaultValue
}

func (s *StaticSettings) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if s.Durations != nil {
		if v, ok := s.Durations[key]; ok {
			return v
		}
	}
	return defaultValue
}
