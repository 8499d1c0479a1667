package interfaces

import (
	"context"

	"concierge-server/shared/models"
)

// PushEventPublisher defines the interface for publishing push notification events.
type PushEventPublisher interface {
	// PublishPushEvent отправляет полезную нагрузку пуша в очередь доставки.
	PublishPushEvent(ctx context.Context, payload models.PushNotificationPayload) error
}

// TasksUnlockedPublisher defines the interface for publishing catalog unlock events.
type TasksUnlockedPublisher interface {
	// PublishTasksUnlocked сообщает, что мини-анкета открыла новые под-задачи.
	PublishTasksUnlocked(ctx context.Context, update models.TasksUnlockedUpdate) error
}

// TokenDeletionPublisher defines the interface for publishing messages
// indicating that a device token should be deleted.
type TokenDeletionPublisher interface {
	// PublishTokenDeletion sends the token string to the designated queue/topic.
	PublishTokenDeletion(ctx context.Context, token string) error
}

// ConfigUpdatePublisher defines the interface for broadcasting dynamic config changes.
type ConfigUpdatePublisher interface {
	// Publish рассылает обновленную настройку всем сервисам-подписчикам.
	Publish(ctx context.Context, config models.DynamicConfig) error
}

// PushEventConsumer defines the interface for consuming push notification events.
type PushEventConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}
