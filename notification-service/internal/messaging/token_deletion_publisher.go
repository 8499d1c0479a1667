package messaging

import (
	"context"
	"fmt"
	"time"

	interfaces "concierge-server/shared/interfaces"
	sharedMessaging "concierge-server/shared/messaging"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ interfaces.TokenDeletionPublisher = (*rabbitTokenDeletionPublisher)(nil)

// rabbitTokenDeletionPublisher отправляет невалидные токены устройств
// в очередь на удаление. Очередь слушает assessment-service, владеющий
// таблицей токенов.
type rabbitTokenDeletionPublisher struct {
	conn      *amqp091.Connection
	logger    *zap.Logger
	queueName string
}

// NewRabbitTokenDeletionPublisher создает новый publisher.
func NewRabbitTokenDeletionPublisher(
	conn *amqp091.Connection,
	logger *zap.Logger,
) (interfaces.TokenDeletionPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}

	queueName := sharedMessaging.TokenDeletionQueueName

	publisher := &rabbitTokenDeletionPublisher{
		conn:      conn,
		logger:    logger.Named("TokenDeletionPublisher").With(zap.String("queue", queueName)),
		queueName: queueName,
	}

	// Проверим, что можем создать канал и объявить очередь при инициализации
	if err := publisher.verifyQueue(); err != nil {
		return nil, fmt.Errorf("failed to verify queue %s on init: %w", queueName, err)
	}

	publisher.logger.Info("TokenDeletionPublisher инициализирован")
	return publisher, nil
}

// verifyQueue проверяет доступность очереди при старте.
func (p *rabbitTokenDeletionPublisher) verifyQueue() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,  // durable (должно совпадать с consumer'ом)
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", p.queueName, err)
	}
	p.logger.Debug("Проверка объявления очереди прошла успешно", zap.String("queue", p.queueName))
	return nil
}

// PublishTokenDeletion публикует токен в очередь для удаления.
func (p *rabbitTokenDeletionPublisher) PublishTokenDeletion(ctx context.Context, token string) error {
	log := p.logger.With(zap.String("tokenPrefix", getTokenPrefix(token)))

	ch, err := p.conn.Channel()
	if err != nil {
		log.Error("Не удалось открыть канал для публикации", zap.Error(err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	log.Debug("Публикация токена на удаление...")

	// Публикуем сообщение прямо в очередь (используем имя очереди как routing key)
	err = ch.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key (имя очереди)
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         []byte(token),
		},
	)

	if err != nil {
		log.Error("Ошибка публикации сообщения на удаление токена", zap.Error(err))
		return fmt.Errorf("failed to publish token deletion message: %w", err)
	}

	log.Info("Сообщение на удаление токена успешно опубликовано")
	return nil
}

// getTokenPrefix возвращает начало токена для логирования.
func getTokenPrefix(token string) string {
	prefixLen := 10
	if len(token) < prefixLen {
		return token
	}
	return token[:prefixLen] + "..."
}
