package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Compile-time check
var _ interfaces.PushEventPublisher = (*RabbitMQPushPublisher)(nil)

// RabbitMQPushPublisher публикует полезные нагрузки пушей в очередь доставки,
// которую читает notification-service.
type RabbitMQPushPublisher struct {
	ch        *amqp091.Channel
	queueName string
}

// NewRabbitMQPushPublisher создает нового издателя пуш-уведомлений.
// Важно: предполагается, что соединение conn уже установлено и обработка
// ошибок/переподключений управляется внешним кодом, который передает сюда
// стабильное соединение.
func NewRabbitMQPushPublisher(conn *amqp091.Connection, queueName string) (*RabbitMQPushPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open a channel")
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Паблишер объявляет очередь с теми же параметрами, что и консьюмер,
	// чтобы система была устойчива к порядку запуска сервисов.
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error().Err(err).Str("queue", queueName).Msg("Failed to declare push queue")
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	log.Info().Str("queue", queueName).Msg("Push notification queue declared successfully")

	return &RabbitMQPushPublisher{ch: ch, queueName: queueName}, nil
}

// PublishPushEvent публикует полезную нагрузку пуша в очередь доставки.
func (p *RabbitMQPushPublisher) PublishPushEvent(ctx context.Context, payload models.PushNotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("userID", payload.UserID.String()).Msg("Failed to marshal push payload")
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange (default: напрямую в очередь)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		log.Error().Err(err).Str("userID", payload.UserID.String()).Msg("Failed to publish push event")
		return fmt.Errorf("failed to publish push event: %w", err)
	}

	log.Debug().Str("userID", payload.UserID.String()).Msg("Push event published")
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQPushPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
