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

var _ interfaces.TasksUnlockedPublisher = (*RabbitMQTaskUnlockPublisher)(nil)

// RabbitMQTaskUnlockPublisher рассылает события об открытии новых под-задач.
// Fanout: каждый заинтересованный сервис вешает свою временную очередь.
type RabbitMQTaskUnlockPublisher struct {
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

// NewRabbitMQTaskUnlockPublisher создает нового издателя событий открытия задач.
func NewRabbitMQTaskUnlockPublisher(conn *amqp091.Connection) (*RabbitMQTaskUnlockPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open a channel")
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Объявляем fanout exchange. Если он уже существует, ничего не произойдет.
	// Делаем его durable, чтобы он пережил перезапуск брокера.
	err = ch.ExchangeDeclare(
		TaskUnlockExchangeName, // name
		"fanout",               // type
		true,                   // durable
		false,                  // auto-deleted
		false,                  // internal
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error().Err(err).Str("exchange", TaskUnlockExchangeName).Msg("Failed to declare exchange")
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", TaskUnlockExchangeName, err)
	}

	log.Info().Str("exchange", TaskUnlockExchangeName).Msg("Task unlock exchange declared successfully")

	return &RabbitMQTaskUnlockPublisher{conn: conn, ch: ch}, nil
}

// PublishTasksUnlocked публикует событие об открытии под-задач.
func (p *RabbitMQTaskUnlockPublisher) PublishTasksUnlocked(ctx context.Context, update models.TasksUnlockedUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Interface("update", update).Msg("Failed to marshal task unlock event")
		return fmt.Errorf("failed to marshal task unlock event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		TaskUnlockExchangeName, // exchange
		"",                     // routing key (не используется для fanout)
		false,                  // mandatory
		false,                  // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		log.Error().Err(err).Interface("update", update).Msg("Failed to publish task unlock event")
		return fmt.Errorf("failed to publish task unlock event: %w", err)
	}

	log.Debug().Str("parentTask", update.ParentTask).Int("count", len(update.TaskCodes)).Msg("Task unlock event published")
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQTaskUnlockPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
