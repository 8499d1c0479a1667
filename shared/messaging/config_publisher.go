package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge-server/shared/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQConfigUpdatePublisher рассылает обновления динамических настроек.
// Каждый сервис держит ConfigService-кэш и обновляет его по этим событиям.
type RabbitMQConfigUpdatePublisher struct {
	conn         *amqp091.Connection
	ch           *amqp091.Channel
	logger       *zap.Logger
	exchangeName string
}

// NewRabbitMQConfigUpdatePublisher создает нового издателя для обновлений конфигурации.
func NewRabbitMQConfigUpdatePublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQConfigUpdatePublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for config updates", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Объявляем fanout exchange. Если он уже существует, ничего не произойдет.
	// Делаем его durable.
	err = ch.ExchangeDeclare(
		ConfigUpdateExchangeName,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare config update exchange", zap.String("exchange", ConfigUpdateExchangeName), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ConfigUpdateExchangeName, err)
	}

	logger.Info("Config update exchange declared successfully", zap.String("exchange", ConfigUpdateExchangeName))

	return &RabbitMQConfigUpdatePublisher{
		conn:         conn,
		ch:           ch,
		logger:       logger.Named("ConfigUpdatePublisher"),
		exchangeName: ConfigUpdateExchangeName,
	}, nil
}

// Publish публикует сообщение об обновлении конфигурации.
func (p *RabbitMQConfigUpdatePublisher) Publish(ctx context.Context, config models.DynamicConfig) error {
	body, err := json.Marshal(config)
	if err != nil {
		p.logger.Error("Failed to marshal config update payload", zap.Error(err), zap.String("key", config.Key))
		return fmt.Errorf("failed to marshal config update payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchangeName, // exchange
		"",             // routing key (не используется для fanout)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish config update event", zap.Error(err), zap.String("key", config.Key))
		return fmt.Errorf("failed to publish config update event: %w", err)
	}

	p.logger.Debug("Config update event published", zap.String("key", config.Key))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQConfigUpdatePublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
