package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"concierge-server/shared/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConfigUpdater обновляет локальный кэш динамических настроек.
type ConfigUpdater interface {
	Update(config models.DynamicConfig)
}

// ConfigUpdateConsumer слушает fanout exchange обновлений конфигурации
// через временную эксклюзивную очередь и прокачивает события в ConfigUpdater.
type ConfigUpdateConsumer struct {
	conn          *amqp091.Connection
	ch            *amqp091.Channel
	configUpdater ConfigUpdater
	logger        *zap.Logger
	exchangeName  string
	queueName     string
	consumerTag   string
}

func NewConfigUpdateConsumer(
	conn *amqp091.Connection,
	configUpdater ConfigUpdater,
	logger *zap.Logger,
) (*ConfigUpdateConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if configUpdater == nil {
		return nil, fmt.Errorf("ConfigUpdater is nil")
	}

	consumerTag := fmt.Sprintf("config_update_consumer_%d", time.Now().UnixNano())

	consumer := &ConfigUpdateConsumer{
		conn:          conn,
		configUpdater: configUpdater,
		logger:        logger.Named("ConfigUpdateConsumer").With(zap.String("consumerTag", consumerTag)),
		exchangeName:  ConfigUpdateExchangeName,
		consumerTag:   consumerTag,
	}

	if err := consumer.setupChannelAndQueue(); err != nil {
		return nil, err
	}

	consumer.logger.Info("ConfigUpdateConsumer инициализирован",
		zap.String("exchange", consumer.exchangeName),
		zap.String("generatedQueueName", consumer.queueName),
	)
	return consumer, nil
}

// setupChannelAndQueue создает канал, объявляет exchange, очередь и биндинг.
func (c *ConfigUpdateConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Объявляем Exchange (fanout, durable)
	err = c.ch.ExchangeDeclare(
		c.exchangeName,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare exchange '%s': %w", c.exchangeName, err)
	}

	// Объявляем временную, эксклюзивную очередь. Брокер сам даст ей имя.
	q, err := c.ch.QueueDeclare(
		"",    // name (пустое для автогенерации)
		false, // durable
		true,  // delete when unused (auto-delete)
		true,  // exclusive (только это соединение)
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queueName = q.Name
	c.logger.Info("Временная очередь для обновлений конфигурации создана", zap.String("queueName", c.queueName))

	err = c.ch.QueueBind(
		c.queueName,
		"", // routing key (не используется для fanout)
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.queueName, c.exchangeName, err)
	}

	return nil
}

// StartConsuming запускает процесс получения и обработки сообщений.
// Не блокирует: обработка идет в отдельной горутине до закрытия канала.
func (c *ConfigUpdateConsumer) StartConsuming() error {
	c.logger.Info("Начало прослушивания сообщений об обновлении конфигурации...")

	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go func() {
		for d := range deliveries {
			var configUpdate models.DynamicConfig
			if err := json.Unmarshal(d.Body, &configUpdate); err != nil {
				c.logger.Error("failed to unmarshal config update message", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			c.configUpdater.Update(configUpdate)

			if err := d.Ack(false); err != nil {
				c.logger.Error("failed to acknowledge message", zap.Error(err))
			}
		}
		c.logger.Info("Канал обновлений конфигурации закрыт")
	}()

	return nil
}

// Stop останавливает консьюмера и закрывает канал.
func (c *ConfigUpdateConsumer) Stop() error {
	c.logger.Info("Остановка ConfigUpdateConsumer...")
	if c.ch != nil {
		if err := c.ch.Cancel(c.consumerTag, false); err != nil {
			c.logger.Warn("Failed to cancel consumer", zap.Error(err))
		}
		return c.ch.Close()
	}
	return nil
}
