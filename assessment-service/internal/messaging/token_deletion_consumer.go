package messaging

import (
	"context"
	"fmt"
	"time"

	"concierge-server/assessment-service/internal/service"
	sharedMessaging "concierge-server/shared/messaging"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TokenDeletionConsumer слушает очередь и удаляет невалидные токены устройств.
// Сообщения публикует notification-service, когда APNS/FCM сообщают,
// что токен больше не зарегистрирован.
type TokenDeletionConsumer struct {
	conn        *amqp091.Connection
	ch          *amqp091.Channel
	tokenSvc    service.DeviceTokenService
	logger      *zap.Logger
	queueName   string
	consumerTag string
	done        chan error // Сигнал для остановки
}

// NewTokenDeletionConsumer создает нового консьюмера.
func NewTokenDeletionConsumer(
	conn *amqp091.Connection,
	tokenSvc service.DeviceTokenService,
	logger *zap.Logger,
) (*TokenDeletionConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if tokenSvc == nil {
		return nil, fmt.Errorf("DeviceTokenService is nil")
	}

	consumerTag := fmt.Sprintf("token_deletion_consumer_%d", time.Now().UnixNano())
	queueName := sharedMessaging.TokenDeletionQueueName

	consumer := &TokenDeletionConsumer{
		conn:        conn,
		tokenSvc:    tokenSvc,
		logger:      logger.Named("TokenDeletionConsumer").With(zap.String("consumerTag", consumerTag), zap.String("queue", queueName)),
		queueName:   queueName,
		consumerTag: consumerTag,
		done:        make(chan error),
	}

	if err := consumer.setupChannelAndQueue(); err != nil {
		return nil, fmt.Errorf("failed to setup channel and queue: %w", err)
	}

	consumer.logger.Info("TokenDeletionConsumer инициализирован")
	return consumer, nil
}

// setupChannelAndQueue создает канал и объявляет очередь.
func (c *TokenDeletionConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	c.logger.Info("RabbitMQ channel opened")

	// Объявляем очередь (durable, параметры должны совпадать с publisher'ом)
	_, err = c.ch.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue '%s': %w", c.queueName, err)
	}
	c.logger.Info("RabbitMQ queue declared", zap.String("queue", c.queueName))

	// Обрабатываем по одному сообщению за раз
	err = c.ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	c.logger.Info("RabbitMQ QoS set", zap.Int("prefetchCount", 1))

	return nil
}

// StartConsuming запускает процесс получения и обработки сообщений.
// Блокирует выполнение до тех пор, пока консьюмер не будет остановлен или не произойдет ошибка.
func (c *TokenDeletionConsumer) StartConsuming() error {
	if c.ch == nil {
		return fmt.Errorf("channel is not initialized, call setupChannelAndQueue first")
	}
	c.logger.Info("Начало прослушивания очереди удаления токенов...")

	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack, подтверждаем вручную
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		c.logger.Error("Ошибка запуска consumer'а", zap.Error(err))
		c.done <- err
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go c.handleDeliveries(deliveries)

	// Отслеживаем закрытие канала
	go func() {
		notifyClose := make(chan *amqp091.Error)
		c.ch.NotifyClose(notifyClose)
		select {
		case err := <-notifyClose:
			if err != nil {
				c.logger.Error("RabbitMQ channel closed unexpectedly", zap.Error(err))
				c.done <- err
			} else {
				c.logger.Info("RabbitMQ channel closed gracefully.")
				c.done <- nil
			}
		case <-c.done: // Если Stop() был вызван раньше
			c.logger.Info("Received stop signal while waiting for channel close.")
		}
	}()

	c.logger.Info("Consumer запущен и ожидает сообщений", zap.String("tag", c.consumerTag))
	return <-c.done
}

// handleDeliveries обрабатывает входящие сообщения.
func (c *TokenDeletionConsumer) handleDeliveries(deliveries <-chan amqp091.Delivery) {
	for d := range deliveries {
		log := c.logger.With(zap.Uint64("deliveryTag", d.DeliveryTag))
		log.Debug("Получено сообщение для удаления токена")

		tokenToDelete := string(d.Body)
		if tokenToDelete == "" {
			log.Warn("Получено пустое сообщение, отклоняем (Nack)")
			if err := d.Nack(false, false); err != nil { // Не переставляем в очередь
				log.Error("Ошибка при отклонении (Nack) пустого сообщения", zap.Error(err))
			}
			continue
		}

		log = log.With(zap.String("tokenPrefix", getTokenPrefix(tokenToDelete))) // Логируем только начало токена

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.tokenSvc.UnregisterDeviceToken(ctx, tokenToDelete)
		cancel()

		if err != nil {
			// Ошибка удаления: не подтверждаем и просим переотправить позже (requeue=true)
			log.Error("Ошибка при вызове UnregisterDeviceToken, сообщение будет переотправлено (Nack, requeue)", zap.Error(err))
			if nackErr := d.Nack(false, true); nackErr != nil {
				log.Error("Ошибка при отклонении (Nack) сообщения после ошибки сервиса", zap.Error(nackErr))
			}
			time.Sleep(1 * time.Second)
		} else {
			log.Info("Токен успешно обработан (удален или не найден), подтверждаем (Ack)")
			if ackErr := d.Ack(false); ackErr != nil {
				log.Error("Ошибка при подтверждении (Ack) сообщения", zap.Error(ackErr))
			}
		}
	}
	c.logger.Info("Канал deliveries закрыт, обработка сообщений завершена.")
	select {
	case c.done <- nil:
	default:
	}
}

// Stop корректно останавливает консьюмера.
func (c *TokenDeletionConsumer) Stop() error {
	if c.ch == nil {
		c.logger.Warn("Попытка остановить консьюмер с незакрытым каналом")
		return nil
	}
	c.logger.Info("Остановка TokenDeletionConsumer...")

	if err := c.ch.Cancel(c.consumerTag, false); err != nil {
		c.logger.Error("Ошибка при отмене consumer'а", zap.String("tag", c.consumerTag), zap.Error(err))
	} else {
		c.logger.Info("Consumer успешно отменен", zap.String("tag", c.consumerTag))
	}

	if err := c.ch.Close(); err != nil {
		c.logger.Error("Ошибка при закрытии канала RabbitMQ", zap.Error(err))
	} else {
		c.logger.Info("Канал RabbitMQ успешно закрыт")
	}

	select {
	case c.done <- nil:
		c.logger.Info("Сигнал об успешной остановке отправлен.")
	default:
		c.logger.Info("Канал done уже закрыт или содержит ошибку.")
	}

	c.logger.Info("TokenDeletionConsumer остановлен.")
	return nil
}

// getTokenPrefix возвращает начало токена для логирования (чтобы не логировать весь токен).
func getTokenPrefix(token string) string {
	prefixLen := 10
	if len(token) < prefixLen {
		return token
	}
	return token[:prefixLen] + "..."
}
