package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge-server/notification-service/internal/config"
	"concierge-server/notification-service/internal/messaging"
	"concierge-server/notification-service/internal/service"
	sharedDatabase "concierge-server/shared/database"
	sharedLogger "concierge-server/shared/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	// --- Загрузка конфигурации ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// --- Инициализация логгера (Используем shared/logger) ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.Log.Level,
		Encoding: "json",
	})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Info("Логгер инициализирован", zap.String("logLevel", cfg.Log.Level))

	// --- Подключение к RabbitMQ ---
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQ.URI, logger)
	if err != nil {
		sugar.Fatalf("Не удалось подключиться к RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()
	sugar.Info("Успешно подключено к RabbitMQ")

	// --- Подключение к PostgreSQL (таблица токенов устройств) ---
	pgPool, err := connectPostgres(cfg.DB.DSN(), logger)
	if err != nil {
		sugar.Fatalf("Не удалось подключиться к PostgreSQL: %v", err)
	}
	defer pgPool.Close()
	sugar.Info("Успешно подключено к PostgreSQL")

	// --- Инициализация зависимостей ---
	tokenRepo := sharedDatabase.NewDeviceTokenRepository(pgPool, logger)
	tokenProvider := service.NewDBTokenProvider(tokenRepo, logger)

	deletionPublisher, err := messaging.NewRabbitTokenDeletionPublisher(rabbitConn, logger)
	if err != nil {
		sugar.Fatalf("Ошибка инициализации TokenDeletionPublisher: %v", err)
	}

	// Инициализируем отправителей
	var fcmSender service.PlatformSender
	var apnsSender service.PlatformSender
	var errSender error

	fcmSender, errSender = service.NewFCMSender(cfg.FCM, logger)
	if errSender != nil {
		sugar.Fatalf("Ошибка инициализации FCM Sender: %v", errSender)
	}
	if fcmSender == nil {
		// NewFCMSender вернул nil, nil (FCM не настроен) — используем заглушку
		sugar.Warn("FCM Sender не инициализирован (конфигурация отсутствует?), используется заглушка.")
		fcmSender = service.NewStubFCMSender(logger)
	}

	apnsSender, errSender = service.NewApnsSender(cfg.APNS, logger)
	if errSender != nil {
		sugar.Fatalf("Ошибка инициализации APNS Sender: %v", errSender)
	}
	if apnsSender == nil {
		sugar.Warn("APNS Sender не инициализирован (конфигурация отсутствует?), используется заглушка.")
		apnsSender = service.NewStubApnsSender(logger)
	}

	notificationService := service.NewNotificationService(tokenProvider, deletionPublisher, logger, fcmSender, apnsSender)

	// --- Инициализация обработчика сообщений и консьюмера ---
	processor := messaging.NewProcessor(logger, notificationService)
	consumer, err := messaging.NewConsumer(rabbitConn, logger, cfg.PushQueueName, cfg.WorkerConcurrency, processor)
	if err != nil {
		sugar.Fatalf("Не удалось создать консьюмера RabbitMQ: %v", err)
	}

	// --- Запуск Health Check сервера ---
	healthSrv := startHealthCheckServer(cfg.HealthCheckPort, logger)

	// --- Запуск консьюмера в отдельной горутине ---
	consumerErrChan := make(chan error, 1)
	go func() {
		sugar.Info("Запуск консьюмера RabbitMQ...")
		err := consumer.Start()
		if err != nil {
			sugar.Errorf("Консьюмер RabbitMQ завершился с ошибкой: %v", err)
		}
		consumerErrChan <- err
		sugar.Info("Консьюмер RabbitMQ остановлен.")
	}()

	// --- Ожидание сигнала завершения или ошибки консьюмера ---
	sugar.Info("Сервис уведомлений запущен. Нажмите Ctrl+C для выхода.")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		sugar.Info("Получен сигнал завершения, начинаем остановку...")
	case err := <-consumerErrChan:
		if err != nil {
			sugar.Errorf("Консьюмер завершился с ошибкой, инициируем остановку: %v", err)
		} else {
			sugar.Info("Консьюмер завершился без ошибок, инициируем остановку.")
		}
	}

	// --- Graceful shutdown ---
	sugar.Info("Остановка Health Check сервера...")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := healthSrv.Shutdown(ctxShutdown); err != nil {
		sugar.Errorf("Ошибка при остановке Health Check сервера: %v", err)
	}
	sugar.Info("Health Check сервер остановлен.")

	sugar.Info("Остановка консьюмера RabbitMQ...")
	consumer.Stop()

	// Дожидаемся фактического завершения горутины консьюмера
	<-consumerErrChan
	sugar.Info("Горутина консьюмера RabbitMQ подтвердила завершение.")

	sugar.Info("Сервис уведомлений успешно остановлен.")
}

// startHealthCheckServer поднимает служебный HTTP сервер с /health и /metrics.
func startHealthCheckServer(port string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		logger.Info("Запуск Health Check сервера", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Ошибка запуска Health Check сервера", zap.Error(err))
		}
	}()

	return srv
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(uri string, logger *zap.Logger) (*amqp.Connection, error) {
	var connection *amqp.Connection
	var err error
	maxRetries := 50
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		connection, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Подключение к RabbitMQ успешно установлено")
			// Обработчик разрыва соединения
			go func() {
				notifyClose := make(chan *amqp.Error)
				connection.NotifyClose(notifyClose)
				closeErr := <-notifyClose
				if closeErr != nil {
					logger.Error("Соединение с RabbitMQ разорвано", zap.Error(closeErr))
				}
			}()
			return connection, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ, попытка переподключения...",
			zap.Error(err),
			zap.Int("retry", i+1),
			zap.Duration("delay", retryDelay),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("не удалось подключиться к RabbitMQ после %d попыток: %w", maxRetries, err)
}

// connectPostgres пытается подключиться к PostgreSQL с несколькими попытками.
func connectPostgres(dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error
	maxRetries := 50
	retryDelay := 3 * time.Second

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора DSN PostgreSQL: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			pingErr := pool.Ping(pingCtx)
			cancel()
			if pingErr == nil {
				logger.Info("Подключение к PostgreSQL успешно установлено", zap.String("dsn", maskDSN(dsn)))
				return pool, nil
			}
			pool.Close()
			err = pingErr
		}
		logger.Warn("Не удалось подключиться к PostgreSQL, попытка переподключения...",
			zap.Error(err),
			zap.Int("retry", i+1),
			zap.Duration("delay", retryDelay),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("не удалось подключиться к PostgreSQL после %d попыток: %w", maxRetries, err)
}

// maskDSN скрывает пароль в строке подключения для логов.
func maskDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "invalid-dsn"
	}
	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "xxx")
		}
	}
	return parsed.String()
}
