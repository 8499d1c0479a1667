package service

import (
	"context"
	"fmt"

	"concierge-server/notification-service/internal/config"
	sharedModels "concierge-server/shared/models"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// --- Заглушка для FCM Sender ---

type stubFCMSender struct {
	logger *zap.Logger
}

func NewStubFCMSender(logger *zap.Logger) PlatformSender {
	return &stubFCMSender{logger: logger.Named("stub_fcm_sender")}
}

func (s *stubFCMSender) Send(ctx context.Context, tokens []string, notification sharedModels.PushNotification, data map[string]string) ([]string, error) {
	s.logger.Info("ЗАГЛУШКА: Отправка FCM",
		zap.Strings("tokens", tokens),
		zap.String("title", notification.Title),
		zap.String("body", notification.Body),
		zap.Any("data", data),
	)
	return nil, nil
}

func (s *stubFCMSender) Platform() string {
	return "android"
}

// --- Реальный FCM Sender ---

type fcmSender struct {
	client *fcm.Client
	logger *zap.Logger
}

// NewFCMSender создает реальный отправитель FCM.
// Требует путь к файлу ключа сервис-аккаунта Firebase в cfg.CredentialsPath.
func NewFCMSender(cfg config.FCMConfig, logger *zap.Logger) (PlatformSender, error) {
	if cfg.CredentialsPath == "" {
		logger.Warn("Путь к файлу ключа Firebase (FCM_CREDENTIALS_PATH) не указан, FCM sender не будет создан.")
		return nil, nil // nil, nil если FCM не настроен
	}

	opts := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(context.Background(), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Firebase App из файла '%s': %w", cfg.CredentialsPath, err)
	}

	messagingClient, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ошибка получения FCM Messaging client: %w", err)
	}

	logger.Info("FCM Sender успешно инициализирован", zap.String("credentials_path", cfg.CredentialsPath))
	return &fcmSender{
		client: messagingClient,
		logger: logger.Named("fcm_sender"),
	}, nil
}

func (s *fcmSender) Send(ctx context.Context, tokens []string, notification sharedModels.PushNotification, data map[string]string) ([]string, error) {
	// Firebase Admin SDK принимает не более 500 токенов за мультикаст.
	// TODO: Реализовать батчинг для > 500 токенов
	if len(tokens) > 500 {
		s.logger.Warn("Количество токенов FCM превышает 500, отправка может завершиться ошибкой. Реализуйте батчинг.", zap.Int("token_count", len(tokens)))
	}

	message := &fcm.MulticastMessage{
		Tokens: tokens,
		Notification: &fcm.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: data,
		Android: &fcm.AndroidConfig{
			Priority: "high",
		},
	}

	br, err := s.client.SendMulticast(ctx, message)
	if err != nil {
		s.logger.Error("Ошибка вызова SendMulticast FCM", zap.Error(err))
		// Эта ошибка означает проблему с запросом или соединением, а не с токенами
		return nil, fmt.Errorf("ошибка отправки FCM: %w", err)
	}

	s.logger.Info("Результат отправки FCM",
		zap.Int("success_count", br.SuccessCount),
		zap.Int("failure_count", br.FailureCount),
	)

	invalidTokens := make([]string, 0)
	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				token := "unknown"
				if idx < len(tokens) {
					token = tokens[idx]
				}
				if fcm.IsInvalidArgument(resp.Error) ||
					fcm.IsUnregistered(resp.Error) ||
					fcm.IsSenderIDMismatch(resp.Error) {
					invalidTokens = append(invalidTokens, token)
					s.logger.Warn("Обнаружен невалидный/незарегистрированный FCM токен",
						zap.String("token", token),
						zap.Error(resp.Error),
					)
				} else {
					s.logger.Error("Ошибка доставки FCM для токена",
						zap.String("token", token),
						zap.Error(resp.Error),
					)
				}
			}
		}
		return invalidTokens, fmt.Errorf("ошибка доставки %d из %d FCM сообщений", br.FailureCount, len(tokens))
	}

	return invalidTokens, nil
}

func (s *fcmSender) Platform() string {
	return "android"
}
