package service

import (
	"context"
	"fmt"
	"sync"

	"concierge-server/notification-service/internal/messaging"
	"concierge-server/shared/interfaces"
	sharedModels "concierge-server/shared/models"

	"go.uber.org/zap"
)

// PlatformSender определяет интерфейс для отправки на конкретную платформу (FCM/APNS).
// Вторым результатом возвращаются токены, которые платформа признала невалидными.
type PlatformSender interface {
	Send(ctx context.Context, tokens []string, notification sharedModels.PushNotification, data map[string]string) (invalidTokens []string, err error)
	Platform() string // "android" или "ios"
}

// --- Реализация основного сервиса отправки ---

type notificationService struct {
	tokenProvider TokenProvider
	deletionPub   interfaces.TokenDeletionPublisher // Может быть nil
	logger        *zap.Logger
	fcmSender     PlatformSender // Может быть nil, если FCM не настроен
	apnsSender    PlatformSender // Может быть nil, если APNS не настроен
}

// NewNotificationService создает новый сервис отправки уведомлений.
func NewNotificationService(
	tp TokenProvider,
	deletionPub interfaces.TokenDeletionPublisher,
	logger *zap.Logger,
	fcmSender, apnsSender PlatformSender,
) *notificationService {
	if fcmSender == nil {
		logger.Warn("FCM sender не инициализирован.")
	}
	if apnsSender == nil {
		logger.Warn("APNS sender не инициализирован.")
	}
	return &notificationService{
		tokenProvider: tp,
		deletionPub:   deletionPub,
		logger:        logger.Named("notification_service"),
		fcmSender:     fcmSender,
		apnsSender:    apnsSender,
	}
}

var _ messaging.NotificationSender = (*notificationService)(nil)

func (s *notificationService) SendNotification(ctx context.Context, payload sharedModels.PushNotificationPayload) error {
	log := s.logger.With(zap.String("user_id", payload.UserID.String()))
	log.Info("Получен запрос на отправку уведомления")

	// 1. Получаем токены пользователя
	deviceTokens, err := s.tokenProvider.GetUserDeviceTokens(ctx, payload.UserID)
	if err != nil {
		log.Error("Ошибка получения токенов пользователя", zap.Error(err))
		// Временная проблема с хранилищем токенов не должна ронять сообщение
		return nil
	}

	// Если издатель приложил конкретные токены, ограничиваемся ими.
	if len(payload.DeviceTokens) > 0 {
		deviceTokens = filterTokens(deviceTokens, payload.DeviceTokens)
	}

	if len(deviceTokens) == 0 {
		log.Warn("Не найдено активных токенов для пользователя")
		return nil
	}

	log.Info("Найдено токенов", zap.Int("count", len(deviceTokens)))

	// 2. Группируем токены по платформам
	androidTokens := make([]string, 0)
	iosTokens := make([]string, 0)
	for _, dt := range deviceTokens {
		switch dt.Platform {
		case "android":
			androidTokens = append(androidTokens, dt.Token)
		case "ios":
			iosTokens = append(iosTokens, dt.Token)
		default:
			log.Warn("Неизвестная платформа токена", zap.String("token", dt.Token), zap.String("platform", dt.Platform))
		}
	}

	// 3. Отправляем уведомления параллельно
	var wg sync.WaitGroup
	var sendErrors []error
	var invalidTokens []string
	var mu sync.Mutex

	if s.fcmSender != nil && len(androidTokens) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Отправка на Android (FCM)", zap.Int("count", len(androidTokens)))
			invalid, err := s.fcmSender.Send(ctx, androidTokens, payload.Notification, payload.Data)
			mu.Lock()
			defer mu.Unlock()
			invalidTokens = append(invalidTokens, invalid...)
			if err != nil {
				log.Error("Ошибка отправки FCM", zap.Error(err))
				sendErrors = append(sendErrors, fmt.Errorf("fcm: %w", err))
			}
		}()
	}

	if s.apnsSender != nil && len(iosTokens) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Отправка на iOS (APNS)", zap.Int("count", len(iosTokens)))
			invalid, err := s.apnsSender.Send(ctx, iosTokens, payload.Notification, payload.Data)
			mu.Lock()
			defer mu.Unlock()
			invalidTokens = append(invalidTokens, invalid...)
			if err != nil {
				log.Error("Ошибка отправки APNS", zap.Error(err))
				sendErrors = append(sendErrors, fmt.Errorf("apns: %w", err))
			}
		}()
	}

	wg.Wait()

	// 4. Невалидные токены отправляем на удаление
	if len(invalidTokens) > 0 {
		s.publishTokenDeletions(ctx, invalidTokens)
	}

	if len(sendErrors) > 0 {
		log.Error("Произошли ошибки во время отправки уведомлений", zap.Errors("errors", sendErrors))
		return sendErrors[0]
	}

	log.Info("Отправка уведомлений завершена успешно")
	return nil
}

// publishTokenDeletions отправляет невалидные токены в очередь на удаление.
// Сбой публикации только логируется: токен всплывет снова при следующей отправке.
func (s *notificationService) publishTokenDeletions(ctx context.Context, tokens []string) {
	if s.deletionPub == nil {
		s.logger.Warn("TokenDeletionPublisher не настроен, невалидные токены не будут удалены",
			zap.Int("count", len(tokens)))
		return
	}
	for _, token := range tokens {
		if err := s.deletionPub.PublishTokenDeletion(ctx, token); err != nil {
			s.logger.Error("Ошибка публикации удаления токена", zap.Error(err))
		}
	}
	s.logger.Info("Невалидные токены отправлены на удаление", zap.Int("count", len(tokens)))
}

// filterTokens оставляет только токены из списка allowed.
func filterTokens(all []sharedModels.DeviceTokenInfo, allowed []string) []sharedModels.DeviceTokenInfo {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		allowedSet[t] = struct{}{}
	}
	filtered := make([]sharedModels.DeviceTokenInfo, 0, len(allowed))
	for _, dt := range all {
		if _, ok := allowedSet[dt.Token]; ok {
			filtered = append(filtered, dt)
		}
	}
	return filtered
}
