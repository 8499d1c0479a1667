package models

import "github.com/google/uuid"

// PushNotificationPayload определяет структуру для отправки Push-уведомлений.
type PushNotificationPayload struct {
	UserID       uuid.UUID         `json:"user_id"`        // ID пользователя (обязательно)
	DeviceTokens []string          `json:"device_tokens"`  // Токены устройств (если нужны конкретные)
	Notification PushNotification  `json:"notification"`   // Основное тело уведомления
	Data         map[string]string `json:"data,omitempty"` // Дополнительные данные
}

// PushNotification содержит основные данные для отображения уведомления.
type PushNotification struct {
	Title string `json:"title"`           // Заголовок уведомления
	Body  string `json:"body"`            // Текст уведомления
	Image string `json:"image,omitempty"` // URL изображения (опционально)
}

// TasksUnlockedUpdate содержит данные о задачах, открывшихся после мини-опроса.
// Публикуется assessment-service и превращается в push-уведомление.
type TasksUnlockedUpdate struct {
	UserID     uuid.UUID `json:"user_id"`
	SessionID  uuid.UUID `json:"session_id"`
	ParentTask string    `json:"parent_task"`           // Код родительской задачи
	TaskCodes  []string  `json:"task_codes"`            // Коды открывшихся под-задач
	TaskTitles []string  `json:"task_titles,omitempty"` // Названия для текста уведомления
}
