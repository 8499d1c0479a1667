package constants

// Основной ключ для локализации в data payload
const PushLocKey = "loc_key"

// Event types used in push notification data payload
const (
	PushEventTypeTasksUnlocked      = "tasks_unlocked"      // Мини-анкета открыла новые под-задачи
	PushEventTypeAssessmentComplete = "assessment_complete" // Основная анкета завершена
)

// Ключи локализации для Push-уведомлений (для поля loc_key в data payload)
const (
	// Новые под-задачи открыты
	PushLocKeyTasksUnlocked = "notification_tasks_unlocked"
	// Анкета завершена, план переезда готов
	PushLocKeyAssessmentComplete = "notification_assessment_complete"
)

// Имена аргументов локализации (для полей loc_arg_* в data payload)
const (
	PushLocArgParentTask = "parentTask"
	PushLocArgTaskCount  = "taskCount"
)

// Ключи для Fallback текста (если локализация на клиенте не сработает)
const (
	PushFallbackTitleKey = "fallback_title"
	PushFallbackBodyKey  = "fallback_body"
)
