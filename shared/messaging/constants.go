package messaging

// Exchange Names
const (
	ConfigUpdateExchangeName = "config_update_exchange"
	TaskUnlockExchangeName   = "task_unlocks_exchange"
)

// Queue Names (examples, might be service-specific)
const (
	PushNotificationQueueName = "push_notifications_queue"
	TokenDeletionQueueName    = "device_token_deletions_queue"
)

// Notification Statuses
type NotificationStatus string

const (
	NotificationStatusSuccess NotificationStatus = "success"
	NotificationStatusError   NotificationStatus = "error"
)
