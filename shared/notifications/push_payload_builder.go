package notifications

import (
	"fmt"
	"strconv"
	"strings"

	"concierge-server/shared/constants"
	sharedModels "concierge-server/shared/models"

	"github.com/google/uuid"
)

// BuildTasksUnlockedPushPayload создает payload для push-уведомления о том,
// что мини-анкета открыла новые под-задачи.
func BuildTasksUnlockedPushPayload(update sharedModels.TasksUnlockedUpdate) (*sharedModels.PushNotificationPayload, error) {
	if update.UserID == uuid.Nil {
		return nil, fmt.Errorf("cannot build tasks unlocked push payload for nil user ID")
	}
	if len(update.TaskCodes) == 0 {
		return nil, fmt.Errorf("cannot build tasks unlocked push payload without tasks")
	}

	fallbackTitle := "New tasks unlocked!"
	fallbackBody := fmt.Sprintf("Your move plan has %d new tasks.", len(update.TaskCodes))
	if len(update.TaskTitles) == 1 {
		fallbackBody = fmt.Sprintf("New task on your move plan: %s.", update.TaskTitles[0])
	}

	data := map[string]string{
		"event_type":                   constants.PushEventTypeTasksUnlocked,
		"session_id":                   update.SessionID.String(),
		"task_codes":                   strings.Join(update.TaskCodes, ","),
		constants.PushLocKey:           constants.PushLocKeyTasksUnlocked,
		constants.PushLocArgParentTask: update.ParentTask,
		constants.PushLocArgTaskCount:  strconv.Itoa(len(update.TaskCodes)),
		constants.PushFallbackTitleKey: fallbackTitle,
		constants.PushFallbackBodyKey:  fallbackBody,
	}

	return &sharedModels.PushNotificationPayload{
		UserID: update.UserID,
		Notification: sharedModels.PushNotification{
			Title: fallbackTitle,
			Body:  fallbackBody,
		},
		Data: data,
	}, nil
}

// BuildAssessmentCompletePushPayload создает payload для push-уведомления
// о завершении основной анкеты.
func BuildAssessmentCompletePushPayload(userID, sessionID uuid.UUID, taskCount int) (*sharedModels.PushNotificationPayload, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("cannot build assessment complete push payload for nil user ID")
	}

	fallbackTitle := "Your move plan is ready!"
	fallbackBody := "We put together your personalized moving checklist."
	if taskCount > 0 {
		fallbackBody = fmt.Sprintf("Your personalized moving checklist has %d tasks.", taskCount)
	}

	data := map[string]string{
		"event_type":                   constants.PushEventTypeAssessmentComplete,
		"session_id":                   sessionID.String(),
		constants.PushLocKey:           constants.PushLocKeyAssessmentComplete,
		constants.PushLocArgTaskCount:  strconv.Itoa(taskCount),
		constants.PushFallbackTitleKey: fallbackTitle,
		constants.PushFallbackBodyKey:  fallbackBody,
	}

	return &sharedModels.PushNotificationPayload{
		UserID: userID,
		Notification: sharedModels.PushNotification{
			Title: fallbackTitle,
			Body:  fallbackBody,
		},
		Data: data,
	}, nil
}
