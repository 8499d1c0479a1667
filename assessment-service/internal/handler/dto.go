package handler

import (
	"concierge-server/assessment-service/internal/sequence"
	"concierge-server/assessment-service/internal/service"
	"concierge-server/shared/models"
)

// SessionStateResponse — снимок состояния сессии для клиента.
// Список узлов отдается целиком: клиент рендерит экраны и прогресс сам.
type SessionStateResponse struct {
	ID          string           `json:"id"`
	Answers     models.AnswerMap `json:"answers"`
	Nodes       []sequence.Node  `json:"nodes"`
	CursorIndex int              `json:"cursorIndex"`
	Current     sequence.Node    `json:"current"`
	Progress    float64          `json:"progress"`
	Completed   bool             `json:"completed"`
}

func toSessionStateResponse(state *service.SessionState) SessionStateResponse {
	return SessionStateResponse{
		ID:          state.Session.ID.String(),
		Answers:     state.Session.Answers,
		Nodes:       state.Nodes,
		CursorIndex: state.Session.CursorIndex,
		Current:     state.Current,
		Progress:    state.Progress,
		Completed:   state.Completed,
	}
}

// SubmitAnswerRequest — тело запроса записи одного ответа.
// Значение принимает строку, булево или число (см. models.AnswerValue).
type SubmitAnswerRequest struct {
	Field string             `json:"field" binding:"required"`
	Value models.AnswerValue `json:"value"`
}

// MiniAssessmentRequest — тело запроса мини-анкеты под-задач.
type MiniAssessmentRequest struct {
	Answers models.AnswerMap `json:"answers" binding:"required"`
}

// UnlockedTasksResponse — результат мини-анкеты: открывшиеся под-задачи.
type UnlockedTasksResponse struct {
	Unlocked []models.TaskDefinition `json:"unlocked"`
}

// TaskListResponse — список подходящих задач.
type TaskListResponse struct {
	Tasks []models.TaskDefinition `json:"tasks"`
}

// VendorListResponse — список подходящих подрядчиков.
type VendorListResponse struct {
	Vendors []models.VendorDefinition `json:"vendors"`
}

// RegisterDeviceTokenRequest — тело запроса регистрации пуш-токена устройства.
type RegisterDeviceTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"` // "ios" или "android"
}

// DeleteDeviceTokenRequest — тело запроса удаления пуш-токена устройства.
type DeleteDeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
