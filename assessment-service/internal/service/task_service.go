package service

import (
	"context"
	"fmt"
	"time"

	"concierge-server/shared/constants"
	"concierge-server/shared/eligibility"
	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"
	"concierge-server/shared/notifications"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService отвечает за отбор задач/подрядчиков по ответам сессии
// и за мини-анкеты, открывающие под-задачи.
type TaskService interface {
	// ListEligibleTasks возвращает задачи верхнего уровня, подходящие
	// под ответы сессии (под-задачи не участвуют в первом проходе).
	ListEligibleTasks(ctx context.Context, userID, sessionID uuid.UUID) ([]models.TaskDefinition, error)
	// ListEligibleVendors возвращает подрядчиков, подходящих под ответы сессии.
	ListEligibleVendors(ctx context.Context, userID, sessionID uuid.UUID) ([]models.VendorDefinition, error)
	// SubmitMiniAssessment вливает ответы мини-анкеты в сессию и возвращает
	// открывшиеся под-задачи родительской задачи.
	// Возвращает models.ErrNotASubTaskParent, если parentCode — под-задача,
	// и models.ErrTaskNotEligible, если родительская задача не подходит сессии.
	SubmitMiniAssessment(ctx context.Context, userID, sessionID uuid.UUID, parentCode string, answers models.AnswerMap) ([]models.TaskDefinition, error)
}

var _ TaskService = (*taskService)(nil)

type taskService struct {
	sessionRepo     interfaces.SessionRepository
	taskRepo        interfaces.TaskDefinitionRepository
	vendorRepo      interfaces.VendorDefinitionRepository
	deviceTokenRepo interfaces.UserDeviceTokenRepository
	pushPublisher   interfaces.PushEventPublisher
	unlockPublisher interfaces.TasksUnlockedPublisher
	settings        DynamicSettings
	logger          *zap.Logger
}

func NewTaskService(
	sessionRepo interfaces.SessionRepository,
	taskRepo interfaces.TaskDefinitionRepository,
	vendorRepo interfaces.VendorDefinitionRepository,
	deviceTokenRepo interfaces.UserDeviceTokenRepository,
	pushPublisher interfaces.PushEventPublisher,
	unlockPublisher interfaces.TasksUnlockedPublisher,
	settings DynamicSettings,
	logger *zap.Logger,
) TaskService {
	return &taskService{
		sessionRepo:     sessionRepo,
		taskRepo:        taskRepo,
		vendorRepo:      vendorRepo,
		deviceTokenRepo: deviceTokenRepo,
		pushPublisher:   pushPublisher,
		unlockPublisher: unlockPublisher,
		settings:        settings,
		logger:          logger.Named("TaskService"),
	}
}

// ListEligibleTasks — первый проход отбора: только задачи верхнего уровня.
func (s *taskService) ListEligibleTasks(ctx context.Context, userID, sessionID uuid.UUID) ([]models.TaskDefinition, error) {
	session, err := s.sessionRepo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.taskRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}

	matched := eligibility.Match(catalog, session.Answers, false, "")
	s.logger.Debug("Matched tasks for session",
		zap.String("sessionID", sessionID.String()),
		zap.Int("matched", len(matched)),
		zap.Int("catalog", len(catalog)),
	)
	return matched, nil
}

// ListEligibleVendors отбирает подрядчиков по тем же правилам условий.
func (s *taskService) ListEligibleVendors(ctx context.Context, userID, sessionID uuid.UUID) ([]models.VendorDefinition, error) {
	session, err := s.sessionRepo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.vendorRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor catalog: %w", err)
	}
	return eligibility.MatchVendors(catalog, session.Answers), nil
}

// SubmitMiniAssessment — второй проход отбора.
// Ответы мини-анкеты вливаются в сессию, затем под-задачи родительской
// задачи отбираются по объединенной карте ответов.
func (s *taskService) SubmitMiniAssessment(ctx context.Context, userID, sessionID uuid.UUID, parentCode string, answers models.AnswerMap) ([]models.TaskDefinition, error) {
	log := s.logger.With(
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
		zap.String("parentTask", parentCode),
	)

	parent, err := s.taskRepo.GetByCode(ctx, parentCode)
	if err != nil {
		return nil, err
	}
	if parent.IsSubTask {
		log.Warn("Mini assessment submitted for a sub-task")
		return nil, models.ErrNotASubTaskParent
	}

	session, err := s.sessionRepo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	merged := session.Answers.Merged(answers)

	// Родительская задача должна быть доступна пользователю с учетом
	// уже влитых ответов мини-анкеты.
	if !eligibility.Evaluate(parent.Conditions, merged) {
		log.Warn("Parent task not eligible for session answers")
		return nil, models.ErrTaskNotEligible
	}

	session.Answers = merged
	ttl := s.settings.GetDuration(constants.ConfigKeySessionTTL, 30*24*time.Hour)
	if err := s.sessionRepo.Save(ctx, session, ttl); err != nil {
		return nil, fmt.Errorf("failed to save merged answers: %w", err)
	}

	catalog, err := s.taskRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}

	unlocked := eligibility.Match(catalog, merged, true, parentCode)
	log.Info("Mini assessment processed", zap.Int("unlocked", len(unlocked)))

	if len(unlocked) > 0 {
		s.notifyUnlocked(ctx, session, parentCode, unlocked)
	}
	return unlocked, nil
}

// notifyUnlocked рассылает событие и пуш об открытии под-задач.
// Сбой уведомления не ломает основную операцию.
func (s *taskService) notifyUnlocked(ctx context.Context, session *models.AssessmentSession, parentCode string, unlocked []models.TaskDefinition) {
	log := s.logger.With(
		zap.String("userID", session.UserID.String()),
		zap.String("parentTask", parentCode),
	)

	update := models.TasksUnlockedUpdate{
		UserID:     session.UserID,
		SessionID:  session.ID,
		ParentTask: parentCode,
	}
	for _, task := range unlocked {
		update.TaskCodes = append(update.TaskCodes, task.Code)
		update.TaskTitles = append(update.TaskTitles, task.Title)
	}

	if err := s.unlockPublisher.PublishTasksUnlocked(ctx, update); err != nil {
		log.Warn("Failed to publish task unlock event", zap.Error(err))
	}

	if !s.settings.GetBool(constants.ConfigKeyMiniAssessmentPush, true) ||
		!s.settings.GetBool(constants.ConfigKeyPushEnabled, true) {
		return
	}

	payload, err := notifications.BuildTasksUnlockedPushPayload(update)
	if err != nil {
		log.Warn("Failed to build task unlock push payload", zap.Error(err))
		return
	}

	tokens, err := s.deviceTokenRepo.GetDeviceTokensForUser(ctx, session.UserID)
	if err != nil {
		log.Warn("Failed to load device tokens for unlock push", zap.Error(err))
	}
	for _, t := range tokens {
		payload.DeviceTokens = append(payload.DeviceTokens, t.Token)
	}

	if err := s.pushPublisher.PublishPushEvent(ctx, *payload); err != nil {
		log.Warn("Failed to publish task unlock push", zap.Error(err))
		return
	}
	log.Info("Task unlock push published", zap.Int("tasks", len(unlocked)))
}
