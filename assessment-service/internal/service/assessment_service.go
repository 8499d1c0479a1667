package service

import (
	"context"
	"fmt"
	"time"

	"concierge-server/assessment-service/internal/sequence"
	"concierge-server/shared/constants"
	"concierge-server/shared/eligibility"
	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"
	"concierge-server/shared/notifications"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DynamicSettings — срез ConfigService, нужный сервисам анкеты.
// Локальный интерфейс, чтобы в тестах подставлять заглушку.
type DynamicSettings interface {
	GetInt(key string, defaultValue int) int
	GetBool(key string, defaultValue bool) bool
	GetDuration(key string, defaultValue time.Duration) time.Duration
}

// SessionState — снимок состояния сессии для отдачи клиенту.
type SessionState struct {
	Session   *models.AssessmentSession
	Nodes     []sequence.Node
	Current   sequence.Node
	Progress  float64
	Completed bool
}

// AssessmentService управляет жизненным циклом сессии анкеты.
type AssessmentService interface {
	// StartSession создает новую сессию анкеты для пользователя.
	// Возвращает models.ErrTooManySessions при превышении лимита живых сессий.
	StartSession(ctx context.Context, userID uuid.UUID) (*SessionState, error)
	// GetSession возвращает текущее состояние сессии.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)
	// SubmitAnswer записывает ответ на поле анкеты. Изменение ответа на
	// ветвящееся поле перестраивает последовательность с сохранением позиции.
	SubmitAnswer(ctx context.Context, userID, sessionID uuid.UUID, field string, value models.AnswerValue) (*SessionState, error)
	// Advance продвигает курсор на следующий узел. На последнем узле
	// помечает сессию завершенной и рассылает уведомление.
	Advance(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)
	// GoBack отступает к предыдущему узлу ввода.
	GoBack(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)
	// ResetSession очищает ответы и прогресс, сохраняя саму сессию.
	ResetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)
	// DeleteSession удаляет сессию.
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

var _ AssessmentService = (*assessmentService)(nil)

type assessmentService struct {
	sessionRepo     interfaces.SessionRepository
	taskRepo        interfaces.TaskDefinitionRepository
	deviceTokenRepo interfaces.UserDeviceTokenRepository
	pushPublisher   interfaces.PushEventPublisher
	settings        DynamicSettings
	logger          *zap.Logger
}

func NewAssessmentService(
	sessionRepo interfaces.SessionRepository,
	taskRepo interfaces.TaskDefinitionRepository,
	deviceTokenRepo interfaces.UserDeviceTokenRepository,
	pushPublisher interfaces.PushEventPublisher,
	settings DynamicSettings,
	logger *zap.Logger,
) AssessmentService {
	return &assessmentService{
		sessionRepo:     sessionRepo,
		taskRepo:        taskRepo,
		deviceTokenRepo: deviceTokenRepo,
		pushPublisher:   pushPublisher,
		settings:        settings,
		logger:          logger.Named("AssessmentService"),
	}
}

func (s *assessmentService) sessionTTL() time.Duration {
	return s.settings.GetDuration(constants.ConfigKeySessionTTL, 30*24*time.Hour)
}

// StartSession создает новую сессию и строит свежую последовательность.
func (s *assessmentService) StartSession(ctx context.Context, userID uuid.UUID) (*SessionState, error) {
	log := s.logger.With(zap.String("userID", userID.String()))

	existing, err := s.sessionRepo.ListIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	maxSessions := s.settings.GetInt(constants.ConfigKeySessionMaxPerUser, 3)
	if len(existing) >= maxSessions {
		log.Warn("Session limit reached", zap.Int("active", len(existing)), zap.Int("limit", maxSessions))
		return nil, models.ErrTooManySessions
	}

	now := time.Now().UTC()
	session := &models.AssessmentSession{
		ID:        uuid.New(),
		UserID:    userID,
		Answers:   models.AnswerMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	seq := sequence.New(nil)
	seq.Build(session.Answers)
	session.CursorIndex = seq.Index()
	session.Watermark = seq.Watermark()

	if err := s.sessionRepo.Save(ctx, session, s.sessionTTL()); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}

	log.Info("Assessment session started", zap.String("sessionID", session.ID.String()))
	return snapshot(session, seq), nil
}

// GetSession возвращает текущее состояние сессии.
func (s *assessmentService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error) {
	session, seq, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return snapshot(session, seq), nil
}

// SubmitAnswer записывает ответ. На ветвящемся поле последовательность
// перестраивается немедленно, чтобы прогресс и список узлов были честными.
func (s *assessmentService) SubmitAnswer(ctx context.Context, userID, sessionID uuid.UUID, field string, value models.AnswerValue) (*SessionState, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: empty answer field", models.ErrInvalidInput)
	}

	session, seq, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	session.Answers[field] = value
	if seq.IsBranchingField(field) {
		seq.Refresh(session.Answers)
	}

	if err := s.store(ctx, session, seq); err != nil {
		return nil, err
	}
	return snapshot(session, seq), nil
}

// Advance продвигает курсор. Завершение фиксируется один раз: повторные
// вызовы на последнем узле идемпотентны.
func (s *assessmentService) Advance(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error) {
	session, seq, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	completed := seq.Next(session.Answers)
	firstCompletion := completed && !session.Completed
	if completed {
		session.Completed = true
	}

	if err := s.store(ctx, session, seq); err != nil {
		return nil, err
	}

	if firstCompletion {
		s.notifyCompletion(ctx, session)
	}
	return snapshot(session, seq), nil
}

// GoBack отступает к предыдущему узлу ввода.
func (s *assessmentService) GoBack(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error) {
	session, seq, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	seq.Back()

	if err := s.store(ctx, session, seq); err != nil {
		return nil, err
	}
	return snapshot(session, seq), nil
}

// ResetSession очищает ответы, прогресс и флаг завершения.
func (s *assessmentService) ResetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error) {
	session, seq, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	session.Answers = models.AnswerMap{}
	session.Completed = false
	seq.Reset(session.Answers)

	if err := s.store(ctx, session, seq); err != nil {
		return nil, err
	}

	s.logger.Info("Assessment session reset",
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
	)
	return snapshot(session, seq), nil
}

// DeleteSession удаляет сессию.
func (s *assessmentService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessionRepo.Delete(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// load достает сессию и восстанавливает секвенсер из сохраненного состояния.
func (s *assessmentService) load(ctx context.Context, userID, sessionID uuid.UUID) (*models.AssessmentSession, *sequence.Sequencer, error) {
	session, err := s.sessionRepo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Answers == nil {
		session.Answers = models.AnswerMap{}
	}

	seq := sequence.New(nil)
	seq.Restore(session.Answers, session.CursorIndex, session.Watermark)
	return session, seq, nil
}

// store переносит состояние секвенсера в сессию и сохраняет ее.
func (s *assessmentService) store(ctx context.Context, session *models.AssessmentSession, seq *sequence.Sequencer) error {
	session.CursorIndex = seq.Index()
	session.Watermark = seq.Watermark()
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessionRepo.Save(ctx, session, s.sessionTTL()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// notifyCompletion отправляет пуш о готовности плана переезда.
// Ошибки уведомления не ломают основную операцию: только логируются.
func (s *assessmentService) notifyCompletion(ctx context.Context, session *models.AssessmentSession) {
	log := s.logger.With(
		zap.String("userID", session.UserID.String()),
		zap.String("sessionID", session.ID.String()),
	)

	if !s.settings.GetBool(constants.ConfigKeyPushEnabled, true) {
		log.Debug("Push notifications disabled, skipping completion push")
		return
	}

	taskCount := 0
	if catalog, err := s.taskRepo.GetAll(ctx); err != nil {
		log.Warn("Failed to load catalog for completion push", zap.Error(err))
	} else {
		taskCount = len(eligibility.Match(catalog, session.Answers, false, ""))
	}

	payload, err := notifications.BuildAssessmentCompletePushPayload(session.UserID, session.ID, taskCount)
	if err != nil {
		log.Warn("Failed to build completion push payload", zap.Error(err))
		return
	}

	tokens, err := s.deviceTokenRepo.GetDeviceTokensForUser(ctx, session.UserID)
	if err != nil {
		log.Warn("Failed to load device tokens for completion push", zap.Error(err))
	}
	for _, t := range tokens {
		payload.DeviceTokens = append(payload.DeviceTokens, t.Token)
	}

	if err := s.pushPublisher.PublishPushEvent(ctx, *payload); err != nil {
		log.Warn("Failed to publish completion push", zap.Error(err))
		return
	}
	log.Info("Completion push published", zap.Int("eligibleTasks", taskCount))
}

// snapshot собирает состояние для клиента.
func snapshot(session *models.AssessmentSession, seq *sequence.Sequencer) *SessionState {
	current, _ := seq.Current()
	return &SessionState{
		Session:   session,
		Nodes:     seq.Nodes(),
		Current:   current,
		Progress:  seq.Progress(),
		Completed: session.Completed,
	}
}
