package service_test

import (
	"context"
	"testing"

	"concierge-server/assessment-service/internal/sequence"
	"concierge-server/assessment-service/internal/service"
	"concierge-server/assessment-service/internal/service/mocks"
	"concierge-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type assessmentMocks struct {
	sessionRepo *mocks.SessionRepository
	taskRepo    *mocks.TaskDefinitionRepository
	tokenRepo   *mocks.UserDeviceTokenRepository
	push        *mocks.PushEventPublisher
	settings    *mocks.StaticSettings
}

func newAssessmentService(t *testing.T) (service.AssessmentService, *assessmentMocks) {
	t.Helper()
	m := &assessmentMocks{
		sessionRepo: new(mocks.SessionRepository),
		taskRepo:    new(mocks.TaskDefinitionRepository),
		tokenRepo:   new(mocks.UserDeviceTokenRepository),
		push:        new(mocks.PushEventPublisher),
		settings:    &mocks.StaticSettings{},
	}
	svc := service.NewAssessmentService(
		m.sessionRepo, m.taskRepo, m.tokenRepo, m.push, m.settings, zap.NewNop(),
	)
	return svc, m
}

func storedSession(userID uuid.UUID, answers models.AnswerMap, cursor, watermark int) *models.AssessmentSession {
	return &models.AssessmentSession{
		ID:          uuid.New(),
		UserID:      userID,
		Answers:     answers,
		CursorIndex: cursor,
		Watermark:   watermark,
	}
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates session with fresh sequence", func(t *testing.T) {
		svc, m := newAssessmentService(t)
		m.sessionRepo.On("ListIDsForUser", ctx, userID).Return([]uuid.UUID{}, nil)
		m.sessionRepo.On("Save", ctx, mock.AnythingOfType("*models.AssessmentSession"), mock.AnythingOfType("time.Duration")).Return(nil)

		state, err := svc.StartSession(ctx, userID)
		require.NoError(t, err)

		assert.Equal(t, userID, state.Session.UserID)
		assert.NotEmpty(t, state.Nodes)
		assert.Equal(t, 0, state.Session.CursorIndex)
		assert.False(t, state.Completed)
		assert.Greater(t, state.Progress, 0.0)
		m.sessionRepo.AssertExpectations(t)
	})

	t.Run("rejects when session limit reached", func(t *testing.T) {
		svc, m := newAssessmentService(t)
		m.settings.Ints = map[string]int{"assessment.max_sessions_per_user": 1}
		m.sessionRepo.On("ListIDsForUser", ctx, userID).Return([]uuid.UUID{uuid.New()}, nil)

		_, err := svc.StartSession(ctx, userID)
		assert.ErrorIs(t, err, models.ErrTooManySessions)
		m.sessionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("not found propagates", func(t *testing.T) {
		svc, m := newAssessmentService(t)
		sessionID := uuid.New()
		m.sessionRepo.On("GetByID", ctx, userID, sessionID).Return(nil, models.ErrSessionNotFound)

		_, err := svc.GetSession(ctx, userID, sessionID)
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})

	t.Run("restores sequence from answers", func(t *testing.T) {
		svc, m := newAssessmentService(t)
		session := storedSession(userID, models.AnswerMap{
			"DwellingType": models.StringAnswer("Rent"),
		}, 5, 9)
		m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)

		state, err := svc.GetSession(ctx, userID, session.ID)
		require.NoError(t, err)

		assert.Equal(t, 5, state.Session.CursorIndex)
		// Ветка аренды присутствует в восстановленной последовательности
		found := false
		for _, n := range state.Nodes {
			if n.Kind == sequence.NodeInput && n.Step == sequence.StepLeaseEndDate {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("stores answer and saves session", func(t *testing.T) {
		svc, m := newAssessmentService(t)
		session := storedSession(userID, models.AnswerMap{}, 0, 0)
		m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
		m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)

		state, err := svc.SubmitAnswer(ctx, userID, session.ID, "MoveDate", models.StringAnswer("2026-10-01"))
		require.NoError(t, err)

		got, ok := state.Session.Answers["MoveDate"]
		require.True(t, ok)
		assert.Equal(t, "2026-10-01", got.Coerced())
		m.sessionRepo.AssertExpectations(t)
	})

	t.Run("branching answer rebuilds the sequence", func(t *testing.T) {
		svc, m := newAssessmentService(t)
		session := storedSession(userID, models.AnswerMap{}, 0, 0)
		m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
		m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)

		state, err := svc.SubmitAnswer(ctx, userID, session.ID, "AnyPets", models.StringAnswer("Yes"))
		require.NoError(t, err)

		found := false
		for _, n := range state.Nodes {
			if n.Kind == sequence.NodeInput && n.Step == sequence.StepPetTypes {
				found = true
			}
		}
		assert.True(t, found, "ветка питомцев должна появиться сразу после ответа")
	})

	t.Run("empty field rejected", func(t *testing.T) {
		svc, _ := newAssessmentService(t)
		_, err := svc.SubmitAnswer(ctx, userID, uuid.New(), "", models.StringAnswer("x"))
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestAdvance_CompletionPublishesPushOnce(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, m := newAssessmentService(t)

	// Курсор на последнем узле: следующий Advance фиксирует завершение.
	session := storedSession(userID, models.AnswerMap{}, 10_000, 0)
	m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
	m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)
	m.taskRepo.On("GetAll", ctx).Return([]models.TaskDefinition{
		{Code: "UPDATE_ADDRESS"},
	}, nil)
	m.tokenRepo.On("GetDeviceTokensForUser", ctx, userID).Return([]models.DeviceTokenInfo{
		{Token: "tok-1", Platform: "ios"},
	}, nil)
	m.push.On("PublishPushEvent", ctx, mock.AnythingOfType("models.PushNotificationPayload")).Return(nil).Once()

	state, err := svc.Advance(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.True(t, state.Completed)

	// Повторный Advance на завершенной сессии не шлет второй пуш.
	state, err = svc.Advance(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.True(t, state.Completed)

	m.push.AssertExpectations(t)
	m.push.AssertNumberOfCalls(t, "PublishPushEvent", 1)
}

func TestAdvance_PushDisabled(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, m := newAssessmentService(t)
	m.settings.Bools = map[string]bool{"notifications.push_enabled": false}

	session := storedSession(userID, models.AnswerMap{}, 10_000, 0)
	m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
	m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)

	state, err := svc.Advance(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	m.push.AssertNotCalled(t, "PublishPushEvent", mock.Anything, mock.Anything)
}

func TestGoBack(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, m := newAssessmentService(t)

	session := storedSession(userID, models.AnswerMap{}, 3, 0)
	m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
	m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)

	state, err := svc.GoBack(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, sequence.NodeInput, state.Current.Kind)
	assert.Equal(t, 1, state.Session.CursorIndex)
}

func TestResetSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, m := newAssessmentService(t)

	session := storedSession(userID, models.AnswerMap{
		"AnyPets": models.StringAnswer("Yes"),
	}, 12, 10)
	session.Completed = true
	m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
	m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)

	state, err := svc.ResetSession(ctx, userID, session.ID)
	require.NoError(t, err)

	assert.Empty(t, state.Session.Answers)
	assert.Equal(t, 0, state.Session.CursorIndex)
	assert.False(t, state.Completed)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()
	svc, m := newAssessmentService(t)

	m.sessionRepo.On("Delete", ctx, userID, sessionID).Return(nil)
	require.NoError(t, svc.DeleteSession(ctx, userID, sessionID))
	m.sessionRepo.AssertExpectations(t)
}

// Сохраненный водяной знак переживает цикл load/store.
func TestWatermarkSurvivesRoundTrip(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, m := newAssessmentService(t)

	session := storedSession(userID, models.AnswerMap{}, 0, 42)
	m.sessionRepo.On("GetByID", ctx, userID, session.ID).Return(session, nil)
	m.sessionRepo.On("Save", ctx, session, mock.AnythingOfType("time.Duration")).Return(nil)

	_, err := svc.GoBack(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, session.Watermark)
}
