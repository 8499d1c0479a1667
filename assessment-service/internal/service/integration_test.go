package service_test // Используем _test пакет для изоляции

import (
	"context"
	"fmt"
	"testing"
	"time"

	appDatabase "concierge-server/assessment-service/internal/database"
	"concierge-server/assessment-service/internal/service"
	"concierge-server/assessment-service/internal/service/mocks"
	"concierge-server/shared/configservice"
	database "concierge-server/shared/database"
	interfaces "concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	// Докер клиент для проверки доступности
	"github.com/docker/docker/client"
)

// IntegrationTestSuite содержит состояние для наших интеграционных тестов
type IntegrationTestSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	taskRepo    interfaces.TaskDefinitionRepository
	vendorRepo  interfaces.VendorDefinitionRepository
	sessionRepo interfaces.SessionRepository
	tokenRepo   interfaces.UserDeviceTokenRepository
	configRepo  interfaces.DynamicConfigRepository

	pushPub   *mocks.PushEventPublisher
	unlockPub *mocks.TasksUnlockedPublisher

	assessmentSvc   service.AssessmentService
	taskSvc         service.TaskService
	catalogAdminSvc service.CatalogAdminService
}

// SetupSuite выполняется один раз перед всеми тестами в наборе
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")
	s.logger.Info("Setting up integration test suite...")

	// Запускаем контейнер PostgreSQL
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")
	s.logger.Info("PostgreSQL container started")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")
	s.logger.Info("Connected to test PostgreSQL")

	// Применяем боевые миграции вместе с посевным каталогом
	err = appDatabase.ApplyMigrations(s.pgPool)
	require.NoError(s.T(), err, "Failed to run migrations")
	s.logger.Info("Database migrations applied")

	// Запускаем контейнер Redis
	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	s.logger.Info("Redis container started")

	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	redisAddr := fmt.Sprintf("%s:%s", redisHost, redisPort.Port())

	s.redisClient = redis.NewClient(&redis.Options{Addr: redisAddr})
	_, err = s.redisClient.Ping(s.ctx).Result()
	require.NoError(s.T(), err, "Failed to connect to test redis")
	s.logger.Info("Connected to test Redis")

	// Реальные репозитории поверх тестовых контейнеров
	s.taskRepo = database.NewPgTaskDefinitionRepository(s.pgPool, s.logger)
	s.vendorRepo = database.NewPgVendorDefinitionRepository(s.pgPool, s.logger)
	s.sessionRepo = database.NewRedisSessionRepository(s.redisClient, s.logger)
	s.tokenRepo = database.NewDeviceTokenRepository(s.pgPool, s.logger)
	s.configRepo = database.NewPgDynamicConfigRepository(s.pgPool, s.logger)

	settings, err := configservice.NewConfigService(s.configRepo, s.logger)
	require.NoError(s.T(), err, "Failed to create ConfigService")

	s.pushPub = new(mocks.PushEventPublisher)
	s.unlockPub = new(mocks.TasksUnlockedPublisher)

	s.assessmentSvc = service.NewAssessmentService(
		s.sessionRepo, s.taskRepo, s.tokenRepo, s.pushPub, settings, s.logger,
	)
	s.taskSvc = service.NewTaskService(
		s.sessionRepo, s.taskRepo, s.vendorRepo, s.tokenRepo,
		s.pushPub, s.unlockPub, settings, s.logger,
	)
	s.catalogAdminSvc = service.NewCatalogAdminService(s.taskRepo, s.vendorRepo, s.logger)

	s.logger.Info("Test suite setup complete.")
}

// TearDownSuite выполняется один раз после всех тестов в наборе
func (s *IntegrationTestSuite) TearDownSuite() {
	s.logger.Info("Tearing down integration test suite...")
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
	s.logger.Info("Test suite teardown complete.")
}

// Перед каждым тестом очищаем Redis и мутабельные таблицы.
// Каталог и настройки засеяны миграциями, их не трогаем.
func (s *IntegrationTestSuite) SetupTest() {
	err := s.redisClient.FlushDB(s.ctx).Err()
	require.NoError(s.T(), err, "Failed to flush Redis DB")

	_, err = s.pgPool.Exec(s.ctx, "TRUNCATE TABLE user_device_tokens")
	require.NoError(s.T(), err, "Failed to truncate user_device_tokens table")

	s.pushPub.ExpectedCalls = nil
	s.pushPub.Calls = nil
	s.unlockPub.ExpectedCalls = nil
	s.unlockPub.Calls = nil
	s.pushPub.On("PublishPushEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.unlockPub.On("PublishTasksUnlocked", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// TestIntegrationTestSuite запускает набор тестов
func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	// Проверяем доступность Docker перед запуском
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(IntegrationTestSuite))
}

// --- Сами Тестовые Функции ---

func (s *IntegrationTestSuite) TestCatalogSeeded() {
	t := s.T()
	ctx := context.Background()

	all, err := s.taskRepo.GetAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	codes := make(map[string]models.TaskDefinition, len(all))
	for _, def := range all {
		codes[def.Code] = def
	}
	require.Contains(t, codes, "UPDATE_ADDRESS")
	require.Contains(t, codes, "PET_OPTIONS")
	require.Contains(t, codes, "SETUP_VET")
	require.True(t, codes["SETUP_VET"].IsSubTask)
	require.Equal(t, "PET_OPTIONS", codes["SETUP_VET"].ParentTask)

	petOptions, err := s.taskRepo.GetByCode(ctx, "PET_OPTIONS")
	require.NoError(t, err)
	require.Equal(t, []string{"Yes"}, petOptions.Conditions["AnyPets"])

	subTasks, err := s.taskRepo.ListSubTasks(ctx, "PET_OPTIONS")
	require.NoError(t, err)
	require.Len(t, subTasks, 3)

	_, err = s.taskRepo.GetByCode(ctx, "NO_SUCH_TASK")
	require.ErrorIs(t, err, models.ErrTaskNotFound)

	// Колонка title доезжает до модели и для задач, и для подрядчиков
	require.Equal(t, "Plan the move with your pets", petOptions.Title)

	vendors, err := s.vendorRepo.GetAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, vendors)
	require.Equal(t, "FULL_SERVICE_MOVERS", vendors[0].Code)
	require.Equal(t, "Full-service moving companies", vendors[0].Title)
}

func (s *IntegrationTestSuite) TestCatalogAdminUpsert() {
	t := s.T()
	ctx := context.Background()

	// Подрядчик: создание, чтение с заполненным title, обновление по коду
	vendor := &models.VendorDefinition{
		Code:       "JUNK_REMOVAL",
		Title:      "Junk removal services",
		Category:   "logistics",
		Conditions: models.ConditionSet{"DwellingType": {"Own"}},
		SortOrder:  50,
	}
	require.NoError(t, s.catalogAdminSvc.UpsertVendor(ctx, vendor))
	require.NotEqual(t, uuid.Nil, vendor.ID)
	defer func() {
		_, err := s.pgPool.Exec(ctx, "DELETE FROM vendor_definitions WHERE code = 'JUNK_REMOVAL'")
		require.NoError(t, err)
	}()

	vendors, err := s.vendorRepo.GetAll(ctx)
	require.NoError(t, err)
	var stored *models.VendorDefinition
	for i := range vendors {
		if vendors[i].Code == "JUNK_REMOVAL" {
			stored = &vendors[i]
		}
	}
	require.NotNil(t, stored)
	require.Equal(t, "Junk removal services", stored.Title)
	require.Equal(t, []string{"Own"}, stored.Conditions["DwellingType"])

	vendor.Title = "Junk removal and disposal"
	require.NoError(t, s.catalogAdminSvc.UpsertVendor(ctx, vendor))
	vendors, err = s.vendorRepo.GetAll(ctx)
	require.NoError(t, err)
	for _, def := range vendors {
		if def.Code == "JUNK_REMOVAL" {
			require.Equal(t, "Junk removal and disposal", def.Title)
		}
	}

	// Под-задача принимается только с существующим родителем верхнего уровня
	task := &models.TaskDefinition{
		Code:       "PET_BOARDING",
		Title:      "Book pet boarding for moving day",
		Category:   "family",
		Conditions: models.ConditionSet{"PetTypes": {"Dog", "Cat"}},
		IsSubTask:  true,
		ParentTask: "PET_OPTIONS",
	}
	require.NoError(t, s.catalogAdminSvc.UpsertTask(ctx, task))
	defer func() {
		_, err := s.pgPool.Exec(ctx, "DELETE FROM task_definitions WHERE code = 'PET_BOARDING'")
		require.NoError(t, err)
	}()

	reloaded, err := s.taskRepo.GetByCode(ctx, "PET_BOARDING")
	require.NoError(t, err)
	require.Equal(t, "Book pet boarding for moving day", reloaded.Title)
	require.True(t, reloaded.IsSubTask)
	require.Equal(t, "PET_OPTIONS", reloaded.ParentTask)

	subTasks, err := s.taskRepo.ListSubTasks(ctx, "PET_OPTIONS")
	require.NoError(t, err)
	require.Len(t, subTasks, 4)

	err = s.catalogAdminSvc.UpsertTask(ctx, &models.TaskDefinition{
		Code:       "ORPHAN_SUB_TASK",
		Title:      "Orphan",
		IsSubTask:  true,
		ParentTask: "NO_SUCH_TASK",
	})
	require.ErrorIs(t, err, models.ErrTaskNotFound)
}

func (s *IntegrationTestSuite) TestSessionLifecycle() {
	t := s.T()
	ctx := context.Background()
	userID := uuid.New()

	state, err := s.assessmentSvc.StartSession(ctx, userID)
	require.NoError(t, err)
	sessionID := state.Session.ID
	require.False(t, state.Completed)
	require.NotEmpty(t, state.Nodes)

	// Ответ на ветвящееся поле перестраивает последовательность,
	// и это состояние переживает round-trip через Redis.
	state, err = s.assessmentSvc.SubmitAnswer(ctx, userID, sessionID, "DwellingType", models.StringAnswer("Rent"))
	require.NoError(t, err)
	nodesAfterBranch := len(state.Nodes)

	reloaded, err := s.assessmentSvc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	require.Len(t, reloaded.Nodes, nodesAfterBranch)
	require.Equal(t, state.Session.CursorIndex, reloaded.Session.CursorIndex)
	answer, ok := reloaded.Session.Answers["DwellingType"]
	require.True(t, ok)
	require.Equal(t, "Rent", answer.Coerced())

	// Доходим до конца анкеты
	for i := 0; i < 200 && !state.Completed; i++ {
		state, err = s.assessmentSvc.Advance(ctx, userID, sessionID)
		require.NoError(t, err)
	}
	require.True(t, state.Completed, "assessment should complete within the advance budget")
	require.Equal(t, 1.0, state.Progress)

	// Повторный Advance на последнем узле идемпотентен
	again, err := s.assessmentSvc.Advance(ctx, userID, sessionID)
	require.NoError(t, err)
	require.True(t, again.Completed)
	s.pushPub.AssertNumberOfCalls(t, "PublishPushEvent", 1)

	require.NoError(t, s.assessmentSvc.DeleteSession(ctx, userID, sessionID))
	_, err = s.assessmentSvc.GetSession(ctx, userID, sessionID)
	require.ErrorIs(t, err, models.ErrSessionNotFound)
}

func (s *IntegrationTestSuite) TestSessionLimitFromDynamicConfig() {
	t := s.T()
	ctx := context.Background()
	userID := uuid.New()

	// Посев задает assessment.max_sessions_per_user = 3
	for i := 0; i < 3; i++ {
		_, err := s.assessmentSvc.StartSession(ctx, userID)
		require.NoError(t, err)
	}
	_, err := s.assessmentSvc.StartSession(ctx, userID)
	require.ErrorIs(t, err, models.ErrTooManySessions)
}

func (s *IntegrationTestSuite) TestEligibleTasksAndMiniAssessment() {
	t := s.T()
	ctx := context.Background()
	userID := uuid.New()

	state, err := s.assessmentSvc.StartSession(ctx, userID)
	require.NoError(t, err)
	sessionID := state.Session.ID

	answers := map[string]models.AnswerValue{
		"DwellingType": models.StringAnswer("Rent"),
		"AnyPets":      models.BoolAnswer(true),
		"MoveDistance": models.StringAnswer("Long Distance"),
		"Bedrooms":     models.IntAnswer(4),
	}
	for field, value := range answers {
		_, err = s.assessmentSvc.SubmitAnswer(ctx, userID, sessionID, field, value)
		require.NoError(t, err)
	}

	tasks, err := s.taskSvc.ListEligibleTasks(ctx, userID, sessionID)
	require.NoError(t, err)
	taskCodes := make([]string, 0, len(tasks))
	for _, def := range tasks {
		require.False(t, def.IsSubTask, "first pass must not surface sub-tasks")
		taskCodes = append(taskCodes, def.Code)
	}
	require.Equal(t, []string{"UPDATE_ADDRESS", "HIRE_MOVERS", "GET_DEPOSIT_BACK", "PET_OPTIONS"}, taskCodes)

	vendors, err := s.taskSvc.ListEligibleVendors(ctx, userID, sessionID)
	require.NoError(t, err)
	vendorCodes := make([]string, 0, len(vendors))
	for _, def := range vendors {
		vendorCodes = append(vendorCodes, def.Code)
	}
	require.Equal(t, []string{"FULL_SERVICE_MOVERS", "PET_SHIPPERS", "CLEANING_SERVICES", "STORAGE_UNITS"}, vendorCodes)

	// Мини-анкета PET_OPTIONS: PetTypes=Dog открывает SETUP_VET и UPDATE_PET_TAGS,
	// а PET_TRANSPORT проходит по MoveDistance из основной сессии.
	unlocked, err := s.taskSvc.SubmitMiniAssessment(ctx, userID, sessionID, "PET_OPTIONS", models.AnswerMap{
		"PetTypes": models.StringAnswer("Dog"),
	})
	require.NoError(t, err)
	unlockedCodes := make([]string, 0, len(unlocked))
	for _, def := range unlocked {
		unlockedCodes = append(unlockedCodes, def.Code)
	}
	require.Equal(t, []string{"SETUP_VET", "PET_TRANSPORT", "UPDATE_PET_TAGS"}, unlockedCodes)
	s.unlockPub.AssertNumberOfCalls(t, "PublishTasksUnlocked", 1)

	// Ответы мини-анкеты влиты в сессию
	reloaded, err := s.assessmentSvc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	petTypes, ok := reloaded.Session.Answers["PetTypes"]
	require.True(t, ok)
	require.Equal(t, "Dog", petTypes.Coerced())

	// Мини-анкета по под-задаче отклоняется
	_, err = s.taskSvc.SubmitMiniAssessment(ctx, userID, sessionID, "SETUP_VET", models.AnswerMap{})
	require.ErrorIs(t, err, models.ErrNotASubTaskParent)
}

func (s *IntegrationTestSuite) TestDeviceTokenRoundTrip() {
	t := s.T()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.tokenRepo.SaveDeviceToken(ctx, userID, "ios-token-1", "ios"))
	require.NoError(t, s.tokenRepo.SaveDeviceToken(ctx, userID, "android-token-1", "android"))
	// Повторная регистрация того же токена не плодит дубликатов
	require.NoError(t, s.tokenRepo.SaveDeviceToken(ctx, userID, "ios-token-1", "ios"))

	tokens, err := s.tokenRepo.GetDeviceTokensForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	require.NoError(t, s.tokenRepo.DeleteDeviceToken(ctx, "ios-token-1"))
	tokens, err = s.tokenRepo.GetDeviceTokensForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, "android-token-1", tokens[0].Token)

	deleted, err := s.tokenRepo.DeleteDeviceTokensForUser(ctx, userID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func (s *IntegrationTestSuite) TestDynamicConfigUpsert() {
	t := s.T()
	ctx := context.Background()

	cfg, err := s.configRepo.GetByKey(ctx, "assessment.max_sessions_per_user")
	require.NoError(t, err)
	require.Equal(t, "3", cfg.Value)

	require.NoError(t, s.configRepo.Upsert(ctx, &models.DynamicConfig{
		Key:   "assessment.max_sessions_per_user",
		Value: "5",
	}))
	cfg, err = s.configRepo.GetByKey(ctx, "assessment.max_sessions_per_user")
	require.NoError(t, err)
	require.Equal(t, "5", cfg.Value)

	// Возвращаем посевное значение, чтобы не влиять на другие тесты
	require.NoError(t, s.configRepo.Upsert(ctx, &models.DynamicConfig{
		Key:   "assessment.max_sessions_per_user",
		Value: "3",
	}))

	_, err = s.configRepo.GetByKey(ctx, "no.such.key")
	require.ErrorIs(t, err, models.ErrNotFound)
}
