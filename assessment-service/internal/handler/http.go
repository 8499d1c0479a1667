package handler

import (
	"errors"
	"fmt"
	"net/http"

	"concierge-server/assessment-service/internal/service"
	"concierge-server/shared/authutils"
	sharedMiddleware "concierge-server/shared/middleware"
	sharedModels "concierge-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// AssessmentHandler обрабатывает HTTP запросы сервиса анкеты.
type AssessmentHandler struct {
	assessmentService service.AssessmentService
	taskService       service.TaskService
	deviceTokenSvc    service.DeviceTokenService
	configSvc         service.DynamicConfigService
	catalogAdminSvc   service.CatalogAdminService
	logger            *zap.Logger
	tokenVerifier     *authutils.JWTVerifier
}

// NewAssessmentHandler создает новый AssessmentHandler.
func NewAssessmentHandler(
	assessmentSvc service.AssessmentService,
	taskSvc service.TaskService,
	deviceTokenSvc service.DeviceTokenService,
	configSvc service.DynamicConfigService,
	catalogAdminSvc service.CatalogAdminService,
	logger *zap.Logger,
	jwtSecret string,
) *AssessmentHandler {
	verifier, err := authutils.NewJWTVerifier(jwtSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT Verifier", zap.Error(err))
	}

	return &AssessmentHandler{
		assessmentService: assessmentSvc,
		taskService:       taskSvc,
		deviceTokenSvc:    deviceTokenSvc,
		configSvc:         configSvc,
		catalogAdminSvc:   catalogAdminSvc,
		logger:            logger.Named("AssessmentHandler"),
		tokenVerifier:     verifier,
	}
}

// RegisterRoutes регистрирует маршруты сервиса анкеты.
func (h *AssessmentHandler) RegisterRoutes(r *gin.Engine) {
	authMiddleware := sharedMiddleware.GinAuthMiddleware(h.tokenVerifier.VerifyToken, h.logger)

	sessions := r.Group("/sessions", authMiddleware)
	{
		sessions.POST("", h.startSession)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.deleteSession)
		sessions.POST("/:id/answers", h.submitAnswer)
		sessions.POST("/:id/advance", h.advance)
		sessions.POST("/:id/back", h.goBack)
		sessions.POST("/:id/reset", h.resetSession)

		sessions.GET("/:id/tasks", h.listEligibleTasks)
		sessions.GET("/:id/vendors", h.listEligibleVendors)
		sessions.POST("/:id/tasks/:code/mini-assessment", h.submitMiniAssessment)
	}

	devices := r.Group("/device-tokens", authMiddleware)
	{
		devices.POST("", h.registerDeviceToken)
		devices.DELETE("", h.deleteDeviceToken)
	}

	// Управление настройками и каталогами, только для администраторов.
	adminMiddleware := sharedMiddleware.GinAuthMiddleware(h.tokenVerifier.VerifyToken, h.logger, sharedModels.RoleAdmin)
	admin := r.Group("/admin", adminMiddleware)
	{
		admin.GET("/configs", h.listConfigs)
		admin.GET("/configs/:key", h.getConfig)
		admin.PUT("/configs/:key", h.updateConfig)

		admin.PUT("/tasks/:code", h.upsertTask)
		admin.PUT("/vendors/:code", h.upsertVendor)
	}
}

// --- Вспомогательные функции --- //

// getUserIDFromContext извлекает userID, положенный auth-middleware в контекст запроса.
func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	userID, ok := sharedModels.GetUserIDFromContext(c.Request.Context())
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id не найден в контексте")
	}
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("невалидный user_id в контексте")
	}
	return userID, nil
}

// parseSessionID разбирает путь /:id. При ошибке сам пишет ответ 400.
func (h *AssessmentHandler) parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID format", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid session ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, sharedModels.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, sharedModels.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Forbidden"}
	case errors.Is(err, sharedModels.ErrSessionNotFound),
		errors.Is(err, sharedModels.ErrTaskNotFound),
		errors.Is(err, sharedModels.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, sharedModels.ErrTooManySessions):
		statusCode = http.StatusConflict // 409 Conflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, sharedModels.ErrNotASubTaskParent),
		errors.Is(err, sharedModels.ErrTaskNotEligible),
		errors.Is(err, sharedModels.ErrInvalidInput),
		errors.Is(err, sharedModels.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}

	c.AbortWithStatusJSON(statusCode, apiErr)
}

// isExpectedServiceError отсекает ожидаемые ошибки, которые не нужно логировать как Error.
func isExpectedServiceError(err error) bool {
	return errors.Is(err, sharedModels.ErrSessionNotFound) ||
		errors.Is(err, sharedModels.ErrTaskNotFound) ||
		errors.Is(err, sharedModels.ErrNotFound) ||
		errors.Is(err, sharedModels.ErrTooManySessions) ||
		errors.Is(err, sharedModels.ErrNotASubTaskParent) ||
		errors.Is(err, sharedModels.ErrTaskNotEligible) ||
		errors.Is(err, sharedModels.ErrInvalidInput)
}
