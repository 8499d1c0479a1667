package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// listEligibleTasks возвращает задачи, подходящие под ответы сессии.
func (h *AssessmentHandler) listEligibleTasks(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListEligibleTasks(c.Request.Context(), userID, sessionID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error listing eligible tasks",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TaskListResponse{Tasks: tasks})
}

// listEligibleVendors возвращает подрядчиков, подходящих под ответы сессии.
func (h *AssessmentHandler) listEligibleVendors(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	vendors, err := h.taskService.ListEligibleVendors(c.Request.Context(), userID, sessionID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error listing eligible vendors",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, VendorListResponse{Vendors: vendors})
}

// submitMiniAssessment принимает ответы мини-анкеты родительской задачи
// и возвращает открывшиеся под-задачи.
func (h *AssessmentHandler) submitMiniAssessment(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	parentCode := c.Param("code")
	if parentCode == "" {
		c.JSON(http.StatusBadRequest, APIError{Message: "Missing task code"})
		return
	}

	var req MiniAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	h.logger.Info("Mini assessment submitted",
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
		zap.String("parentTask", parentCode),
		zap.Int("answers", len(req.Answers)),
	)

	unlocked, err := h.taskService.SubmitMiniAssessment(c.Request.Context(), userID, sessionID, parentCode, req.Answers)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error submitting mini assessment",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.String("parentTask", parentCode),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnlockedTasksResponse{Unlocked: unlocked})
}

// registerDeviceToken сохраняет пуш-токен устройства пользователя.
func (h *AssessmentHandler) registerDeviceToken(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}

	var req RegisterDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.deviceTokenSvc.RegisterDeviceToken(c.Request.Context(), userID, req.Token, req.Platform); err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error registering device token", zap.String("userID", userID.String()), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// deleteDeviceToken удаляет пуш-токен устройства.
func (h *AssessmentHandler) deleteDeviceToken(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}

	var req DeleteDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.deviceTokenSvc.UnregisterDeviceToken(c.Request.Context(), req.Token); err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error deleting device token", zap.String("userID", userID.String()), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
