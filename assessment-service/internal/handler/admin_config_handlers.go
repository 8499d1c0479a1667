package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateConfigRequest — тело запроса на изменение динамической настройки.
type UpdateConfigRequest struct {
	Value string `json:"value" binding:"required"`
}

// listConfigs возвращает все динамические настройки.
// GET /admin/configs
func (h *AssessmentHandler) listConfigs(c *gin.Context) {
	configs, err := h.configSvc.ListConfigs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list dynamic configs", zap.Error(err))
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// getConfig возвращает одну настройку по ключу.
// GET /admin/configs/:key
func (h *AssessmentHandler) getConfig(c *gin.Context) {
	key := c.Param("key")

	config, err := h.configSvc.GetConfig(c.Request.Context(), key)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Failed to get dynamic config", zap.String("key", key), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// updateConfig изменяет значение существующей настройки и рассылает обновление.
// PUT /admin/configs/:key
func (h *AssessmentHandler) updateConfig(c *gin.Context) {
	key := c.Param("key")

	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid update config request body", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	h.logger.Info("Updating dynamic config", zap.String("key", key))

	if err := h.configSvc.UpdateConfig(c.Request.Context(), key, req.Value); err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Failed to update dynamic config", zap.String("key", key), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
