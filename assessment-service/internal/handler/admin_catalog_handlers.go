package handler

import (
	"net/http"

	"concierge-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpsertTaskRequest — тело запроса создания/обновления задачи каталога.
// Код задачи берется из пути, в теле его нет.
type UpsertTaskRequest struct {
	Title      string              `json:"title" binding:"required"`
	Category   string              `json:"category"`
	Conditions models.ConditionSet `json:"conditions"`
	IsSubTask  bool                `json:"isSubTask"`
	ParentTask string              `json:"parentTask"`
	SortOrder  int                 `json:"sortOrder"`
}

// UpsertVendorRequest — тело запроса создания/обновления подрядчика каталога.
type UpsertVendorRequest struct {
	Title      string              `json:"title" binding:"required"`
	Category   string              `json:"category"`
	Conditions models.ConditionSet `json:"conditions"`
	SortOrder  int                 `json:"sortOrder"`
}

// upsertTask создает или обновляет определение задачи.
// PUT /admin/tasks/:code
func (h *AssessmentHandler) upsertTask(c *gin.Context) {
	code := c.Param("code")

	var req UpsertTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid upsert task request body", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	def := models.TaskDefinition{
		Code:       code,
		Title:      req.Title,
		Category:   req.Category,
		Conditions: req.Conditions,
		IsSubTask:  req.IsSubTask,
		ParentTask: req.ParentTask,
		SortOrder:  req.SortOrder,
	}

	h.logger.Info("Upserting task definition", zap.String("code", code))

	if err := h.catalogAdminSvc.UpsertTask(c.Request.Context(), &def); err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Failed to upsert task definition", zap.String("code", code), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, def)
}

// upsertVendor создает или обновляет определение подрядчика.
// PUT /admin/vendors/:code
func (h *AssessmentHandler) upsertVendor(c *gin.Context) {
	code := c.Param("code")

	var req UpsertVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid upsert vendor request body", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	def := models.VendorDefinition{
		Code:       code,
		Title:      req.Title,
		Category:   req.Category,
		Conditions: req.Conditions,
		SortOrder:  req.SortOrder,
	}

	h.logger.Info("Upserting vendor definition", zap.String("code", code))

	if err := h.catalogAdminSvc.UpsertVendor(c.Request.Context(), &def); err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Failed to upsert vendor definition", zap.String("code", code), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, def)
}
