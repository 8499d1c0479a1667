package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// startSession создает новую сессию анкеты.
func (h *AssessmentHandler) startSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}

	state, err := h.assessmentService.StartSession(c.Request.Context(), userID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error starting session", zap.String("userID", userID.String()), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionStateResponse(state))
}

// getSession возвращает текущее состояние сессии.
func (h *AssessmentHandler) getSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	state, err := h.assessmentService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error getting session",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionStateResponse(state))
}

// submitAnswer записывает один ответ анкеты.
func (h *AssessmentHandler) submitAnswer(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	state, err := h.assessmentService.SubmitAnswer(c.Request.Context(), userID, sessionID, req.Field, req.Value)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error submitting answer",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.String("field", req.Field),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionStateResponse(state))
}

// advance продвигает курсор на следующий узел.
func (h *AssessmentHandler) advance(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	state, err := h.assessmentService.Advance(c.Request.Context(), userID, sessionID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error advancing session",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionStateResponse(state))
}

// goBack отступает к предыдущему узлу ввода.
func (h *AssessmentHandler) goBack(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	state, err := h.assessmentService.GoBack(c.Request.Context(), userID, sessionID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error going back in session",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionStateResponse(state))
}

// resetSession очищает ответы и прогресс сессии.
func (h *AssessmentHandler) resetSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	state, err := h.assessmentService.ResetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error resetting session",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionStateResponse(state))
}

// deleteSession удаляет сессию.
func (h *AssessmentHandler) deleteSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
		return
	}
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	if err := h.assessmentService.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		if !isExpectedServiceError(err) {
			h.logger.Error("Error deleting session",
				zap.String("userID", userID.String()),
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
		handleServiceError(c, err)
		return
	}

	h.logger.Info("Session deleted",
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
	)
	c.Status(http.StatusNoContent)
}
