package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"concierge-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier определяет функцию, которая проверяет строку токена и возвращает claims.
// Ошибки могут быть models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed и т.д.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// GinAuthMiddleware создает middleware Gin для проверки JWT и ролей.
// Оно извлекает токен, верифицирует его с помощью предоставленного verifier,
// проверяет наличие необходимых ролей и добавляет UserID/Roles в контекст запроса.
func GinAuthMiddleware(verifier TokenVerifier, logger *zap.Logger, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Missing token"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Malformed Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Malformed token header"})
			return
		}
		tokenString := parts[1]

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Unauthorized: Invalid token"
			switch {
			case errors.Is(err, models.ErrTokenExpired):
				msg = "Unauthorized: Token expired"
			case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				// Одинаковое сообщение для невалидного и некорректного формата
			default:
				log.Error("Unexpected token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "Internal server error during token verification"
			}
			// Логгируем начало токена для отладки, не весь токен
			tokenSnippet := tokenString
			if len(tokenString) > 10 {
				tokenSnippet = tokenString[:10] + "..."
			}
			log.Warn("Token verification failed", zap.Error(err), zap.String("tokenSnippet", tokenSnippet))
			c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
			return
		}

		if len(requiredRoles) > 0 {
			hasRequiredRole := false
			for _, requiredRole := range requiredRoles {
				if models.HasRole(claims.Roles, requiredRole) {
					hasRequiredRole = true
					break
				}
			}
			if !hasRequiredRole {
				log.Warn("User does not have required role",
					zap.String("userID", claims.UserID.String()),
					zap.Strings("userRoles", claims.Roles),
					zap.Strings("requiredRoles", requiredRoles),
				)
				c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden: Insufficient permissions"})
				return
			}
		}

		// Добавляем информацию в контекст запроса: обработчики читают ее
		// через models.GetUserIDFromContext независимо от фреймворка.
		ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
		ctx = context.WithValue(ctx, models.RolesContextKey, claims.Roles)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("User authorized", zap.String("userID", claims.UserID.String()), zap.Strings("roles", claims.Roles))
		c.Next()
	}
}
