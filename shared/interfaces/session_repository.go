package interfaces

import (
	"context"
	"time"

	"concierge-server/shared/models"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for assessment session persistence
// (e.g., Redis). This interface is defined in shared so that implementations
// (like in shared/database) and consumers (like the assessment service) can
// depend on it without circular dependencies.
type SessionRepository interface {
	// Save сохраняет сессию целиком (ответы, курсор, водяной знак) с TTL.
	// Повторный Save продлевает TTL.
	Save(ctx context.Context, session *models.AssessmentSession, ttl time.Duration) error

	// GetByID возвращает сессию пользователя по ее идентификатору.
	// Возвращает models.ErrSessionNotFound, если сессии нет (или она истекла).
	GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*models.AssessmentSession, error)

	// ListIDsForUser возвращает идентификаторы живых сессий пользователя.
	ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Delete удаляет сессию. Удаление несуществующей сессии — не ошибка.
	Delete(ctx context.Context, userID, sessionID uuid.UUID) error

	// DeleteAllForUser удаляет все сессии пользователя.
	// Возвращает число удаленных сессий.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
