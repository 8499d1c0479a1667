package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge-server/shared/interfaces"
	"concierge-server/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisSessionRepository implements SessionRepository
var _ interfaces.SessionRepository = (*redisSessionRepository)(nil)

type redisSessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessionRepository creates a new Redis-backed SessionRepository.
//
// Схема хранения:
//  1. assessment_session:{SessionID} -> JSON сессии (с TTL)
//  2. user_sessions:{UserID} -> множество SessionID (для перечисления и каскадного удаления)
func NewRedisSessionRepository(client *redis.Client, logger *zap.Logger) interfaces.SessionRepository {
	return &redisSessionRepository{
		client: client,
		logger: logger.Named("RedisSessionRepo"),
	}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("assessment_session:%s", sessionID.String())
}

func userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_sessions:%s", userID.String())
}

// Save сохраняет сессию целиком и продлевает TTL.
// Множество сессий пользователя получает тот же TTL, чтобы не копить мусор.
func (r *redisSessionRepository) Save(ctx context.Context, session *models.AssessmentSession, ttl time.Duration) error {
	log := r.logger.With(
		zap.String("userID", session.UserID.String()),
		zap.String("sessionID", session.ID.String()),
	)

	data, err := json.Marshal(session)
	if err != nil {
		log.Error("Failed to marshal session", zap.Error(err))
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	setKey := userSessionsKey(session.UserID)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	pipe.SAdd(ctx, setKey, session.ID.String())
	pipe.Expire(ctx, setKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to save session in redis", zap.Error(err))
		return fmt.Errorf("failed to save session in redis: %w", err)
	}

	log.Debug("Session saved", zap.Duration("ttl", ttl), zap.Int("cursorIndex", session.CursorIndex))
	return nil
}

// GetByID возвращает сессию по идентификатору.
// Сессия чужого пользователя неотличима от отсутствующей: возвращается
// models.ErrSessionNotFound без уточнений.
func (r *redisSessionRepository) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*models.AssessmentSession, error) {
	log := r.logger.With(
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
	)

	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			log.Debug("Session not found in Redis")
			return nil, models.ErrSessionNotFound
		}
		log.Error("Failed to get session from redis", zap.Error(err))
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session models.AssessmentSession
	if err := json.Unmarshal(data, &session); err != nil {
		// Данные в Redis повреждены
		log.Error("Failed to unmarshal session data from redis", zap.Error(err))
		return nil, fmt.Errorf("corrupted session data in redis for %s: %w", sessionID, err)
	}

	if session.UserID != userID {
		log.Warn("Session belongs to another user", zap.String("ownerID", session.UserID.String()))
		return nil, models.ErrSessionNotFound
	}
	return &session, nil
}

// ListIDsForUser возвращает идентификаторы живых сессий пользователя.
// Идентификаторы истекших сессий лениво вычищаются из множества.
func (r *redisSessionRepository) ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	log := r.logger.With(zap.String("userID", userID.String()))
	setKey := userSessionsKey(userID)

	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		log.Error("Failed to get session set from redis", zap.Error(err))
		return nil, fmt.Errorf("failed to list sessions for user %s: %w", userID, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	var stale []interface{}
	for _, member := range members {
		id, parseErr := uuid.Parse(member)
		if parseErr != nil {
			log.Warn("Malformed session id in user set", zap.String("member", member))
			stale = append(stale, member)
			continue
		}
		exists, existsErr := r.client.Exists(ctx, sessionKey(id)).Result()
		if existsErr != nil {
			log.Error("Failed to check session existence", zap.Error(existsErr))
			return nil, fmt.Errorf("failed to check session %s: %w", id, existsErr)
		}
		if exists == 0 {
			stale = append(stale, member)
			continue
		}
		ids = append(ids, id)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, setKey, stale...).Err(); err != nil {
			log.Warn("Failed to prune stale session ids", zap.Error(err))
		}
	}

	log.Debug("Listed sessions for user", zap.Int("count", len(ids)))
	return ids, nil
}

// Delete удаляет сессию и ее идентификатор из множества пользователя.
func (r *redisSessionRepository) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	log := r.logger.With(
		zap.String("userID", userID.String()),
		zap.String("sessionID", sessionID.String()),
	)

	pipe := r.client.Pipeline()
	delCmd := pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(userID), sessionID.String())

	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to delete session from redis", zap.Error(err))
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	if deleted, _ := delCmd.Result(); deleted == 0 {
		log.Warn("Attempted to delete non-existent session")
		// Цель — идемпотентность: сессии нет, значит все в порядке
	}
	return nil
}

// DeleteAllForUser удаляет все сессии пользователя по его множеству.
func (r *redisSessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := r.logger.With(zap.String("userID", userID.String()))
	setKey := userSessionsKey(userID)

	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		log.Error("Failed to get session set from redis", zap.Error(err))
		return 0, fmt.Errorf("failed to list sessions for user %s: %w", userID, err)
	}

	if len(members) == 0 {
		r.client.Del(ctx, setKey)
		return 0, nil
	}

	keys := make([]string, 0, len(members))
	for _, member := range members {
		if id, parseErr := uuid.Parse(member); parseErr == nil {
			keys = append(keys, sessionKey(id))
		}
	}

	pipe := r.client.Pipeline()
	var delCmd *redis.IntCmd
	if len(keys) > 0 {
		delCmd = pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, setKey)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to delete sessions for user", zap.Error(err))
		return 0, fmt.Errorf("failed to delete sessions for user %s: %w", userID, err)
	}

	var deleted int64
	if delCmd != nil {
		deleted, _ = delCmd.Result()
	}
	log.Info("Deleted sessions for user", zap.Int64("deleted", deleted))
	return deleted, nil
}
