package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/metrics"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps wizard sessions in Redis so they survive restarts and
// are shared between bot replicas. Every write refreshes the TTL.
type SessionStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionStore(client RedisClient, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string { return fmt.Sprintf("wizard_session:%d", chatID) }

func cleanupKey(chatID int64) string { return fmt.Sprintf("wizard_cleanup:%d", chatID) }

func (s *SessionStore) Get(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID))
	if errors.Is(err, Nil) {
		metrics.IncCacheRequest("session", "miss")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess model.WizardSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	metrics.IncCacheRequest("session", "hit")
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *model.WizardSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ChatID), data, s.ttl)
}

func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, sessionKey(chatID))
}

func (s *SessionStore) EnqueueForDeletion(ctx context.Context, chatID int64, messageIDs ...int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	vals := make([]interface{}, len(messageIDs))
	for i, id := range messageIDs {
		vals[i] = id
	}
	key := cleanupKey(chatID)
	if err := s.client.RPush(ctx, key, vals...); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl)
}

func (s *SessionStore) FlushDeletions(ctx context.Context, chatID int64) ([]int, error) {
	raw, err := s.client.PopAll(ctx, cleanupKey(chatID))
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
