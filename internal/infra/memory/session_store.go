// Package memory holds process-local implementations of the repository
// ports, used when no Redis is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
	"proxy-admin-bot/internal/infra/metrics"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps wizard sessions in a bounded otter cache. Entries expire
// ttl after their last write. Values are copied on the way in and out so
// callers never share a session.
type SessionStore struct {
	sessions otter.Cache[int64, model.WizardSession]
	cleanup  otter.Cache[int64, []int]

	// mu makes the read-append-write of the cleanup queue atomic.
	mu sync.Mutex
}

func NewSessionStore(capacity int, ttl time.Duration) (*SessionStore, error) {
	if capacity <= 0 {
		capacity = 10_000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	sessions, err := otter.MustBuilder[int64, model.WizardSession](capacity).WithTTL(ttl).Build()
	if err != nil {
		return nil, fmt.Errorf("build session cache with capacity %d: %w", capacity, err)
	}
	cleanup, err := otter.MustBuilder[int64, []int](capacity).WithTTL(ttl).Build()
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("build cleanup cache with capacity %d: %w", capacity, err)
	}
	return &SessionStore{sessions: sessions, cleanup: cleanup}, nil
}

func copySession(s model.WizardSession) *model.WizardSession {
	s.Protocols = s.Protocols.Clone()
	if s.ExpireAt != nil {
		t := *s.ExpireAt
		s.ExpireAt = &t
	}
	return &s
}

func (s *SessionStore) Get(ctx context.Context, chatID int64) (*model.WizardSession, error) {
	sess, ok := s.sessions.Get(chatID)
	if !ok {
		metrics.IncCacheRequest("session", "miss")
		return nil, nil
	}
	metrics.IncCacheRequest("session", "hit")
	return copySession(sess), nil
}

func (s *SessionStore) Save(ctx context.Context, sess *model.WizardSession) error {
	if sess == nil {
		return fmt.Errorf("save session: nil session")
	}
	if !s.sessions.Set(sess.ChatID, *copySession(*sess)) {
		return fmt.Errorf("save session %d: cache rejected entry", sess.ChatID)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	s.sessions.Delete(chatID)
	return nil
}

func (s *SessionStore) EnqueueForDeletion(ctx context.Context, chatID int64, messageIDs ...int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, _ := s.cleanup.Get(chatID)
	next := make([]int, 0, len(queue)+len(messageIDs))
	next = append(append(next, queue...), messageIDs...)
	s.cleanup.Set(chatID, next)
	return nil
}

func (s *SessionStore) FlushDeletions(ctx context.Context, chatID int64) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.cleanup.Get(chatID)
	if !ok {
		return nil, nil
	}
	s.cleanup.Delete(chatID)
	return queue, nil
}

// Close stops the caches' background goroutines.
func (s *SessionStore) Close() {
	s.sessions.Close()
	s.cleanup.Close()
}
