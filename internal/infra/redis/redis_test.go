//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxy-admin-bot/internal/domain/model"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := NewSessionStore(fake, 30*time.Minute)

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got, "missing session is not an error")

	exp := time.Date(2025, 2, 15, 23, 59, 59, 0, time.UTC)
	s := model.NewWizardSession(42, model.FlowCreate)
	s.Step = model.StepAwaitingProtocols
	s.Username = "alice"
	s.SetExpiry(&exp)
	s.Protocols = model.Inbounds{model.ProxyVLESS: {"VLESS TCP"}}
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, 30*time.Minute, fake.ttl[sessionKey(42)])

	got, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, model.StepAwaitingProtocols, got.Step)
	assert.True(t, got.ExpireAt.Equal(exp))
	assert.True(t, got.Protocols.Equal(s.Protocols))

	require.NoError(t, store.Delete(ctx, 42))
	got, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_PendingDeletions(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newFakeRedis(), time.Minute)

	require.NoError(t, store.EnqueueForDeletion(ctx, 7, 10, 11))
	require.NoError(t, store.EnqueueForDeletion(ctx, 7, 12))
	require.NoError(t, store.EnqueueForDeletion(ctx, 8, 99))

	ids, err := store.FlushDeletions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12}, ids)

	ids, err = store.FlushDeletions(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, ids, "flush drains the queue")

	ids, _ = store.FlushDeletions(ctx, 8)
	assert.Equal(t, []int{99}, ids)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	rl := NewRateLimiter(fake, 2, time.Minute)
	key := OperatorKey(5)

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, fake.ttl[key])

	ok, _ = rl.Allow(ctx, OperatorKey(6))
	assert.True(t, ok, "limits are per operator")
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocker(newFakeRedis(), time.Minute)

	token, ok, err := l.TryLock(ctx, "bulk")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "bulk")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Unlock(ctx, "bulk", "someone-else"))
	_, ok, _ = l.TryLock(ctx, "bulk")
	assert.False(t, ok, "a foreign token must not release the lock")

	require.NoError(t, l.Unlock(ctx, "bulk", token))
	_, ok, _ = l.TryLock(ctx, "bulk")
	assert.True(t, ok)
}
