//go:build !integration

package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
)

func newBulkFixture(locker *MockLocker) (*bulkUC, *MockAccountRepo, *MockCore, *MockNotifier) {
	repo := NewMockAccountRepo()
	core := NewMockCore(vlessTCP, vlessWS, vmessWS, trojan)
	n := &MockNotifier{}
	var uc *bulkUC
	if locker != nil {
		uc = NewBulkUseCase(repo, locker, core, n, "", testLogger())
	} else {
		uc = NewBulkUseCase(repo, nil, core, n, "", testLogger())
	}
	uc.now = fixedClock(clock)
	return uc, repo, core, n
}

func TestBulk_DeleteByStatus(t *testing.T) {
	uc, repo, core, n := newBulkFixture(nil)
	seedUser(repo, "old1", model.StatusExpired)
	seedUser(repo, "old2", model.StatusExpired)
	seedUser(repo, "live", model.StatusActive)

	res, err := uc.DeleteByStatus(context.Background(), model.StatusExpired, admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"old1", "old2"}, res.Affected)
	assert.ElementsMatch(t, []string{"old1", "old2"}, core.Removed)

	require.NotNil(t, res.Report)
	assert.True(t, strings.HasPrefix(res.Report.Name, "deleted_expired_"))
	assert.True(t, strings.HasSuffix(res.Report.Name, ".tsv"))
	lines := strings.Split(strings.TrimSpace(string(res.Report.Data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "username\t"))

	ok, _ := repo.Exists(context.Background(), nil, "live")
	assert.True(t, ok)
	require.Len(t, n.Events, 1)
	assert.Equal(t, model.EventBulkDeleted, n.Events[0].Kind)
	assert.Equal(t, 2, n.Events[0].Count)
	assert.Same(t, res.Report, n.Events[0].Attachment)
}

func TestBulk_DeleteRejectsLiveStatuses(t *testing.T) {
	uc, _, _, _ := newBulkFixture(nil)
	for _, st := range []model.AccountStatus{model.StatusActive, model.StatusOnHold, model.StatusDisabled} {
		_, err := uc.DeleteByStatus(context.Background(), st, admin)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err), "status %s", st)
	}
}

func TestBulk_AddData(t *testing.T) {
	uc, repo, _, n := newBulkFixture(nil)
	repo.Seed(&model.Account{Username: "capped", Status: model.StatusActive, DataLimit: 5 * gigabyte})
	repo.Seed(&model.Account{Username: "free", Status: model.StatusActive})
	repo.Seed(&model.Account{Username: "gone", Status: model.StatusExpired, DataLimit: gigabyte})

	res, err := uc.AddData(context.Background(), 2*gigabyte, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"capped"}, res.Affected)

	a, _ := repo.FindByUsername(context.Background(), nil, "capped")
	assert.Equal(t, int64(7*gigabyte), a.DataLimit)
	a, _ = repo.FindByUsername(context.Background(), nil, "free")
	assert.True(t, a.Unlimited())

	require.Len(t, n.Events, 1)
	assert.Equal(t, "+2.00 GB", n.Events[0].After)

	_, err = uc.AddData(context.Background(), 0, admin)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestBulk_AddDays(t *testing.T) {
	uc, repo, _, _ := newBulkFixture(nil)
	exp := clock.Add(24 * time.Hour)
	repo.Seed(&model.Account{Username: "dated", Status: model.StatusActive, Expire: &exp})
	repo.Seed(&model.Account{Username: "forever", Status: model.StatusActive})
	lapsed := clock.Add(-time.Hour)
	repo.Seed(&model.Account{Username: "lapsed", Status: model.StatusExpired, Expire: &lapsed})
	repo.Seed(&model.Account{Username: "capped", Status: model.StatusLimited, Expire: &exp})

	res, err := uc.AddDays(context.Background(), -1, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"dated"}, res.Affected)
	a, _ := repo.FindByUsername(context.Background(), nil, "lapsed")
	assert.True(t, a.Expire.Equal(lapsed), "expired accounts keep their expiry")
	a, _ = repo.FindByUsername(context.Background(), nil, "capped")
	assert.True(t, a.Expire.Equal(exp), "limited accounts keep their expiry")

	a, _ = repo.FindByUsername(context.Background(), nil, "dated")
	assert.True(t, a.Expire.Equal(clock))
	a, _ = repo.FindByUsername(context.Background(), nil, "forever")
	assert.Nil(t, a.Expire)
}

func TestBulk_InboundChanges(t *testing.T) {
	uc, repo, core, _ := newBulkFixture(nil)
	repo.Seed(&model.Account{
		Username: "both",
		Status:   model.StatusActive,
		Proxies:  map[model.ProxyType]model.ProxySettings{model.ProxyVLESS: {ID: "a"}},
		Inbounds: model.Inbounds{model.ProxyVLESS: {"VLESS TCP", "VLESS WS"}},
	})
	repo.Seed(&model.Account{
		Username: "only",
		Status:   model.StatusDisabled,
		Proxies:  map[model.ProxyType]model.ProxySettings{model.ProxyVLESS: {ID: "b"}},
		Inbounds: model.Inbounds{model.ProxyVLESS: {"VLESS TCP"}},
	})
	repo.Seed(&model.Account{
		Username: "other",
		Status:   model.StatusActive,
		Proxies:  map[model.ProxyType]model.ProxySettings{model.ProxyTrojan: {Password: "p"}},
		Inbounds: model.Inbounds{model.ProxyTrojan: {"TROJAN"}},
	})
	ctx := context.Background()

	res, err := uc.RemoveInbound(ctx, "VLESS TCP", admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"both"}, res.Affected)
	assert.Equal(t, []string{"only"}, res.Skipped, "removing the last inbound must be skipped")
	assert.Equal(t, []string{"both"}, core.Updated)

	a, _ := repo.FindByUsername(ctx, nil, "both")
	assert.Equal(t, []string{"VLESS WS"}, a.Inbounds[model.ProxyVLESS])
	a, _ = repo.FindByUsername(ctx, nil, "only")
	assert.Equal(t, []string{"VLESS TCP"}, a.Inbounds[model.ProxyVLESS])

	res, err = uc.AddInbound(ctx, "VLESS TCP", admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"both", "other"}, res.Affected)
	a, _ = repo.FindByUsername(ctx, nil, "other")
	assert.Equal(t, []string{"VLESS TCP"}, a.Inbounds[model.ProxyVLESS], "accounts without the protocol gain it")
	assert.NotEmpty(t, a.Proxies[model.ProxyVLESS].ID, "a vless credential is generated")
	assert.Equal(t, "p", a.Proxies[model.ProxyTrojan].Password, "existing credentials are kept")
	assert.Equal(t, []string{"TROJAN"}, a.Inbounds[model.ProxyTrojan])

	_, err = uc.AddInbound(ctx, "MISSING", admin)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestBulk_OneOperationAtATime(t *testing.T) {
	locker := &MockLocker{}
	uc, repo, _, _ := newBulkFixture(locker)
	seedUser(repo, "x", model.StatusExpired)

	// another instance holds the shared lock
	_, ok, _ := locker.TryLock(context.Background(), bulkLockKey)
	require.True(t, ok)
	_, err := uc.DeleteByStatus(context.Background(), model.StatusExpired, admin)
	assert.ErrorIs(t, err, domain.ErrBulkInProgress)
	require.NoError(t, locker.Unlock(context.Background(), bulkLockKey, "token"))

	// in-process exclusion
	var wg sync.WaitGroup
	started := make(chan struct{})
	release := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = uc.exclusive(context.Background(), func() (*BulkResult, error) {
			close(started)
			<-release
			return &BulkResult{}, nil
		})
	}()
	<-started
	_, err = uc.AddDays(context.Background(), 1, admin)
	assert.ErrorIs(t, err, domain.ErrBulkInProgress)
	close(release)
	wg.Wait()

	_, err = uc.DeleteByStatus(context.Background(), model.StatusExpired, admin)
	assert.NoError(t, err, "lock must be released after each operation")
}
