package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/tgherd/internal/domain"
)

func TestPeerCacheResolvesOnceAndMemoizes(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")
	client := acc.Client.(*fakeClient)
	cache := NewPeerCache()
	ref := domain.ChatRef("username:gopherchat")

	first, err := cache.GetOrResolve(context.Background(), f.registry, acc, ref)
	require.NoError(t, err)
	assert.Equal(t, domain.PeerChannel, first.Kind)

	second, err := cache.GetOrResolve(context.Background(), f.registry, acc, ref)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.resolveCalls)
}

func TestPeerCacheJoinsChannelsOnly(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")
	client := acc.Client.(*fakeClient)
	client.resolveFn = func(ref domain.ChatRef) (domain.Entity, error) {
		if ref == "user:5" {
			return domain.Entity{Kind: domain.EntityUser, ID: 5}, nil
		}
		return domain.Entity{Kind: domain.EntityChannel, ID: 1000}, nil
	}
	cache := NewPeerCache()

	_, err := cache.GetOrResolve(context.Background(), f.registry, acc, "user:5")
	require.NoError(t, err)
	assert.Empty(t, client.joined)

	_, err = cache.GetOrResolve(context.Background(), f.registry, acc, "username:gopherchat")
	require.NoError(t, err)
	require.Len(t, client.joined, 1)
	assert.Equal(t, int64(1000), client.joined[0].ID)
}

func TestPeerCacheDoesNotCacheFailures(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")
	client := acc.Client.(*fakeClient)

	boom := errors.New("resolution failed")
	client.resolveFn = func(domain.ChatRef) (domain.Entity, error) {
		return domain.Entity{}, boom
	}

	cache := NewPeerCache()
	_, err := cache.GetOrResolve(context.Background(), f.registry, acc, "username:gone")
	require.ErrorIs(t, err, boom)

	client.resolveFn = nil
	handle, err := cache.GetOrResolve(context.Background(), f.registry, acc, "username:gone")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), handle.ID)
	assert.Equal(t, 2, client.resolveCalls)
}

func TestPeerCacheEntriesArePerAccount(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	a := addTestAccount(f, 1, "a.session")
	b := addTestAccount(f, 2, "b.session")
	cache := NewPeerCache()
	ref := domain.ChatRef("username:gopherchat")

	_, err := cache.GetOrResolve(context.Background(), f.registry, a, ref)
	require.NoError(t, err)
	_, err = cache.GetOrResolve(context.Background(), f.registry, b, ref)
	require.NoError(t, err)

	assert.Equal(t, 1, a.Client.(*fakeClient).resolveCalls)
	assert.Equal(t, 1, b.Client.(*fakeClient).resolveCalls)
}

func TestPeerCacheInvalidateForcesReresolve(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")
	client := acc.Client.(*fakeClient)
	cache := NewPeerCache()
	ref := domain.ChatRef("channel:1000")

	_, err := cache.GetOrResolve(context.Background(), f.registry, acc, ref)
	require.NoError(t, err)

	cache.Invalidate(acc.ID(), ref)
	_, err = cache.GetOrResolve(context.Background(), f.registry, acc, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, client.resolveCalls)
}

func TestPeerCacheDropAccountClearsOnlyThatAccount(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	a := addTestAccount(f, 1, "a.session")
	b := addTestAccount(f, 2, "b.session")
	cache := NewPeerCache()
	ref := domain.ChatRef("username:gopherchat")

	_, err := cache.GetOrResolve(context.Background(), f.registry, a, ref)
	require.NoError(t, err)
	_, err = cache.GetOrResolve(context.Background(), f.registry, b, ref)
	require.NoError(t, err)

	cache.DropAccount(a.ID())

	_, err = cache.GetOrResolve(context.Background(), f.registry, a, ref)
	require.NoError(t, err)
	_, err = cache.GetOrResolve(context.Background(), f.registry, b, ref)
	require.NoError(t, err)

	assert.Equal(t, 2, a.Client.(*fakeClient).resolveCalls)
	assert.Equal(t, 1, b.Client.(*fakeClient).resolveCalls)
}

func TestEvictionScrubsCachedPeerHandles(t *testing.T) {
	t.Parallel()
	peers := NewPeerCache()
	notifier := &recordingNotifier{}
	registry := NewRegistry(&memAccountsCache{}, &memSessionStore{}, newFakeFactory(),
		CacheScrubber{Notifier: notifier, Peers: peers},
		fixedClock{now: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}, discardLogger())

	client := &fakeClient{me: domain.UserInfo{ID: 1}}
	acc := NewAccount(domain.AccountProfile{UserID: 1, Display: "a.session", Session: "a.session"}, client)
	registry.Add(context.Background(), acc)

	ref := domain.ChatRef("username:gopherchat")
	_, err := peers.GetOrResolve(context.Background(), registry, acc, ref)
	require.NoError(t, err)
	require.Equal(t, 1, client.resolveCalls)

	registry.Evict(context.Background(), 1, "removed by operator")
	require.Len(t, notifier.evicted, 1, "eviction still reaches the wrapped notifier")

	// The same id re-added later must resolve afresh, not reuse a handle
	// minted by the evicted session.
	registry.Add(context.Background(), acc)
	_, err = peers.GetOrResolve(context.Background(), registry, acc, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, client.resolveCalls)
}
