package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/tgherd/internal/domain"
)

func TestRunReturnsNilOnSuccess(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	calls := 0
	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunFatalErrorEvictsAccount(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")
	addTestAccount(f, 2, "b.session")
	f.sessions.names = []string{"a.session", "b.session"}

	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		return &domain.RPCError{Code: "SESSION_REVOKED", Status: 401}
	})

	var fatal *domain.FatalAccountError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "SESSION_REVOKED", fatal.Reason)

	_, ok := f.registry.Lookup(1)
	assert.False(t, ok)
	assert.Equal(t, []domain.UserID{2}, f.registry.Order())
	assert.Contains(t, f.sessions.deleted, "a.session")
	assert.Equal(t, 1, acc.Client.(*fakeClient).disconnects)
}

func TestRunFrozenErrorEvictsWithReadOnlyReason(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		return errors.New("RPCError 403: FROZEN_METHOD_INVALID")
	})

	var fatal *domain.FatalAccountError
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, fatal.Reason, "frozen")
	_, ok := f.registry.Lookup(1)
	assert.False(t, ok)
}

func TestRunRateLimitedFlagsWithoutEvicting(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		return &domain.RPCError{Code: "FLOOD_WAIT_30", Status: 420}
	})

	var limited *domain.RateLimitedError
	require.ErrorAs(t, err, &limited)

	_, ok := f.registry.Lookup(1)
	assert.True(t, ok, "rate limited account stays registered")
	assert.Contains(t, f.notifier.rateLimited, domain.UserID(1))
	assert.Empty(t, f.sessions.deleted)
}

func TestRunRetriesReentrancyThenSucceeds(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	calls := 0
	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("task already entered")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunGivesUpAfterBoundedReentrancyRetries(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	calls := 0
	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		calls++
		return errors.New("task already entered")
	})
	require.Error(t, err)
	assert.Equal(t, 1+maxReentrancyRetries, calls)

	_, ok := f.registry.Lookup(1)
	assert.True(t, ok)
}

type backoffRecordingClock struct {
	fixedClock
	mu    sync.Mutex
	waits []time.Duration
}

func (c *backoffRecordingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	return c.fixedClock.After(d)
}

func TestRunReentrancyBackoffWaitsOnClock(t *testing.T) {
	t.Parallel()
	clock := &backoffRecordingClock{fixedClock: fixedClock{now: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}}
	registry := NewRegistry(&memAccountsCache{}, &memSessionStore{}, newFakeFactory(), &recordingNotifier{}, clock, discardLogger())
	client := &fakeClient{me: domain.UserInfo{ID: 1}}
	acc := NewAccount(domain.AccountProfile{UserID: 1, Display: "a.session", Session: "a.session"}, client)
	registry.Add(context.Background(), acc)

	err := registry.Run(context.Background(), acc, func(context.Context) error {
		return errors.New("task already entered")
	})
	require.Error(t, err)

	// Linear backoff, one wait per retry, all through the injected clock.
	want := []time.Duration{150 * time.Millisecond, 300 * time.Millisecond, 450 * time.Millisecond}
	assert.Equal(t, want, clock.waits)
}

func TestRunOtherErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	boom := errors.New("connection reset")
	err := f.registry.Run(context.Background(), acc, func(context.Context) error {
		return boom
	})
	assert.Same(t, boom, err)
	_, ok := f.registry.Lookup(1)
	assert.True(t, ok)
}

func TestRunSerializesCallsOnOneAccount(t *testing.T) {
	t.Parallel()
	f := newRegistryFixture()
	acc := addTestAccount(f, 1, "a.session")

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.registry.Run(context.Background(), acc, func(context.Context) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight, "same-account operations must never overlap")
}
