package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

type peerKey struct {
	uid domain.UserID
	ref domain.ChatRef
}

// PeerCache memoizes per-account resolution of a chat reference to an
// addressable peer handle, saving the resolve/join/convert round-trips on
// every dispatch. Entries never expire; a stale entry surfaces as a remote
// error on the dispatch call and callers invalidate explicitly.
type PeerCache struct {
	mu      sync.Mutex
	entries map[peerKey]domain.PeerHandle
}

func NewPeerCache() *PeerCache {
	return &PeerCache{entries: map[peerKey]domain.PeerHandle{}}
}

// GetOrResolve returns the cached handle for (account, ref), resolving on
// miss: resolve the reference, join the channel when the remote policy
// requires membership, convert to an input peer. Failures propagate and
// are never cached. The resolution runs under the account's lock.
func (c *PeerCache) GetOrResolve(ctx context.Context, reg *Registry, acc *Account, ref domain.ChatRef) (domain.PeerHandle, error) {
	key := peerKey{uid: acc.ID(), ref: ref}

	c.mu.Lock()
	if handle, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return handle, nil
	}
	c.mu.Unlock()

	var handle domain.PeerHandle
	err := reg.Run(ctx, acc, func(ctx context.Context) error {
		entity, err := acc.Client.ResolveRef(ctx, ref)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", ref, err)
		}
		if entity.Kind == domain.EntityChannel {
			if err := acc.Client.EnsureJoined(ctx, entity); err != nil {
				return fmt.Errorf("join %s: %w", ref, err)
			}
		}
		handle, err = acc.Client.InputPeer(ctx, entity)
		if err != nil {
			return fmt.Errorf("input peer for %s: %w", ref, err)
		}
		return nil
	})
	if err != nil {
		return domain.PeerHandle{}, err
	}

	c.mu.Lock()
	c.entries[key] = handle
	c.mu.Unlock()
	return handle, nil
}

// Invalidate drops the entry for (account, ref) so the next dispatch
// re-resolves.
func (c *PeerCache) Invalidate(uid domain.UserID, ref domain.ChatRef) {
	c.mu.Lock()
	delete(c.entries, peerKey{uid: uid, ref: ref})
	c.mu.Unlock()
}

// DropAccount clears every entry belonging to an evicted account.
func (c *PeerCache) DropAccount(uid domain.UserID) {
	c.mu.Lock()
	for key := range c.entries {
		if key.uid == uid {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// CacheScrubber forwards registry notifications and drops the evicted
// account's cached handles on the way through, so a later re-add of the
// same id starts from a clean resolve.
type CacheScrubber struct {
	ports.Notifier
	Peers *PeerCache
}

func (s CacheScrubber) AccountEvicted(p domain.AccountProfile, reason string) {
	s.Peers.DropAccount(p.UserID)
	s.Notifier.AccountEvicted(p, reason)
}
