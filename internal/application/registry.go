package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

// Registry owns the set of live accounts and the round-robin order the
// selection policy cycles through. All structural mutation funnels through
// Add and Evict; after every structural change the lightweight accounts
// cache is persisted so the next process start can show the roster before
// live reconnection completes.
type Registry struct {
	mu        sync.Mutex
	accounts  map[domain.UserID]*Account
	selection domain.SelectionState

	cache    ports.AccountsCacheStore
	sessions ports.SessionStore
	factory  ports.ClientFactory
	notifier ports.Notifier
	clock    ports.Clock
	log      *slog.Logger
}

func NewRegistry(cache ports.AccountsCacheStore, sessions ports.SessionStore, factory ports.ClientFactory, notifier ports.Notifier, clock ports.Clock, log *slog.Logger) *Registry {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		accounts: map[domain.UserID]*Account{},
		cache:    cache,
		sessions: sessions,
		factory:  factory,
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

// Add registers an account keyed by its remote user id, appending it to
// the round-robin order when new. Re-adding an id replaces the runtime
// record but keeps its order slot.
func (r *Registry) Add(ctx context.Context, acc *Account) {
	r.mu.Lock()
	r.accounts[acc.ID()] = acc
	r.selection.Append(acc.ID())
	profiles := r.profilesLocked()
	r.mu.Unlock()

	r.persistCache(ctx, profiles)
	r.log.Info("account_added",
		"user_id", int64(acc.ID()),
		"display", acc.Profile.FriendlyDisplay(),
		"session", acc.Profile.Session,
	)
	r.notifier.AccountAdded(acc.Profile)
	r.notifier.RosterChanged()
}

// Evict tears an account down: best-effort disconnect, session material
// deleted, removed from the id index and the round-robin order with the
// cursor adjusted, cache persisted, UI notified. Idempotent by id.
func (r *Registry) Evict(ctx context.Context, id domain.UserID, reason string) {
	r.mu.Lock()
	acc, ok := r.accounts[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.accounts, id)
	r.selection.Remove(id)
	profiles := r.profilesLocked()
	r.mu.Unlock()

	if acc.Client != nil {
		_ = acc.Client.Disconnect()
	}
	if acc.Profile.Session != "" {
		if err := r.sessions.Delete(acc.Profile.Session); err != nil {
			r.log.Warn("session_delete_failed", "session", acc.Profile.Session, "error", err.Error())
		}
	}
	r.persistCache(ctx, profiles)
	r.log.Warn("account_evicted",
		"user_id", int64(id),
		"display", acc.Profile.FriendlyDisplay(),
		"reason", reason,
	)
	r.notifier.AccountEvicted(acc.Profile, reason)
	r.notifier.RosterChanged()
}

// Lookup returns the live account for an id.
func (r *Registry) Lookup(id domain.UserID) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	return acc, ok
}

// Len reports how many accounts are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// Order returns a copy of the current round-robin order.
func (r *Registry) Order() []domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.UserID(nil), r.selection.Order...)
}

// Sequential returns the account under the round-robin cursor, advancing
// the cursor afterwards when advance is set.
func (r *Registry) Sequential(advance bool) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.selection.Current()
	if !ok {
		return nil, false
	}
	if advance {
		r.selection.Advance()
	}
	acc, ok := r.accounts[id]
	return acc, ok
}

// PeekSequential is Sequential without cursor mutation.
func (r *Registry) PeekSequential() (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.selection.Current()
	if !ok {
		return nil, false
	}
	acc, ok := r.accounts[id]
	return acc, ok
}

// PeekAfter returns the order successor of the given id without mutation.
func (r *Registry) PeekAfter(id domain.UserID) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := r.selection.After(id)
	if !ok {
		return nil, false
	}
	acc, ok := r.accounts[next]
	return acc, ok
}

// CursorValue returns the raw round-robin cursor position.
func (r *Registry) CursorValue() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection.Cursor
}

// SetCursor restores a persisted cursor position. Reads go through the
// order modulo its length, so a value past the end of a since-shrunk
// roster wraps instead of failing.
func (r *Registry) SetCursor(cursor int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cursor < 0 {
		cursor = 0
	}
	r.selection.Cursor = cursor
}

// AdvanceCursor moves the round-robin cursor one step.
func (r *Registry) AdvanceCursor() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selection.Len() > 0 {
		r.selection.Advance()
	}
}

// Profiles returns identity snapshots for every live account, ordered by
// the round-robin order.
func (r *Registry) Profiles() []domain.AccountProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profilesLocked()
}

func (r *Registry) profilesLocked() []domain.AccountProfile {
	out := make([]domain.AccountProfile, 0, len(r.accounts))
	for _, id := range r.selection.Order {
		if acc, ok := r.accounts[id]; ok {
			out = append(out, acc.Profile)
		}
	}
	return out
}

// UpdateProfile swaps the stored identity snapshot for an account after a
// profile-change operation and persists the cache.
func (r *Registry) UpdateProfile(ctx context.Context, id domain.UserID, update func(*domain.AccountProfile)) {
	r.mu.Lock()
	acc, ok := r.accounts[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	update(&acc.Profile)
	acc.Profile.Display = acc.Profile.FriendlyDisplay()
	profiles := r.profilesLocked()
	r.mu.Unlock()

	r.persistCache(ctx, profiles)
	r.notifier.RosterChanged()
}

// CachedProfiles loads the persisted snapshots for cold-start display.
func (r *Registry) CachedProfiles(ctx context.Context) []domain.AccountProfile {
	profiles, err := r.cache.Load(ctx)
	if err != nil {
		r.log.Warn("accounts_cache_load_failed", "error", err.Error())
		return nil
	}
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].UserID < profiles[j].UserID })
	return profiles
}

func (r *Registry) persistCache(ctx context.Context, profiles []domain.AccountProfile) {
	if err := r.cache.Save(ctx, profiles); err != nil {
		r.log.Warn("accounts_cache_save_failed", "error", err.Error())
	}
}
