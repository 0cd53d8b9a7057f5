package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

// ReloadAll rebuilds the registry from the persisted session material.
// Each session is connected through its assigned proxy, asked for its
// owning identity, and health-probed with a cheap status-update call.
// Sessions whose probe reports the account deactivated, banned, revoked or
// frozen are dropped along with their files, as are later duplicates of an
// already-loaded user id. Returns how many accounts came up live.
func (r *Registry) ReloadAll(ctx context.Context, force bool, proxies *ProxyService) (int, error) {
	if force {
		r.disconnectAll()
	}

	names, err := r.sessions.List()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	sort.Strings(names)

	seen := map[domain.UserID]string{}
	loaded := 0
	for _, name := range names {
		var proxy *domain.ProxyDescriptor
		if proxies != nil {
			proxy = proxies.ResolveForSession(ctx, name)
		}

		client := r.factory.New(name, proxy)
		if err := client.Connect(ctx); err != nil {
			r.log.Warn("session_connect_failed", "session", name, "error", err.Error())
			continue
		}

		me, err := client.Me(ctx)
		if err != nil {
			_ = client.Disconnect()
			r.log.Warn("session_identity_failed", "session", name, "error", err.Error())
			continue
		}

		if ok, reason := r.probeHealth(ctx, client); !ok {
			_ = client.Disconnect()
			if delErr := r.sessions.Delete(name); delErr != nil {
				r.log.Warn("session_delete_failed", "session", name, "error", delErr.Error())
			}
			r.log.Warn("session_dropped", "session", name, "reason", reason)
			continue
		}

		if first, dup := seen[me.ID]; dup {
			_ = client.Disconnect()
			if delErr := r.sessions.Delete(name); delErr != nil {
				r.log.Warn("session_delete_failed", "session", name, "error", delErr.Error())
			}
			r.log.Warn("session_duplicate_dropped", "session", name, "kept", first, "user_id", int64(me.ID))
			continue
		}
		seen[me.ID] = name

		if proxies != nil {
			if err := proxies.BindUser(ctx, me.ID, name); err != nil {
				r.log.Warn("proxy_bind_user_failed", "session", name, "error", err.Error())
			}
		}

		r.Add(ctx, NewAccount(domain.ProfileFor(me, name), client))
		loaded++
	}

	return loaded, nil
}

// probeHealth runs the lightweight status-update probe. Only a fatal
// classification marks the session unusable; transient failures pass.
func (r *Registry) probeHealth(ctx context.Context, client ports.TelegramClient) (bool, string) {
	err := client.UpdateOnlineStatus(ctx, true)
	if err == nil {
		return true, ""
	}
	if domain.Classify(err) == domain.ClassFatalAccount {
		return false, fatalReason(err)
	}
	return true, ""
}

func (r *Registry) disconnectAll() {
	r.mu.Lock()
	accounts := make([]*Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		accounts = append(accounts, acc)
	}
	r.accounts = map[domain.UserID]*Account{}
	r.selection.Reset()
	r.mu.Unlock()

	for _, acc := range accounts {
		if acc.Client != nil {
			_ = acc.Client.Disconnect()
		}
	}
}
