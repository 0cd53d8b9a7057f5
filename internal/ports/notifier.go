package ports

import "github.com/okhotin/tgherd/internal/domain"

// Notifier is the callback surface the presentation layer registers to
// observe registry and dispatch state changes.
type Notifier interface {
	AccountAdded(profile domain.AccountProfile)
	AccountEvicted(profile domain.AccountProfile, reason string)
	AccountRateLimited(profile domain.AccountProfile, note string)
	RosterChanged()
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) AccountAdded(domain.AccountProfile)               {}
func (NopNotifier) AccountEvicted(domain.AccountProfile, string)     {}
func (NopNotifier) AccountRateLimited(domain.AccountProfile, string) {}
func (NopNotifier) RosterChanged()                                   {}
