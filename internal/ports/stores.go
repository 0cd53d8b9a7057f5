package ports

import (
	"context"

	"github.com/okhotin/tgherd/internal/domain"
)

// PinStore persists the ordered set of pinned chat references.
type PinStore interface {
	Load(ctx context.Context) (domain.Pins, error)
	Save(ctx context.Context, pins domain.Pins) error
}

// ProxyConfigStore persists the proxy pool and its assignments.
type ProxyConfigStore interface {
	Load(ctx context.Context) (domain.ProxyConfig, error)
	Save(ctx context.Context, cfg domain.ProxyConfig) error
}

// AccountsCacheStore persists the lightweight account snapshots used to
// prepopulate the roster before live reconnection completes.
type AccountsCacheStore interface {
	Load(ctx context.Context) ([]domain.AccountProfile, error)
	Save(ctx context.Context, profiles []domain.AccountProfile) error
}

// DispatchStateStore persists the selection configuration between
// invocations. Load reports false when no state was ever saved.
type DispatchStateStore interface {
	Load(ctx context.Context) (domain.DispatchState, bool, error)
	Save(ctx context.Context, state domain.DispatchState) error
}

// ReactionStore persists the reaction ledger.
type ReactionStore interface {
	Load(ctx context.Context) (domain.ReactionLedger, error)
	Save(ctx context.Context, ledger domain.ReactionLedger) error
}
