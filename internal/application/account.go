package application

import (
	"sync"
	"time"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

// Account is one live authenticated session: its identity snapshot, the
// RPC client bound to it, and the mutex that serializes every remote call
// issued on its behalf. Remote session semantics forbid concurrent use of
// one authenticated connection.
type Account struct {
	mu sync.Mutex

	Profile  domain.AccountProfile
	Client   ports.TelegramClient
	LastUsed time.Time
}

func NewAccount(profile domain.AccountProfile, client ports.TelegramClient) *Account {
	return &Account{Profile: profile, Client: client}
}

func (a *Account) ID() domain.UserID { return a.Profile.UserID }
