package jsonfile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

const accountsCacheFileName = "accounts_cache.json"

type accountsCacheSchema struct {
	Accounts []accountSnapshotSchema `json:"accounts"`
}

type accountSnapshotSchema struct {
	UserID    int64  `json:"user_id"`
	Display   string `json:"display"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Session   string `json:"session"`
}

// AccountsCacheStore persists roster snapshots as accounts_cache.json so
// the UI can show the account list before live reconnection finishes.
type AccountsCacheStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.AccountsCacheStore = (*AccountsCacheStore)(nil)

func NewAccountsCacheStore(dataDir string) *AccountsCacheStore {
	path := filepath.Clean(filepath.Join(dataDir, accountsCacheFileName))
	return &AccountsCacheStore{path: path, mu: lockForPath(path)}
}

func (s *AccountsCacheStore) Load(ctx context.Context) ([]domain.AccountProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var file accountsCacheSchema
	if _, err := readDocument(s.path, &file); err != nil {
		return nil, err
	}

	profiles := make([]domain.AccountProfile, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		profiles = append(profiles, fromSnapshotSchema(entry))
	}
	return profiles, nil
}

func (s *AccountsCacheStore) Save(ctx context.Context, profiles []domain.AccountProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := accountsCacheSchema{Accounts: make([]accountSnapshotSchema, 0, len(profiles))}
	for _, p := range profiles {
		file.Accounts = append(file.Accounts, toSnapshotSchema(p))
	}
	return writeDocument(s.path, file)
}

func toSnapshotSchema(p domain.AccountProfile) accountSnapshotSchema {
	return accountSnapshotSchema{
		UserID:    int64(p.UserID),
		Display:   p.Display,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Session:   p.Session,
	}
}

func fromSnapshotSchema(entry accountSnapshotSchema) domain.AccountProfile {
	p := domain.AccountProfile{
		UserID:    domain.UserID(entry.UserID),
		Display:   entry.Display,
		Username:  entry.Username,
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
		Session:   entry.Session,
	}
	if p.Display == "" {
		p.Display = p.FriendlyDisplay()
	}
	return p
}
