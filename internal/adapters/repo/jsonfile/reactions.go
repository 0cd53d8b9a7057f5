package jsonfile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

const reactionsFileName = "reactions_cache.json"

type reactionsSchema struct {
	Reactions map[string]string `json:"reactions"`
}

// ReactionStore persists the advisory reaction ledger as
// reactions_cache.json.
type ReactionStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.ReactionStore = (*ReactionStore)(nil)

func NewReactionStore(dataDir string) *ReactionStore {
	path := filepath.Clean(filepath.Join(dataDir, reactionsFileName))
	return &ReactionStore{path: path, mu: lockForPath(path)}
}

func (s *ReactionStore) Load(ctx context.Context) (domain.ReactionLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var file reactionsSchema
	if _, err := readDocument(s.path, &file); err != nil {
		return nil, err
	}
	if file.Reactions == nil {
		return domain.ReactionLedger{}, nil
	}
	return domain.ReactionLedger(file.Reactions), nil
}

func (s *ReactionStore) Save(ctx context.Context, ledger domain.ReactionLedger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeDocument(s.path, reactionsSchema{Reactions: map[string]string(ledger)})
}
