package jsonfile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

const proxiesFileName = "proxies.json"

// ProxyConfigStore persists the proxy pool and assignment maps as
// proxies.json. The domain type already carries the wire tags, so the
// document is the config itself.
type ProxyConfigStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.ProxyConfigStore = (*ProxyConfigStore)(nil)

func NewProxyConfigStore(dataDir string) *ProxyConfigStore {
	path := filepath.Clean(filepath.Join(dataDir, proxiesFileName))
	return &ProxyConfigStore{path: path, mu: lockForPath(path)}
}

func (s *ProxyConfigStore) Load(ctx context.Context) (domain.ProxyConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProxyConfig{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := domain.NewProxyConfig()
	if _, err := readDocument(s.path, &cfg); err != nil {
		return domain.ProxyConfig{}, err
	}
	if cfg.BySession == nil {
		cfg.BySession = map[string]int{}
	}
	if cfg.ByUser == nil {
		cfg.ByUser = map[string]int{}
	}
	return cfg, nil
}

func (s *ProxyConfigStore) Save(ctx context.Context, cfg domain.ProxyConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeDocument(s.path, cfg)
}
