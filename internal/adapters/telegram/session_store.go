package telegram

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/okhotin/tgherd/internal/ports"
)

const sessionSuffix = ".session"

// FileSessionStore enumerates and deletes *.session files under one
// directory. Names are always the bare file name; the path never leaves
// the root.
type FileSessionStore struct {
	root string
	mu   sync.Mutex
}

var _ ports.SessionStore = (*FileSessionStore)(nil)

func NewFileSessionStore(root string) *FileSessionStore {
	return &FileSessionStore{root: filepath.Clean(root)}
}

func (s *FileSessionStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileSessionStore) Delete(name string) error {
	if base := filepath.Base(name); base != name || name == "" || name == "." {
		return fmt.Errorf("invalid session name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.root, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	return nil
}
