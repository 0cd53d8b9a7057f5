package jsonfile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

const pinsFileName = "pins.json"

type pinsSchema struct {
	Pins []string `json:"pins"`
}

// PinStore persists the pinned chat references as pins.json.
type PinStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.PinStore = (*PinStore)(nil)

func NewPinStore(dataDir string) *PinStore {
	path := filepath.Clean(filepath.Join(dataDir, pinsFileName))
	return &PinStore{path: path, mu: lockForPath(path)}
}

func (s *PinStore) Load(ctx context.Context) (domain.Pins, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var file pinsSchema
	if _, err := readDocument(s.path, &file); err != nil {
		return nil, err
	}

	pins := make(domain.Pins, 0, len(file.Pins))
	for _, raw := range file.Pins {
		pins = append(pins, domain.ChatRef(raw))
	}
	return pins, nil
}

func (s *PinStore) Save(ctx context.Context, pins domain.Pins) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := pinsSchema{Pins: make([]string, 0, len(pins))}
	for _, ref := range pins {
		file.Pins = append(file.Pins, string(ref))
	}
	return writeDocument(s.path, file)
}
