package jsonfile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

const dispatchStateFileName = "dispatch.json"

type dispatchStateSchema struct {
	Mode              string `json:"mode"`
	ManualID          int64  `json:"manual_id,omitempty"`
	ViewingID         int64  `json:"viewing_id,omitempty"`
	AutoDispatch      bool   `json:"auto_dispatch"`
	AdvanceOnReaction bool   `json:"advance_on_reaction"`
	Cursor            int    `json:"cursor"`
}

// DispatchStateStore persists the selection configuration as dispatch.json.
type DispatchStateStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.DispatchStateStore = (*DispatchStateStore)(nil)

func NewDispatchStateStore(dataDir string) *DispatchStateStore {
	path := filepath.Clean(filepath.Join(dataDir, dispatchStateFileName))
	return &DispatchStateStore{path: path, mu: lockForPath(path)}
}

func (s *DispatchStateStore) Load(ctx context.Context) (domain.DispatchState, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.DispatchState{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var file dispatchStateSchema
	found, err := readDocument(s.path, &file)
	if err != nil || !found {
		return domain.DispatchState{}, false, err
	}

	mode, ok := domain.ParseMode(file.Mode)
	if !ok {
		mode = domain.ModeSequential
	}
	return domain.DispatchState{
		Mode:              mode,
		ManualID:          domain.UserID(file.ManualID),
		ViewingID:         domain.UserID(file.ViewingID),
		AutoDispatch:      file.AutoDispatch,
		AdvanceOnReaction: file.AdvanceOnReaction,
		Cursor:            file.Cursor,
	}, true, nil
}

func (s *DispatchStateStore) Save(ctx context.Context, state domain.DispatchState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeDocument(s.path, dispatchStateSchema{
		Mode:              string(state.Mode),
		ManualID:          int64(state.ManualID),
		ViewingID:         int64(state.ViewingID),
		AutoDispatch:      state.AutoDispatch,
		AdvanceOnReaction: state.AdvanceOnReaction,
		Cursor:            state.Cursor,
	})
}
