package application

import (
	"math/rand"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
)

// Selector decides which account performs the next user-initiated send or
// reaction. Three modes: sequential round-robin over the registry order,
// uniform random, and manual (operator-pinned). When auto-dispatch is off,
// sends fall back to the account bound to the open chat view; reactions
// still walk the round-robin order so reaction load keeps spreading.
type Selector struct {
	mu sync.Mutex

	registry *Registry
	rnd      *rand.Rand

	mode              domain.Mode
	auto              bool
	manualID          domain.UserID
	viewingID         domain.UserID
	advanceOnReaction bool
}

func NewSelector(registry *Registry, rnd *rand.Rand) *Selector {
	return &Selector{
		registry: registry,
		rnd:      rnd,
		mode:     domain.ModeSequential,
		auto:     true,
	}
}

func (s *Selector) SetMode(mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *Selector) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Selector) SetAutoDispatch(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auto = on
}

func (s *Selector) AutoDispatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auto
}

func (s *Selector) SetManual(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualID = id
}

func (s *Selector) SetViewing(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewingID = id
}

func (s *Selector) Viewing() (domain.UserID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewingID, s.viewingID != 0
}

func (s *Selector) SetAdvanceOnReaction(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceOnReaction = on
}

// Snapshot captures the current selection configuration for persistence.
func (s *Selector) Snapshot() domain.DispatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.DispatchState{
		Mode:              s.mode,
		ManualID:          s.manualID,
		ViewingID:         s.viewingID,
		AutoDispatch:      s.auto,
		AdvanceOnReaction: s.advanceOnReaction,
		Cursor:            s.registry.CursorValue(),
	}
}

// Restore applies a persisted selection configuration.
func (s *Selector) Restore(state domain.DispatchState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = state.Mode
	s.manualID = state.ManualID
	s.viewingID = state.ViewingID
	s.auto = state.AutoDispatch
	s.advanceOnReaction = state.AdvanceOnReaction
	s.registry.SetCursor(state.Cursor)
}

// ForSend picks the account for the next send. Sequential mode advances
// the cursor after selection when advance is set; random never moves the
// cursor; manual returns the pinned account. With auto-dispatch off the
// viewing account is used instead.
func (s *Selector) ForSend(advance bool) (*Account, error) {
	if s.registry.Len() == 0 {
		return nil, domain.ErrNoAccountAvailable
	}

	s.mu.Lock()
	mode, auto := s.mode, s.auto
	manualID, viewingID := s.manualID, s.viewingID
	s.mu.Unlock()

	if !auto {
		acc, ok := s.registry.Lookup(viewingID)
		if !ok {
			return nil, domain.ErrNoAccountAvailable
		}
		return acc, nil
	}

	switch mode {
	case domain.ModeManual:
		acc, ok := s.registry.Lookup(manualID)
		if !ok {
			return nil, domain.ErrNoAccountAvailable
		}
		return acc, nil
	case domain.ModeRandom:
		return s.randomAccount()
	default:
		acc, ok := s.registry.Sequential(advance)
		if !ok {
			return nil, domain.ErrNoAccountAvailable
		}
		return acc, nil
	}
}

// ForReaction picks the account for the next reaction. Unlike sends, the
// round-robin order is consulted even when auto-dispatch is off; cursor
// advancement is deferred to AfterReaction so a blocked duplicate does not
// rotate the order.
func (s *Selector) ForReaction() (*Account, error) {
	if s.registry.Len() == 0 {
		return nil, domain.ErrNoAccountAvailable
	}

	s.mu.Lock()
	mode, auto := s.mode, s.auto
	manualID, viewingID := s.manualID, s.viewingID
	s.mu.Unlock()

	if auto {
		switch mode {
		case domain.ModeManual:
			acc, ok := s.registry.Lookup(manualID)
			if !ok {
				return nil, domain.ErrNoAccountAvailable
			}
			return acc, nil
		case domain.ModeRandom:
			return s.randomAccount()
		default:
			acc, ok := s.registry.PeekSequential()
			if !ok {
				return nil, domain.ErrNoAccountAvailable
			}
			return acc, nil
		}
	}

	if acc, ok := s.registry.PeekSequential(); ok {
		return acc, nil
	}
	acc, ok := s.registry.Lookup(viewingID)
	if !ok {
		return nil, domain.ErrNoAccountAvailable
	}
	return acc, nil
}

// AfterReaction advances the round-robin cursor when the operator enabled
// rotate-after-reaction. Called on completion of a reaction dispatch,
// successful or not.
func (s *Selector) AfterReaction() {
	s.mu.Lock()
	on := s.advanceOnReaction
	s.mu.Unlock()
	if on {
		s.registry.AdvanceCursor()
	}
}

// PeekSend computes who would send next without mutating any cursor.
// Random mode has no determined answer and reports false.
func (s *Selector) PeekSend() (*Account, bool) {
	if s.registry.Len() == 0 {
		return nil, false
	}

	s.mu.Lock()
	mode, auto := s.mode, s.auto
	manualID, viewingID := s.manualID, s.viewingID
	s.mu.Unlock()

	if !auto {
		return s.registry.Lookup(viewingID)
	}
	switch mode {
	case domain.ModeManual:
		return s.registry.Lookup(manualID)
	case domain.ModeRandom:
		return nil, false
	default:
		return s.registry.PeekSequential()
	}
}

// PeekNextAfter computes who follows the given account, again without
// side effects. Used purely to render "next up" labels.
func (s *Selector) PeekNextAfter(cur *Account) (*Account, bool) {
	if s.registry.Len() == 0 {
		return nil, false
	}

	s.mu.Lock()
	mode, auto := s.mode, s.auto
	s.mu.Unlock()

	if !auto || mode == domain.ModeManual {
		return cur, cur != nil
	}
	if mode == domain.ModeRandom {
		return nil, false
	}
	if cur != nil {
		return s.registry.PeekAfter(cur.ID())
	}
	return s.registry.PeekSequential()
}

func (s *Selector) randomAccount() (*Account, error) {
	order := s.registry.Order()
	if len(order) == 0 {
		return nil, domain.ErrNoAccountAvailable
	}
	s.mu.Lock()
	idx := s.rnd.Intn(len(order))
	s.mu.Unlock()
	acc, ok := s.registry.Lookup(order[idx])
	if !ok {
		return nil, domain.ErrNoAccountAvailable
	}
	return acc, nil
}
