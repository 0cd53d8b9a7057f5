package domain

// Mode is how the next acting account is chosen.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeRandom     Mode = "random"
	ModeManual     Mode = "manual"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeSequential, ModeRandom, ModeManual:
		return Mode(raw), true
	default:
		return "", false
	}
}

// DispatchState is the selection configuration that survives between
// invocations: mode, manual pin, viewing account, auto-dispatch and
// advance-on-reaction flags, plus the round-robin cursor so sequential
// rotation continues where the previous invocation left off.
type DispatchState struct {
	Mode              Mode
	ManualID          UserID
	ViewingID         UserID
	AutoDispatch      bool
	AdvanceOnReaction bool
	Cursor            int
}

// SelectionState is the round-robin order over active accounts plus the
// cursor Sequential selection cycles through. The cursor is always read
// modulo the current order length.
type SelectionState struct {
	Order  []UserID
	Cursor int
}

func (s *SelectionState) Len() int { return len(s.Order) }

// Current returns the id under the cursor without advancing.
func (s *SelectionState) Current() (UserID, bool) {
	if len(s.Order) == 0 {
		return 0, false
	}
	return s.Order[s.Cursor%len(s.Order)], true
}

// Advance moves the cursor one step, wrapping at the end of the order.
func (s *SelectionState) Advance() {
	if len(s.Order) == 0 {
		s.Cursor = 0
		return
	}
	s.Cursor = (s.Cursor + 1) % len(s.Order)
}

// After returns the id that follows the given one in the order. When the id
// is not in the order the cursor position is used instead.
func (s *SelectionState) After(id UserID) (UserID, bool) {
	if len(s.Order) == 0 {
		return 0, false
	}
	for i, v := range s.Order {
		if v == id {
			return s.Order[(i+1)%len(s.Order)], true
		}
	}
	return s.Order[s.Cursor%len(s.Order)], true
}

// Append adds an id to the end of the order if not already present.
func (s *SelectionState) Append(id UserID) {
	for _, v := range s.Order {
		if v == id {
			return
		}
	}
	s.Order = append(s.Order, id)
}

// Remove drops an id from the order, shifting the cursor back when the
// removed slot sat at or before it so the next selection neither skips nor
// repeats an id.
func (s *SelectionState) Remove(id UserID) {
	for i, v := range s.Order {
		if v != id {
			continue
		}
		s.Order = append(s.Order[:i], s.Order[i+1:]...)
		if i <= s.Cursor && s.Cursor > 0 {
			s.Cursor--
		}
		if len(s.Order) == 0 {
			s.Cursor = 0
		} else {
			s.Cursor %= len(s.Order)
		}
		return
	}
}

func (s *SelectionState) Reset() {
	s.Order = nil
	s.Cursor = 0
}
