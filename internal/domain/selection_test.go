package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionStateFullCycleVisitsEachIDOnce(t *testing.T) {
	s := SelectionState{Order: []UserID{10, 20, 30, 40}}

	seen := map[UserID]int{}
	for i := 0; i < len(s.Order); i++ {
		id, ok := s.Current()
		require.True(t, ok)
		seen[id]++
		s.Advance()
	}

	for _, id := range s.Order {
		assert.Equal(t, 1, seen[id])
	}

	first, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, UserID(10), first)
}

func TestSelectionStateSingleAccountOscillationIsNoOp(t *testing.T) {
	s := SelectionState{Order: []UserID{7}}

	for i := 0; i < 5; i++ {
		id, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, UserID(7), id)
		s.Advance()
	}
}

func TestSelectionStateRemoveShiftsCursor(t *testing.T) {
	tests := []struct {
		name       string
		order      []UserID
		cursor     int
		remove     UserID
		wantNext   UserID
		wantCursor int
	}{
		{
			name:  "remove before cursor keeps next selection",
			order: []UserID{1, 2, 3}, cursor: 2, remove: 1,
			wantNext: 3, wantCursor: 1,
		},
		{
			name:  "remove at cursor selects successor",
			order: []UserID{1, 2, 3}, cursor: 1, remove: 2,
			wantNext: 1, wantCursor: 0,
		},
		{
			name:  "remove after cursor leaves cursor alone",
			order: []UserID{1, 2, 3}, cursor: 0, remove: 3,
			wantNext: 1, wantCursor: 0,
		},
		{
			name:  "remove last remaining id",
			order: []UserID{1}, cursor: 0, remove: 1,
			wantNext: 0, wantCursor: 0,
		},
		{
			name:  "remove absent id is a no-op",
			order: []UserID{1, 2}, cursor: 1, remove: 9,
			wantNext: 2, wantCursor: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SelectionState{Order: append([]UserID(nil), tt.order...), Cursor: tt.cursor}
			s.Remove(tt.remove)

			assert.Equal(t, tt.wantCursor, s.Cursor)
			id, ok := s.Current()
			if tt.wantNext == 0 {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantNext, id)
		})
	}
}

func TestSelectionStateRemoveNeverPanicsAcrossSequentialUse(t *testing.T) {
	s := SelectionState{Order: []UserID{1, 2, 3, 4, 5}}

	// Interleave advances and removals the way evictions land mid-cycle.
	s.Advance()
	s.Advance()
	s.Remove(2)
	_, ok := s.Current()
	require.True(t, ok)
	s.Advance()
	s.Remove(5)
	s.Remove(1)
	s.Advance()
	id, ok := s.Current()
	require.True(t, ok)
	assert.Contains(t, []UserID{3, 4}, id)
}

func TestSelectionStateAppendDeduplicates(t *testing.T) {
	s := SelectionState{}
	s.Append(1)
	s.Append(2)
	s.Append(1)
	assert.Equal(t, []UserID{1, 2}, s.Order)
}

func TestSelectionStateAfter(t *testing.T) {
	s := SelectionState{Order: []UserID{1, 2, 3}, Cursor: 2}

	next, ok := s.After(2)
	require.True(t, ok)
	assert.Equal(t, UserID(3), next)

	next, ok = s.After(3)
	require.True(t, ok)
	assert.Equal(t, UserID(1), next)

	// Unknown id falls back to the cursor position.
	next, ok = s.After(99)
	require.True(t, ok)
	assert.Equal(t, UserID(3), next)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"sequential", "random", "manual"} {
		mode, ok := ParseMode(valid)
		require.True(t, ok, valid)
		assert.Equal(t, Mode(valid), mode)
	}
	_, ok := ParseMode("roundrobin")
	assert.False(t, ok)
}
