package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ReactionKey names one (target, message, account) triple in the ledger.
type ReactionKey struct {
	Ref       ChatRef
	MessageID int64
	UserID    UserID
}

func (k ReactionKey) String() string {
	return fmt.Sprintf("%s|%d|%d", k.Ref, k.MessageID, k.UserID)
}

// ParseReactionKey is the inverse of String, used when loading the ledger.
func ParseReactionKey(raw string) (ReactionKey, error) {
	i := strings.LastIndex(raw, "|")
	if i < 0 {
		return ReactionKey{}, fmt.Errorf("reaction key %q: missing separators", raw)
	}
	j := strings.LastIndex(raw[:i], "|")
	if j < 0 {
		return ReactionKey{}, fmt.Errorf("reaction key %q: missing separators", raw)
	}
	msgID, err := strconv.ParseInt(raw[j+1:i], 10, 64)
	if err != nil {
		return ReactionKey{}, fmt.Errorf("reaction key %q: message id: %w", raw, err)
	}
	uid, err := strconv.ParseInt(raw[i+1:], 10, 64)
	if err != nil {
		return ReactionKey{}, fmt.Errorf("reaction key %q: user id: %w", raw, err)
	}
	return ReactionKey{Ref: ChatRef(raw[:j]), MessageID: msgID, UserID: UserID(uid)}, nil
}

// ReactionLedger remembers the last emoji each account put on each message.
// It is advisory de-duplication only: it blocks an identical repeat from
// the same account, and never reconciles with the remote's reaction state.
type ReactionLedger map[string]string

// AlreadyReacted reports whether the last recorded emoji for the triple
// equals emoji.
func (l ReactionLedger) AlreadyReacted(key ReactionKey, emoji string) bool {
	return l[key.String()] == emoji
}

// Record overwrites the remembered emoji for the triple. Last write wins.
func (l ReactionLedger) Record(key ReactionKey, emoji string) {
	l[key.String()] = emoji
}
