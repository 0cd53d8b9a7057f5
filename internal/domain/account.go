package domain

import (
	"fmt"
	"strings"
)

// UserID is the remote user identity an authenticated session belongs to.
type UserID int64

// AccountProfile is the identity snapshot of one signed-in account. It is
// what gets persisted to the accounts cache for cold-start display, keyed
// by the remote user id.
type AccountProfile struct {
	UserID    UserID
	Display   string
	Username  string
	FirstName string
	LastName  string
	// Session is the session-material file name this account was loaded from.
	Session string
}

// FriendlyDisplay renders the most human-readable handle available:
// full name, then @username, then the stored display string.
func (p AccountProfile) FriendlyDisplay() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name != "" {
		return name
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.Display != "" {
		return p.Display
	}
	return fmt.Sprintf("id%d", p.UserID)
}

// UserInfo is the identity reported by the remote for the current session.
type UserInfo struct {
	ID        UserID
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// ProfileFor builds the persisted snapshot for a session's owning user.
func ProfileFor(u UserInfo, session string) AccountProfile {
	p := AccountProfile{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Session:   session,
	}
	p.Display = p.FriendlyDisplay()
	return p
}
