package domain

import "time"

// MediaRef points at a downloadable attachment on a message.
type MediaRef struct {
	Kind     string
	FileName string
	MimeType string
	Size     int64
}

// ReactionCount is one emoji's tally on a message.
type ReactionCount struct {
	Emoji string
	Count int
}

// Message is a chat or comment message as reported by the RPC client.
type Message struct {
	ID        int64
	PeerID    int64
	SenderID  UserID
	Sender    string
	Text      string
	Date      time.Time
	Out       bool
	ReplyToID int64
	Media     *MediaRef
	Reactions []ReactionCount
}

// Dialog is one entry of an account's recent-chats list.
type Dialog struct {
	Ref    ChatRef
	Title  string
	Unread int
}

// Discussion describes the linked comment chat behind a broadcast post.
type Discussion struct {
	Chat Entity
	// RootID is the id, inside the discussion chat, of the forwarded copy
	// of the channel post. Comment replies attach under it.
	RootID int64
}
