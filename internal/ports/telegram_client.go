package ports

import (
	"context"

	"github.com/okhotin/tgherd/internal/domain"
)

// TelegramClient is the opaque RPC client for one authenticated session.
// Implementations must surface remote failures as *domain.RPCError so the
// runner can classify them. A client instance is never safe for concurrent
// calls; the account runner serializes access.
type TelegramClient interface {
	Connect(ctx context.Context) error
	Disconnect() error

	// Me reports the identity owning this session.
	Me(ctx context.Context) (domain.UserInfo, error)
	// UpdateOnlineStatus is the cheap status-update call used as a health
	// probe; offline=true avoids flagging the account as active.
	UpdateOnlineStatus(ctx context.Context, offline bool) error

	ResolveRef(ctx context.Context, ref domain.ChatRef) (domain.Entity, error)
	EnsureJoined(ctx context.Context, entity domain.Entity) error
	InputPeer(ctx context.Context, entity domain.Entity) (domain.PeerHandle, error)

	SendText(ctx context.Context, peer domain.PeerHandle, text string, replyTo int64) (domain.Message, error)
	SendFile(ctx context.Context, peer domain.PeerHandle, path, caption string, replyTo int64) (domain.Message, error)
	DownloadMedia(ctx context.Context, peer domain.PeerHandle, messageID int64, destDir string) (string, error)

	Dialogs(ctx context.Context, limit int) ([]domain.Dialog, error)
	Messages(ctx context.Context, peer domain.PeerHandle, limit int) ([]domain.Message, error)

	// Replies fetches the comment thread behind a broadcast post.
	Replies(ctx context.Context, peer domain.PeerHandle, postID int64, limit int) ([]domain.Message, error)
	DiscussionChat(ctx context.Context, entity domain.Entity) (domain.Discussion, error)

	SetReaction(ctx context.Context, peer domain.PeerHandle, messageID int64, emoji string) error
	AllowedReactions(ctx context.Context, entity domain.Entity) ([]string, error)

	UpdateProfile(ctx context.Context, firstName, lastName, about string) (domain.UserInfo, error)
	UpdateUsername(ctx context.Context, username string) (domain.UserInfo, error)
	UploadProfilePhoto(ctx context.Context, path string) error

	// Raw passes an arbitrary method through to the remote.
	Raw(ctx context.Context, method string, params map[string]any) ([]byte, error)
}

// ClientFactory builds a client for one session, optionally routed through
// an assigned proxy.
type ClientFactory interface {
	New(session string, proxy *domain.ProxyDescriptor) TelegramClient
}

// SessionStore is the persisted session material on disk.
type SessionStore interface {
	List() ([]string, error)
	Delete(name string) error
}

// Sticker identifies one sticker inside a set.
type Sticker struct {
	SetShortName string
	DocumentID   int64
}

// StickerSender is the optional capability used by dispatch when a sticker
// module is wired in at composition time.
type StickerSender interface {
	SendSticker(ctx context.Context, client TelegramClient, peer domain.PeerHandle, sticker Sticker) error
}
