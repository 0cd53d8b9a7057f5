package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

// Dispatcher turns user intent into remote calls: pick an account via the
// selector, resolve the target through the peer cache, execute under the
// account runner, then update the ledgers and stores that feed the UI.
type Dispatcher struct {
	registry  *Registry
	selector  *Selector
	peers     *PeerCache
	reactions ports.ReactionStore
	pins      ports.PinStore
	stickers  ports.StickerSender
	log       *slog.Logger

	mu           sync.Mutex
	ledger       domain.ReactionLedger
	ledgerLoaded bool
	// discussionRoots memoizes the discussion-root message id per
	// (channel ref, post id) while the process lives.
	discussionRoots map[string]int64
}

func NewDispatcher(registry *Registry, selector *Selector, peers *PeerCache, reactions ports.ReactionStore, pins ports.PinStore, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry:        registry,
		selector:        selector,
		peers:           peers,
		reactions:       reactions,
		pins:            pins,
		log:             log,
		discussionRoots: map[string]int64{},
	}
}

// WithStickerSender wires the optional sticker capability in at
// composition time.
func (d *Dispatcher) WithStickerSender(s ports.StickerSender) *Dispatcher {
	d.stickers = s
	return d
}

// SendRequest describes one outgoing message.
type SendRequest struct {
	Ref      domain.ChatRef
	Text     string
	FilePath string
	ReplyTo  int64
}

// Send dispatches a text or file message through the next send account.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (domain.Message, domain.AccountProfile, error) {
	if req.Ref.IsZero() {
		return domain.Message{}, domain.AccountProfile{}, domain.ErrNoChatOpen
	}
	if req.Text == "" && req.FilePath == "" {
		return domain.Message{}, domain.AccountProfile{}, fmt.Errorf("nothing to send")
	}

	acc, err := d.selector.ForSend(true)
	if err != nil {
		return domain.Message{}, domain.AccountProfile{}, err
	}

	peer, err := d.peers.GetOrResolve(ctx, d.registry, acc, req.Ref)
	if err != nil {
		return domain.Message{}, acc.Profile, err
	}

	var sent domain.Message
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		if req.FilePath != "" {
			sent, err = acc.Client.SendFile(ctx, peer, req.FilePath, req.Text, req.ReplyTo)
		} else {
			sent, err = acc.Client.SendText(ctx, peer, req.Text, req.ReplyTo)
		}
		return err
	})
	if err != nil {
		return domain.Message{}, acc.Profile, err
	}

	d.log.Info("message_sent",
		"ref", string(req.Ref),
		"user_id", int64(acc.ID()),
		"message_id", sent.ID,
		"with_file", req.FilePath != "",
	)
	return sent, acc.Profile, nil
}

// ReactOutcome reports what a reaction dispatch did.
type ReactOutcome struct {
	Profile   domain.AccountProfile
	Duplicate bool
}

// React puts an emoji on a message through the next reaction account. An
// identical repeat from the same account on the same message is blocked by
// the advisory ledger without touching the remote.
func (d *Dispatcher) React(ctx context.Context, ref domain.ChatRef, messageID int64, emoji string) (ReactOutcome, error) {
	if ref.IsZero() || emoji == "" {
		return ReactOutcome{}, domain.ErrNoChatOpen
	}

	acc, err := d.selector.ForReaction()
	if err != nil {
		return ReactOutcome{}, err
	}

	key := domain.ReactionKey{Ref: ref, MessageID: messageID, UserID: acc.ID()}
	ledger, err := d.loadLedger(ctx)
	if err != nil {
		return ReactOutcome{}, err
	}
	if ledger.AlreadyReacted(key, emoji) {
		return ReactOutcome{Profile: acc.Profile, Duplicate: true}, nil
	}
	// The cursor rotates after a real dispatch attempt, successful or
	// not, but never after a blocked duplicate.
	defer d.selector.AfterReaction()

	peer, err := d.peers.GetOrResolve(ctx, d.registry, acc, ref)
	if err != nil {
		return ReactOutcome{Profile: acc.Profile}, err
	}

	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		return acc.Client.SetReaction(ctx, peer, messageID, emoji)
	})
	if err != nil {
		return ReactOutcome{Profile: acc.Profile}, err
	}

	d.recordReaction(ctx, key, emoji)
	d.log.Info("reaction_sent", "ref", string(ref), "message_id", messageID, "user_id", int64(acc.ID()), "emoji", emoji)
	return ReactOutcome{Profile: acc.Profile}, nil
}

// AllowedReactions lists the reactions the chat permits, read with the
// viewing account. An empty list means the chat does not restrict them.
func (d *Dispatcher) AllowedReactions(ctx context.Context, ref domain.ChatRef) ([]string, error) {
	if ref.IsZero() {
		return nil, domain.ErrNoChatOpen
	}

	acc, err := d.viewingAccount()
	if err != nil {
		return nil, err
	}

	var emojis []string
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		entity, err := acc.Client.ResolveRef(ctx, ref)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", ref, err)
		}
		emojis, err = acc.Client.AllowedReactions(ctx, entity)
		return err
	})
	return emojis, err
}

// OpenChat resolves a reference with the viewing account and loads recent
// history.
func (d *Dispatcher) OpenChat(ctx context.Context, ref domain.ChatRef, limit int) (domain.Entity, []domain.Message, error) {
	acc, err := d.viewingAccount()
	if err != nil {
		return domain.Entity{}, nil, err
	}

	var entity domain.Entity
	var history []domain.Message
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		entity, err = acc.Client.ResolveRef(ctx, ref)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", ref, err)
		}
		peer, err := acc.Client.InputPeer(ctx, entity)
		if err != nil {
			return err
		}
		history, err = acc.Client.Messages(ctx, peer, limit)
		return err
	})
	if err != nil {
		return domain.Entity{}, nil, err
	}
	return entity, history, nil
}

// Dialogs lists the viewing account's recent chats.
func (d *Dispatcher) Dialogs(ctx context.Context, limit int) ([]domain.Dialog, error) {
	acc, err := d.viewingAccount()
	if err != nil {
		return nil, err
	}
	var dialogs []domain.Dialog
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		dialogs, err = acc.Client.Dialogs(ctx, limit)
		return err
	})
	return dialogs, err
}

// Comments fetches the comment thread behind a broadcast post.
func (d *Dispatcher) Comments(ctx context.Context, channelRef domain.ChatRef, postID int64, limit int) ([]domain.Message, error) {
	acc, err := d.viewingAccount()
	if err != nil {
		return nil, err
	}
	peer, err := d.peers.GetOrResolve(ctx, d.registry, acc, channelRef)
	if err != nil {
		return nil, err
	}

	var comments []domain.Message
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		comments, err = acc.Client.Replies(ctx, peer, postID, limit)
		return err
	})
	return comments, err
}

// SendComment posts into the discussion thread behind a broadcast post.
// Replies attach to the discussion-root copy of the post unless an
// explicit in-thread target is given.
func (d *Dispatcher) SendComment(ctx context.Context, channelRef domain.ChatRef, postID int64, req SendRequest) (domain.Message, domain.AccountProfile, error) {
	acc, err := d.selector.ForSend(true)
	if err != nil {
		return domain.Message{}, domain.AccountProfile{}, err
	}

	var sent domain.Message
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		channel, err := acc.Client.ResolveRef(ctx, channelRef)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", channelRef, err)
		}
		discussion, err := acc.Client.DiscussionChat(ctx, channel)
		if err != nil {
			return err
		}
		if err := acc.Client.EnsureJoined(ctx, discussion.Chat); err != nil {
			return err
		}
		peer, err := acc.Client.InputPeer(ctx, discussion.Chat)
		if err != nil {
			return err
		}

		rootID := d.rootFor(channelRef, postID, discussion.RootID)
		replyTo := req.ReplyTo
		if replyTo == 0 {
			replyTo = rootID
		}

		if req.FilePath != "" {
			sent, err = acc.Client.SendFile(ctx, peer, req.FilePath, req.Text, replyTo)
		} else {
			sent, err = acc.Client.SendText(ctx, peer, req.Text, replyTo)
		}
		return err
	})
	if err != nil {
		return domain.Message{}, acc.Profile, err
	}

	d.log.Info("comment_sent", "ref", string(channelRef), "post_id", postID, "user_id", int64(acc.ID()), "message_id", sent.ID)
	return sent, acc.Profile, nil
}

// ReactComment reacts to one comment inside a post's discussion thread.
// Ledger keys use the channel reference so the de-duplication follows the
// post, not the discussion chat's internal ids.
func (d *Dispatcher) ReactComment(ctx context.Context, channelRef domain.ChatRef, commentID int64, emoji string) (ReactOutcome, error) {
	if channelRef.IsZero() || emoji == "" {
		return ReactOutcome{}, domain.ErrNoChatOpen
	}

	acc, err := d.selector.ForReaction()
	if err != nil {
		return ReactOutcome{}, err
	}

	key := domain.ReactionKey{Ref: channelRef, MessageID: commentID, UserID: acc.ID()}
	ledger, err := d.loadLedger(ctx)
	if err != nil {
		return ReactOutcome{}, err
	}
	if ledger.AlreadyReacted(key, emoji) {
		return ReactOutcome{Profile: acc.Profile, Duplicate: true}, nil
	}
	defer d.selector.AfterReaction()

	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		channel, err := acc.Client.ResolveRef(ctx, channelRef)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", channelRef, err)
		}
		discussion, err := acc.Client.DiscussionChat(ctx, channel)
		if err != nil {
			return err
		}
		peer, err := acc.Client.InputPeer(ctx, discussion.Chat)
		if err != nil {
			return err
		}
		return acc.Client.SetReaction(ctx, peer, commentID, emoji)
	})
	if err != nil {
		return ReactOutcome{Profile: acc.Profile}, err
	}

	d.recordReaction(ctx, key, emoji)
	return ReactOutcome{Profile: acc.Profile}, nil
}

// WatchComments polls the comment thread and hands newly seen messages to
// emit until the context is cancelled. Cancelling the context is the one
// user-visible way to stop the refresh timer.
func (d *Dispatcher) WatchComments(ctx context.Context, channelRef domain.ChatRef, postID int64, interval time.Duration, emit func(domain.Message)) error {
	if interval <= 0 {
		interval = 4 * time.Second
	}

	known := map[int64]struct{}{}
	poll := func() error {
		comments, err := d.Comments(ctx, channelRef, postID, 400)
		if err != nil {
			return err
		}
		for _, msg := range comments {
			if _, seen := known[msg.ID]; seen {
				continue
			}
			known[msg.ID] = struct{}{}
			emit(msg)
		}
		return nil
	}

	if err := poll(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := poll(); err != nil {
				// A vanished account or revoked session ends the watch;
				// transient fetch failures just skip a tick.
				if domain.Classify(err) == domain.ClassFatalAccount {
					return err
				}
				d.log.Warn("comment_poll_failed", "ref", string(channelRef), "post_id", postID, "error", err.Error())
			}
		}
	}
}

// SendSticker dispatches a sticker when the capability is wired.
func (d *Dispatcher) SendSticker(ctx context.Context, ref domain.ChatRef, sticker ports.Sticker) (domain.AccountProfile, error) {
	if d.stickers == nil {
		return domain.AccountProfile{}, fmt.Errorf("sticker support is not wired in")
	}
	acc, err := d.selector.ForSend(true)
	if err != nil {
		return domain.AccountProfile{}, err
	}
	peer, err := d.peers.GetOrResolve(ctx, d.registry, acc, ref)
	if err != nil {
		return acc.Profile, err
	}
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		return d.stickers.SendSticker(ctx, acc.Client, peer, sticker)
	})
	return acc.Profile, err
}

// Download fetches a message's media into destDir with the viewing account.
func (d *Dispatcher) Download(ctx context.Context, ref domain.ChatRef, messageID int64, destDir string) (string, error) {
	acc, err := d.viewingAccount()
	if err != nil {
		return "", err
	}
	peer, err := d.peers.GetOrResolve(ctx, d.registry, acc, ref)
	if err != nil {
		return "", err
	}
	var path string
	err = d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		path, err = acc.Client.DownloadMedia(ctx, peer, messageID, destDir)
		return err
	})
	return path, err
}

// Pin adds a chat reference to the pinned set, keeping first-insertion
// order and dropping duplicates.
func (d *Dispatcher) Pin(ctx context.Context, ref domain.ChatRef) (bool, error) {
	pins, err := d.pins.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load pins: %w", err)
	}
	if !pins.Add(ref) {
		return false, nil
	}
	if err := d.pins.Save(ctx, pins); err != nil {
		return false, fmt.Errorf("save pins: %w", err)
	}
	return true, nil
}

// Unpin removes a chat reference from the pinned set.
func (d *Dispatcher) Unpin(ctx context.Context, ref domain.ChatRef) (bool, error) {
	pins, err := d.pins.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load pins: %w", err)
	}
	if !pins.Remove(ref) {
		return false, nil
	}
	if err := d.pins.Save(ctx, pins); err != nil {
		return false, fmt.Errorf("save pins: %w", err)
	}
	return true, nil
}

// Pins lists the pinned chat references.
func (d *Dispatcher) Pins(ctx context.Context) (domain.Pins, error) {
	return d.pins.Load(ctx)
}

// ChangeName updates an account's profile name on the remote and in the
// cached roster.
func (d *Dispatcher) ChangeName(ctx context.Context, id domain.UserID, firstName, lastName string) error {
	acc, ok := d.registry.Lookup(id)
	if !ok {
		return domain.ErrAccountNotFound
	}
	var updated domain.UserInfo
	err := d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		updated, err = acc.Client.UpdateProfile(ctx, firstName, lastName, "")
		return err
	})
	if err != nil {
		return err
	}
	d.registry.UpdateProfile(ctx, id, func(p *domain.AccountProfile) {
		p.FirstName = updated.FirstName
		p.LastName = updated.LastName
	})
	return nil
}

// ChangeUsername updates an account's public username.
func (d *Dispatcher) ChangeUsername(ctx context.Context, id domain.UserID, username string) error {
	acc, ok := d.registry.Lookup(id)
	if !ok {
		return domain.ErrAccountNotFound
	}
	var updated domain.UserInfo
	err := d.registry.Run(ctx, acc, func(ctx context.Context) error {
		var err error
		updated, err = acc.Client.UpdateUsername(ctx, username)
		return err
	})
	if err != nil {
		return err
	}
	d.registry.UpdateProfile(ctx, id, func(p *domain.AccountProfile) {
		p.Username = updated.Username
	})
	return nil
}

// ChangeAvatar uploads a new profile photo for an account.
func (d *Dispatcher) ChangeAvatar(ctx context.Context, id domain.UserID, path string) error {
	acc, ok := d.registry.Lookup(id)
	if !ok {
		return domain.ErrAccountNotFound
	}
	return d.registry.Run(ctx, acc, func(ctx context.Context) error {
		return acc.Client.UploadProfilePhoto(ctx, path)
	})
}

// SetViewing binds the open chat view to an account.
func (d *Dispatcher) SetViewing(id domain.UserID) error {
	if _, ok := d.registry.Lookup(id); !ok {
		return domain.ErrAccountNotFound
	}
	d.selector.SetViewing(id)
	return nil
}

func (d *Dispatcher) viewingAccount() (*Account, error) {
	if id, ok := d.selector.Viewing(); ok {
		if acc, ok := d.registry.Lookup(id); ok {
			return acc, nil
		}
	}
	if acc, ok := d.registry.PeekSequential(); ok {
		return acc, nil
	}
	return nil, domain.ErrNoAccountAvailable
}

func (d *Dispatcher) rootFor(ref domain.ChatRef, postID, resolved int64) int64 {
	key := fmt.Sprintf("%s|%d", ref, postID)
	d.mu.Lock()
	defer d.mu.Unlock()
	if cached, ok := d.discussionRoots[key]; ok && cached != 0 {
		return cached
	}
	if resolved != 0 {
		d.discussionRoots[key] = resolved
	}
	return resolved
}

func (d *Dispatcher) loadLedger(ctx context.Context) (domain.ReactionLedger, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ledgerLoaded {
		return d.ledger, nil
	}
	ledger, err := d.reactions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reaction ledger: %w", err)
	}
	if ledger == nil {
		ledger = domain.ReactionLedger{}
	}
	d.ledger = ledger
	d.ledgerLoaded = true
	return d.ledger, nil
}

func (d *Dispatcher) recordReaction(ctx context.Context, key domain.ReactionKey, emoji string) {
	d.mu.Lock()
	d.ledger.Record(key, emoji)
	snapshot := make(domain.ReactionLedger, len(d.ledger))
	for k, v := range d.ledger {
		snapshot[k] = v
	}
	d.mu.Unlock()

	if err := d.reactions.Save(ctx, snapshot); err != nil {
		d.log.Warn("reaction_ledger_save_failed", "error", err.Error())
	}
}
