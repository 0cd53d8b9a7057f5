package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type memAccountsCache struct {
	mu       sync.Mutex
	profiles []domain.AccountProfile
	saves    int
}

func (s *memAccountsCache) Load(context.Context) ([]domain.AccountProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AccountProfile(nil), s.profiles...), nil
}

func (s *memAccountsCache) Save(_ context.Context, profiles []domain.AccountProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append([]domain.AccountProfile(nil), profiles...)
	s.saves++
	return nil
}

type memPinStore struct {
	pins domain.Pins
}

func (s *memPinStore) Load(context.Context) (domain.Pins, error) {
	return append(domain.Pins(nil), s.pins...), nil
}

func (s *memPinStore) Save(_ context.Context, pins domain.Pins) error {
	s.pins = append(domain.Pins(nil), pins...)
	return nil
}

type memProxyStore struct {
	cfg   domain.ProxyConfig
	saves int
}

func (s *memProxyStore) Load(context.Context) (domain.ProxyConfig, error) {
	if s.cfg.BySession == nil {
		return domain.NewProxyConfig(), nil
	}
	return s.cfg, nil
}

func (s *memProxyStore) Save(_ context.Context, cfg domain.ProxyConfig) error {
	s.cfg = cfg
	s.saves++
	return nil
}

type memReactionStore struct {
	mu     sync.Mutex
	ledger domain.ReactionLedger
	saves  int
}

func (s *memReactionStore) Load(context.Context) (domain.ReactionLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return domain.ReactionLedger{}, nil
	}
	out := make(domain.ReactionLedger, len(s.ledger))
	for k, v := range s.ledger {
		out[k] = v
	}
	return out, nil
}

func (s *memReactionStore) Save(_ context.Context, ledger domain.ReactionLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger
	s.saves++
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	names    []string
	deleted  []string
	listErr  error
	delErrBy map[string]error
}

func (s *memSessionStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.names...), nil
}

func (s *memSessionStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.delErrBy[name]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, name)
	for i, have := range s.names {
		if have == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	added       []domain.AccountProfile
	evicted     []string
	rateLimited []domain.UserID
	roster      int
}

func (n *recordingNotifier) AccountAdded(p domain.AccountProfile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, p)
}

func (n *recordingNotifier) AccountEvicted(p domain.AccountProfile, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.evicted = append(n.evicted, fmt.Sprintf("%d:%s", p.UserID, reason))
}

func (n *recordingNotifier) AccountRateLimited(p domain.AccountProfile, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rateLimited = append(n.rateLimited, p.UserID)
}

func (n *recordingNotifier) RosterChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roster++
}

// fakeClient implements ports.TelegramClient with per-method hooks; every
// unhooked method succeeds with zero values.
type fakeClient struct {
	me             domain.UserInfo
	connectErr     error
	probeErr       error
	disconnects    int
	resolveFn      func(domain.ChatRef) (domain.Entity, error)
	resolveCalls   int
	inputPeerFn    func(domain.Entity) (domain.PeerHandle, error)
	joined         []domain.Entity
	sendTextFn     func(domain.PeerHandle, string, int64) (domain.Message, error)
	sendFileFn     func(domain.PeerHandle, string, string, int64) (domain.Message, error)
	setReactionFn  func(domain.PeerHandle, int64, string) error
	repliesFn      func(domain.PeerHandle, int64, int) ([]domain.Message, error)
	discussionFn   func(domain.Entity) (domain.Discussion, error)
	dialogsFn      func(int) ([]domain.Dialog, error)
	messagesFn     func(domain.PeerHandle, int) ([]domain.Message, error)
	updProfileFn   func(string, string) (domain.UserInfo, error)
	updUsernameFn  func(string) (domain.UserInfo, error)
	uploadPhotoErr error
}

var _ ports.TelegramClient = (*fakeClient)(nil)

func (c *fakeClient) Connect(context.Context) error { return c.connectErr }

func (c *fakeClient) Disconnect() error {
	c.disconnects++
	return nil
}

func (c *fakeClient) Me(context.Context) (domain.UserInfo, error) { return c.me, nil }

func (c *fakeClient) UpdateOnlineStatus(context.Context, bool) error { return c.probeErr }

func (c *fakeClient) ResolveRef(_ context.Context, ref domain.ChatRef) (domain.Entity, error) {
	c.resolveCalls++
	if c.resolveFn != nil {
		return c.resolveFn(ref)
	}
	return domain.Entity{Kind: domain.EntityChannel, ID: 1000}, nil
}

func (c *fakeClient) EnsureJoined(_ context.Context, entity domain.Entity) error {
	c.joined = append(c.joined, entity)
	return nil
}

func (c *fakeClient) InputPeer(_ context.Context, entity domain.Entity) (domain.PeerHandle, error) {
	if c.inputPeerFn != nil {
		return c.inputPeerFn(entity)
	}
	return domain.PeerHandle{Kind: domain.PeerChannel, ID: entity.ID, AccessHash: 7}, nil
}

func (c *fakeClient) SendText(_ context.Context, peer domain.PeerHandle, text string, replyTo int64) (domain.Message, error) {
	if c.sendTextFn != nil {
		return c.sendTextFn(peer, text, replyTo)
	}
	return domain.Message{ID: 1, Text: text, Out: true}, nil
}

func (c *fakeClient) SendFile(_ context.Context, peer domain.PeerHandle, path, caption string, replyTo int64) (domain.Message, error) {
	if c.sendFileFn != nil {
		return c.sendFileFn(peer, path, caption, replyTo)
	}
	return domain.Message{ID: 2, Text: caption, Out: true}, nil
}

func (c *fakeClient) DownloadMedia(_ context.Context, _ domain.PeerHandle, _ int64, destDir string) (string, error) {
	return destDir + "/media.bin", nil
}

func (c *fakeClient) Dialogs(_ context.Context, limit int) ([]domain.Dialog, error) {
	if c.dialogsFn != nil {
		return c.dialogsFn(limit)
	}
	return nil, nil
}

func (c *fakeClient) Messages(_ context.Context, peer domain.PeerHandle, limit int) ([]domain.Message, error) {
	if c.messagesFn != nil {
		return c.messagesFn(peer, limit)
	}
	return nil, nil
}

func (c *fakeClient) Replies(_ context.Context, peer domain.PeerHandle, postID int64, limit int) ([]domain.Message, error) {
	if c.repliesFn != nil {
		return c.repliesFn(peer, postID, limit)
	}
	return nil, nil
}

func (c *fakeClient) DiscussionChat(_ context.Context, entity domain.Entity) (domain.Discussion, error) {
	if c.discussionFn != nil {
		return c.discussionFn(entity)
	}
	return domain.Discussion{
		Chat:   domain.Entity{Kind: domain.EntityChannel, ID: entity.ID + 1},
		RootID: 500,
	}, nil
}

func (c *fakeClient) SetReaction(_ context.Context, peer domain.PeerHandle, messageID int64, emoji string) error {
	if c.setReactionFn != nil {
		return c.setReactionFn(peer, messageID, emoji)
	}
	return nil
}

func (c *fakeClient) AllowedReactions(context.Context, domain.Entity) ([]string, error) {
	return []string{"👍", "🔥"}, nil
}

func (c *fakeClient) UpdateProfile(_ context.Context, firstName, lastName, _ string) (domain.UserInfo, error) {
	if c.updProfileFn != nil {
		return c.updProfileFn(firstName, lastName)
	}
	return domain.UserInfo{ID: c.me.ID, FirstName: firstName, LastName: lastName}, nil
}

func (c *fakeClient) UpdateUsername(_ context.Context, username string) (domain.UserInfo, error) {
	if c.updUsernameFn != nil {
		return c.updUsernameFn(username)
	}
	return domain.UserInfo{ID: c.me.ID, Username: username}, nil
}

func (c *fakeClient) UploadProfilePhoto(context.Context, string) error { return c.uploadPhotoErr }

func (c *fakeClient) Raw(context.Context, string, map[string]any) ([]byte, error) {
	return []byte(`{"ok":true}`), nil
}

// fakeFactory hands out pre-registered clients by session name.
type fakeFactory struct {
	mu      sync.Mutex
	clients map[string]*fakeClient
	proxies map[string]*domain.ProxyDescriptor
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{clients: map[string]*fakeClient{}, proxies: map[string]*domain.ProxyDescriptor{}}
}

func (f *fakeFactory) New(session string, proxy *domain.ProxyDescriptor) ports.TelegramClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proxies[session] = proxy
	if client, ok := f.clients[session]; ok {
		return client
	}
	client := &fakeClient{}
	f.clients[session] = client
	return client
}
