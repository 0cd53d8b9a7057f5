// Package telegram is the RPC adapter for a per-session MTProto gateway
// speaking JSON over HTTP. One Client wraps one authenticated session;
// the gateway multiplexes sessions by the session header and surfaces
// remote failures as {ok:false, error_code, description} envelopes.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

const (
	sessionHeader  = "X-Tg-Session"
	defaultTimeout = 90 * time.Second
)

// Client is the gateway-backed RPC client for one session. Not safe for
// concurrent calls; the account runner serializes access.
type Client struct {
	http    *http.Client
	baseURL string
	session string
	proxy   *domain.ProxyDescriptor
}

var _ ports.TelegramClient = (*Client)(nil)

// Factory builds gateway clients that share one HTTP client.
type Factory struct {
	http    *http.Client
	baseURL string
}

var _ ports.ClientFactory = (*Factory)(nil)

func NewFactory(httpClient *http.Client, baseURL string) *Factory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Factory{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *Factory) New(session string, proxy *domain.ProxyDescriptor) ports.TelegramClient {
	return &Client{http: f.http, baseURL: f.baseURL, session: session, proxy: proxy}
}

type envelope struct {
	OK          bool            `json:"ok"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// call posts one method to the gateway and decodes the result envelope.
// A non-OK envelope becomes a *domain.RPCError so the runner can
// classify it.
func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/rpc/%s", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, c.session)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s: %w", method, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("gateway %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("gateway %s: decode response: %w", method, err)
	}
	if !env.OK {
		return &domain.RPCError{
			Code:        env.ErrorCode,
			Status:      resp.StatusCode,
			Description: env.Description,
		}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("gateway %s: decode result: %w", method, err)
		}
	}
	return nil
}

// Connect opens the session on the gateway. The assigned proxy rides
// along so the gateway dials the remote through it.
func (c *Client) Connect(ctx context.Context) error {
	params := map[string]any{}
	if c.proxy != nil {
		params["proxy"] = map[string]any{
			"scheme":   c.proxy.Scheme,
			"host":     c.proxy.Host,
			"port":     c.proxy.Port,
			"username": c.proxy.Username,
			"password": c.proxy.Password,
		}
	}
	return c.call(ctx, "session.connect", params, nil)
}

func (c *Client) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.call(ctx, "session.disconnect", nil, nil)
}

type wireUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func (u wireUser) toDomain() domain.UserInfo {
	return domain.UserInfo{
		ID:        domain.UserID(u.ID),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func (c *Client) Me(ctx context.Context) (domain.UserInfo, error) {
	var user wireUser
	if err := c.call(ctx, "users.me", nil, &user); err != nil {
		return domain.UserInfo{}, err
	}
	return user.toDomain(), nil
}

func (c *Client) UpdateOnlineStatus(ctx context.Context, offline bool) error {
	return c.call(ctx, "account.updateStatus", map[string]any{"offline": offline}, nil)
}

type wireEntity struct {
	Kind       string `json:"kind"`
	ID         int64  `json:"id"`
	AccessHash int64  `json:"access_hash,omitempty"`
	Username   string `json:"username,omitempty"`
	Title      string `json:"title,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Broadcast  bool   `json:"broadcast,omitempty"`
}

func (e wireEntity) toDomain() domain.Entity {
	return domain.Entity{
		Kind:       domain.EntityKind(e.Kind),
		ID:         e.ID,
		AccessHash: e.AccessHash,
		Username:   e.Username,
		Title:      e.Title,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Broadcast:  e.Broadcast,
	}
}

func entityParams(e domain.Entity) map[string]any {
	return map[string]any{
		"kind":        string(e.Kind),
		"id":          e.ID,
		"access_hash": e.AccessHash,
	}
}

func (c *Client) ResolveRef(ctx context.Context, ref domain.ChatRef) (domain.Entity, error) {
	kind, value := ref.Parts()
	var entity wireEntity
	err := c.call(ctx, "contacts.resolve", map[string]any{
		"kind":  string(kind),
		"value": value,
	}, &entity)
	if err != nil {
		return domain.Entity{}, err
	}
	if entity.ID == 0 {
		return domain.Entity{}, fmt.Errorf("%w: %s", domain.ErrResolutionFailed, ref)
	}
	return entity.toDomain(), nil
}

func (c *Client) EnsureJoined(ctx context.Context, entity domain.Entity) error {
	return c.call(ctx, "channels.join", entityParams(entity), nil)
}

type wirePeer struct {
	Kind       string `json:"kind"`
	ID         int64  `json:"id"`
	AccessHash int64  `json:"access_hash,omitempty"`
}

func (c *Client) InputPeer(ctx context.Context, entity domain.Entity) (domain.PeerHandle, error) {
	var peer wirePeer
	if err := c.call(ctx, "peers.input", entityParams(entity), &peer); err != nil {
		return domain.PeerHandle{}, err
	}
	return domain.PeerHandle{
		Kind:       domain.PeerKind(peer.Kind),
		ID:         peer.ID,
		AccessHash: peer.AccessHash,
	}, nil
}

func peerParams(peer domain.PeerHandle) map[string]any {
	return map[string]any{
		"peer_kind":   string(peer.Kind),
		"peer_id":     peer.ID,
		"access_hash": peer.AccessHash,
	}
}

type wireMedia struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type wireReaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

type wireMessage struct {
	ID        int64          `json:"id"`
	PeerID    int64          `json:"peer_id,omitempty"`
	SenderID  int64          `json:"sender_id,omitempty"`
	Sender    string         `json:"sender,omitempty"`
	Text      string         `json:"text,omitempty"`
	Date      int64          `json:"date,omitempty"`
	Out       bool           `json:"out,omitempty"`
	ReplyToID int64          `json:"reply_to_id,omitempty"`
	Media     *wireMedia     `json:"media,omitempty"`
	Reactions []wireReaction `json:"reactions,omitempty"`
}

func (m wireMessage) toDomain() domain.Message {
	msg := domain.Message{
		ID:        m.ID,
		PeerID:    m.PeerID,
		SenderID:  domain.UserID(m.SenderID),
		Sender:    m.Sender,
		Text:      m.Text,
		Out:       m.Out,
		ReplyToID: m.ReplyToID,
	}
	if m.Date > 0 {
		msg.Date = time.Unix(m.Date, 0).UTC()
	}
	if m.Media != nil {
		msg.Media = &domain.MediaRef{
			Kind:     m.Media.Kind,
			FileName: m.Media.FileName,
			MimeType: m.Media.MimeType,
			Size:     m.Media.Size,
		}
	}
	for _, r := range m.Reactions {
		msg.Reactions = append(msg.Reactions, domain.ReactionCount{Emoji: r.Emoji, Count: r.Count})
	}
	return msg
}

func messagesToDomain(wire []wireMessage) []domain.Message {
	out := make([]domain.Message, 0, len(wire))
	for _, m := range wire {
		out = append(out, m.toDomain())
	}
	return out
}

func (c *Client) SendText(ctx context.Context, peer domain.PeerHandle, text string, replyTo int64) (domain.Message, error) {
	params := peerParams(peer)
	params["text"] = text
	if replyTo != 0 {
		params["reply_to"] = replyTo
	}
	var msg wireMessage
	if err := c.call(ctx, "messages.sendText", params, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg.toDomain(), nil
}

func (c *Client) SendFile(ctx context.Context, peer domain.PeerHandle, path, caption string, replyTo int64) (domain.Message, error) {
	params := peerParams(peer)
	params["path"] = path
	if caption != "" {
		params["caption"] = caption
	}
	if replyTo != 0 {
		params["reply_to"] = replyTo
	}
	var msg wireMessage
	if err := c.call(ctx, "messages.sendFile", params, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg.toDomain(), nil
}

type wireDialog struct {
	Ref    string `json:"ref"`
	Title  string `json:"title,omitempty"`
	Unread int    `json:"unread,omitempty"`
}

func (c *Client) Dialogs(ctx context.Context, limit int) ([]domain.Dialog, error) {
	var wire []wireDialog
	if err := c.call(ctx, "dialogs.list", map[string]any{"limit": limit}, &wire); err != nil {
		return nil, err
	}
	dialogs := make([]domain.Dialog, 0, len(wire))
	for _, d := range wire {
		dialogs = append(dialogs, domain.Dialog{
			Ref:    domain.ChatRef(d.Ref),
			Title:  d.Title,
			Unread: d.Unread,
		})
	}
	return dialogs, nil
}

func (c *Client) Messages(ctx context.Context, peer domain.PeerHandle, limit int) ([]domain.Message, error) {
	params := peerParams(peer)
	params["limit"] = limit
	var wire []wireMessage
	if err := c.call(ctx, "messages.history", params, &wire); err != nil {
		return nil, err
	}
	return messagesToDomain(wire), nil
}

func (c *Client) Replies(ctx context.Context, peer domain.PeerHandle, postID int64, limit int) ([]domain.Message, error) {
	params := peerParams(peer)
	params["post_id"] = postID
	params["limit"] = limit
	var wire []wireMessage
	if err := c.call(ctx, "messages.replies", params, &wire); err != nil {
		return nil, err
	}
	return messagesToDomain(wire), nil
}

type wireDiscussion struct {
	Chat   *wireEntity `json:"chat"`
	RootID int64       `json:"root_id"`
}

func (c *Client) DiscussionChat(ctx context.Context, entity domain.Entity) (domain.Discussion, error) {
	var wire wireDiscussion
	if err := c.call(ctx, "messages.discussion", entityParams(entity), &wire); err != nil {
		return domain.Discussion{}, err
	}
	if wire.Chat == nil || wire.Chat.ID == 0 {
		return domain.Discussion{}, domain.ErrNoDiscussion
	}
	return domain.Discussion{Chat: wire.Chat.toDomain(), RootID: wire.RootID}, nil
}

func (c *Client) SetReaction(ctx context.Context, peer domain.PeerHandle, messageID int64, emoji string) error {
	params := peerParams(peer)
	params["message_id"] = messageID
	params["emoji"] = emoji
	return c.call(ctx, "messages.setReaction", params, nil)
}

func (c *Client) AllowedReactions(ctx context.Context, entity domain.Entity) ([]string, error) {
	var emojis []string
	if err := c.call(ctx, "messages.allowedReactions", entityParams(entity), &emojis); err != nil {
		return nil, err
	}
	return emojis, nil
}

func (c *Client) UpdateProfile(ctx context.Context, firstName, lastName, about string) (domain.UserInfo, error) {
	var user wireUser
	err := c.call(ctx, "account.updateProfile", map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
		"about":      about,
	}, &user)
	if err != nil {
		return domain.UserInfo{}, err
	}
	return user.toDomain(), nil
}

func (c *Client) UpdateUsername(ctx context.Context, username string) (domain.UserInfo, error) {
	var user wireUser
	if err := c.call(ctx, "account.updateUsername", map[string]any{"username": username}, &user); err != nil {
		return domain.UserInfo{}, err
	}
	return user.toDomain(), nil
}

func (c *Client) UploadProfilePhoto(ctx context.Context, path string) error {
	return c.call(ctx, "account.uploadPhoto", map[string]any{"path": path}, nil)
}

func (c *Client) Raw(ctx context.Context, method string, params map[string]any) ([]byte, error) {
	var result json.RawMessage
	if err := c.call(ctx, method, params, &result); err != nil {
		return nil, err
	}
	return []byte(result), nil
}
