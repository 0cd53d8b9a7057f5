package telegram

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

type recordedCall struct {
	Method  string
	Session string
	Params  map[string]any
}

// gatewayStub replays canned envelopes per method and records every call.
type gatewayStub struct {
	t         *testing.T
	responses map[string]string
	calls     []recordedCall
}

func newGatewayStub(t *testing.T) *gatewayStub {
	return &gatewayStub{t: t, responses: map[string]string{}}
}

func (g *gatewayStub) respond(method, body string) { g.responses[method] = body }

func (g *gatewayStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/rpc/")

	var params map[string]any
	require.NoError(g.t, json.NewDecoder(r.Body).Decode(&params))
	g.calls = append(g.calls, recordedCall{
		Method:  method,
		Session: r.Header.Get("X-Tg-Session"),
		Params:  params,
	})

	body, ok := g.responses[method]
	if !ok {
		body = `{"ok":true}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (g *gatewayStub) lastCall() recordedCall {
	require.NotEmpty(g.t, g.calls)
	return g.calls[len(g.calls)-1]
}

func newStubClient(t *testing.T, proxy *domain.ProxyDescriptor) (*Client, *gatewayStub) {
	t.Helper()
	stub := newGatewayStub(t)
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	factory := NewFactory(server.Client(), server.URL)
	return factory.New("a.session", proxy).(*Client), stub
}

func TestCallSendsSessionHeader(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)

	require.NoError(t, client.UpdateOnlineStatus(context.Background(), true))
	call := stub.lastCall()
	assert.Equal(t, "account.updateStatus", call.Method)
	assert.Equal(t, "a.session", call.Session)
	assert.Equal(t, true, call.Params["offline"])
}

func TestCallMapsErrorEnvelopeToRPCError(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("users.me", `{"ok":false,"error_code":"SESSION_REVOKED","description":"The session was revoked"}`)

	_, err := client.Me(context.Background())
	require.Error(t, err)

	var rpcErr *domain.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "SESSION_REVOKED", rpcErr.Code)
	assert.Equal(t, "The session was revoked", rpcErr.Description)
	assert.Equal(t, http.StatusOK, rpcErr.Status)
	assert.Equal(t, domain.ClassFatalAccount, domain.Classify(err))
}

func TestCallFloodWaitClassifiesAsRateLimited(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("messages.setReaction", `{"ok":false,"error_code":"FLOOD_WAIT_42","description":"Too many requests"}`)

	err := client.SetReaction(context.Background(), domain.PeerHandle{Kind: domain.PeerChannel, ID: 1}, 5, "👍")
	require.Error(t, err)
	assert.Equal(t, domain.ClassRateLimited, domain.Classify(err))
}

func TestConnectForwardsProxyDescriptor(t *testing.T) {
	t.Parallel()
	proxy := &domain.ProxyDescriptor{Scheme: "socks5", Host: "h", Port: 1080, Username: "u", Password: "p"}
	client, stub := newStubClient(t, proxy)

	require.NoError(t, client.Connect(context.Background()))

	call := stub.lastCall()
	assert.Equal(t, "session.connect", call.Method)
	sent, ok := call.Params["proxy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "socks5", sent["scheme"])
	assert.Equal(t, "h", sent["host"])
	assert.Equal(t, float64(1080), sent["port"])
}

func TestConnectWithoutProxyOmitsDescriptor(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)

	require.NoError(t, client.Connect(context.Background()))
	assert.NotContains(t, stub.lastCall().Params, "proxy")
}

func TestResolveRefMapsEntity(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("contacts.resolve", `{"ok":true,"result":{
  "kind":"channel","id":1000,"access_hash":777,"username":"gopherchat","title":"Gopher Chat","broadcast":true
}}`)

	entity, err := client.ResolveRef(context.Background(), "username:gopherchat")
	require.NoError(t, err)
	assert.Equal(t, domain.EntityChannel, entity.Kind)
	assert.Equal(t, int64(1000), entity.ID)
	assert.Equal(t, int64(777), entity.AccessHash)
	assert.True(t, entity.Broadcast)

	call := stub.lastCall()
	assert.Equal(t, "username", call.Params["kind"])
	assert.Equal(t, "gopherchat", call.Params["value"])
}

func TestResolveRefBareUsernameInput(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("contacts.resolve", `{"ok":true,"result":{"kind":"user","id":5}}`)

	_, err := client.ResolveRef(context.Background(), "@durov")
	require.NoError(t, err)

	call := stub.lastCall()
	assert.Equal(t, "username", call.Params["kind"])
	assert.Equal(t, "durov", call.Params["value"])
}

func TestResolveRefEmptyResultIsResolutionFailure(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("contacts.resolve", `{"ok":true,"result":{}}`)

	_, err := client.ResolveRef(context.Background(), "username:ghost")
	assert.ErrorIs(t, err, domain.ErrResolutionFailed)
}

func TestSendTextMapsMessage(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("messages.sendText", `{"ok":true,"result":{
  "id":42,"text":"hello","out":true,"date":1756500000
}}`)

	peer := domain.PeerHandle{Kind: domain.PeerChannel, ID: 1000, AccessHash: 777}
	msg, err := client.SendText(context.Background(), peer, "hello", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.ID)
	assert.True(t, msg.Out)
	assert.Equal(t, time.Unix(1756500000, 0).UTC(), msg.Date)

	call := stub.lastCall()
	assert.Equal(t, "channel", call.Params["peer_kind"])
	assert.Equal(t, float64(1000), call.Params["peer_id"])
	assert.Equal(t, float64(7), call.Params["reply_to"])
}

func TestSendTextZeroReplyToOmitted(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)

	_, err := client.SendText(context.Background(), domain.PeerHandle{Kind: domain.PeerUser, ID: 5}, "hi", 0)
	require.NoError(t, err)
	assert.NotContains(t, stub.lastCall().Params, "reply_to")
}

func TestRepliesMapsThread(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("messages.replies", `{"ok":true,"result":[
  {"id":501,"sender_id":9,"sender":"Ann","text":"first"},
  {"id":502,"sender_id":10,"sender":"Bob","text":"second","reactions":[{"emoji":"👍","count":3}]}
]}`)

	peer := domain.PeerHandle{Kind: domain.PeerChannel, ID: 1000}
	comments, err := client.Replies(context.Background(), peer, 77, 100)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, domain.UserID(9), comments[0].SenderID)
	require.Len(t, comments[1].Reactions, 1)
	assert.Equal(t, 3, comments[1].Reactions[0].Count)

	call := stub.lastCall()
	assert.Equal(t, float64(77), call.Params["post_id"])
}

func TestDiscussionChatMissingThread(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("messages.discussion", `{"ok":true,"result":{"root_id":0}}`)

	_, err := client.DiscussionChat(context.Background(), domain.Entity{Kind: domain.EntityChannel, ID: 1000})
	assert.ErrorIs(t, err, domain.ErrNoDiscussion)
}

func TestDiscussionChatMapsLinkedChat(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("messages.discussion", `{"ok":true,"result":{
  "chat":{"kind":"channel","id":2000,"title":"Gopher Chat Comments"},"root_id":500
}}`)

	discussion, err := client.DiscussionChat(context.Background(), domain.Entity{Kind: domain.EntityChannel, ID: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), discussion.Chat.ID)
	assert.Equal(t, int64(500), discussion.RootID)
}

func TestDownloadMediaWritesFileAtomically(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)

	payload := base64.StdEncoding.EncodeToString([]byte("picture bytes"))
	stub.respond("messages.downloadMedia", `{"ok":true,"result":{"file_name":"photo.jpg","data_base64":"`+payload+`"}}`)

	destDir := filepath.Join(t.TempDir(), "downloads")
	path, err := client.DownloadMedia(context.Background(), domain.PeerHandle{Kind: domain.PeerChannel, ID: 1000}, 42, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "photo.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "picture bytes", string(data))

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadMediaUnnamedPayloadGetsGeneratedName(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)

	payload := base64.StdEncoding.EncodeToString([]byte("blob"))
	stub.respond("messages.downloadMedia", `{"ok":true,"result":{"data_base64":"`+payload+`"}}`)

	path, err := client.DownloadMedia(context.Background(), domain.PeerHandle{Kind: domain.PeerUser, ID: 5}, 1, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "media-")
}

func TestRawReturnsResultBytes(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)
	stub.respond("help.getConfig", `{"ok":true,"result":{"dc":2}}`)

	raw, err := client.Raw(context.Background(), "help.getConfig", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dc":2}`, string(raw))
}

func TestStickerSenderUsesRawSurface(t *testing.T) {
	t.Parallel()
	client, stub := newStubClient(t, nil)

	sender := StickerSender{}
	err := sender.SendSticker(context.Background(), client,
		domain.PeerHandle{Kind: domain.PeerChannel, ID: 1000, AccessHash: 7},
		ports.Sticker{SetShortName: "gophers", DocumentID: 99})
	require.NoError(t, err)

	call := stub.lastCall()
	assert.Equal(t, "messages.sendSticker", call.Method)
	assert.Equal(t, "gophers", call.Params["set_short_name"])
	assert.Equal(t, float64(99), call.Params["document_id"])
}

func TestCallHTTPErrorWithoutEnvelope(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	t.Cleanup(server.Close)

	client := NewFactory(server.Client(), server.URL).New("a.session", nil)
	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 502")
}
