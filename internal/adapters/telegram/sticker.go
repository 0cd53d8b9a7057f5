package telegram

import (
	"context"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

// StickerSender sends stickers through the gateway's raw method surface.
type StickerSender struct{}

var _ ports.StickerSender = StickerSender{}

func (StickerSender) SendSticker(ctx context.Context, client ports.TelegramClient, peer domain.PeerHandle, sticker ports.Sticker) error {
	_, err := client.Raw(ctx, "messages.sendSticker", map[string]any{
		"peer_kind":      string(peer.Kind),
		"peer_id":        peer.ID,
		"access_hash":    peer.AccessHash,
		"set_short_name": sticker.SetShortName,
		"document_id":    sticker.DocumentID,
	})
	return err
}
