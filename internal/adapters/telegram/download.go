package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okhotin/tgherd/internal/domain"
)

const (
	downloadDirMode  = 0o700
	downloadFileMode = 0o600
)

type wireDownload struct {
	FileName   string `json:"file_name,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	DataBase64 string `json:"data_base64"`
}

// DownloadMedia fetches a message's attachment payload from the gateway
// and materializes it under destDir, writing through a temp file so a
// failed transfer never leaves a truncated download behind.
func (c *Client) DownloadMedia(ctx context.Context, peer domain.PeerHandle, messageID int64, destDir string) (string, error) {
	params := peerParams(peer)
	params["message_id"] = messageID

	var wire wireDownload
	if err := c.call(ctx, "messages.downloadMedia", params, &wire); err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(wire.DataBase64)
	if err != nil {
		return "", fmt.Errorf("decode media payload: %w", err)
	}

	if err := os.MkdirAll(destDir, downloadDirMode); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	name := filepath.Base(wire.FileName)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "media-" + uuid.NewString()
	}
	destPath := filepath.Join(destDir, name)

	tempPath := filepath.Join(destDir, ".download-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tempPath, data, downloadFileMode); err != nil {
		return "", fmt.Errorf("write media temp file: %w", err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("place media file: %w", err)
	}
	return destPath, nil
}
