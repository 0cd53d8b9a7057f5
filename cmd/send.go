package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/application"
	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

func newSendCmd(app *app) *cobra.Command {
	var (
		text    string
		file    string
		replyTo int64
		sticker string
	)

	cmd := &cobra.Command{
		Use:   "send <ref>",
		Short: "Send a message to a chat through the next rotation account",
		Long:  "Send a text, file or sticker to a chat. The acting account is picked by the current selection mode; sequential mode advances the rotation after the send.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := domain.ChatRef(args[0])

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			if sticker != "" {
				parsed, err := parseStickerArg(sticker)
				if err != nil {
					return err
				}
				profile, err := app.dispatcher.SendSticker(cmd.Context(), ref, parsed)
				if err = app.persistDispatch(cmd.Context(), err); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sticker sent to %s as %s\n", ref, profile.FriendlyDisplay())
				return nil
			}

			sent, profile, err := app.dispatcher.Send(cmd.Context(), application.SendRequest{
				Ref:      ref,
				Text:     text,
				FilePath: file,
				ReplyTo:  replyTo,
			})
			if err = app.persistDispatch(cmd.Context(), err); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "message %d sent to %s as %s\n", sent.ID, ref, profile.FriendlyDisplay())
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "message text (also the caption when --file is set)")
	cmd.Flags().StringVar(&file, "file", "", "path of a file to attach")
	cmd.Flags().Int64Var(&replyTo, "reply-to", 0, "message id to reply to")
	cmd.Flags().StringVar(&sticker, "sticker", "", "sticker as <set-short-name>:<document-id>")

	return cmd
}

func parseStickerArg(raw string) (ports.Sticker, error) {
	set, doc, ok := strings.Cut(raw, ":")
	if !ok || set == "" {
		return ports.Sticker{}, fmt.Errorf("sticker %q: want <set-short-name>:<document-id>", raw)
	}
	docID, err := strconv.ParseInt(doc, 10, 64)
	if err != nil {
		return ports.Sticker{}, fmt.Errorf("sticker %q: parse document id: %w", raw, err)
	}
	return ports.Sticker{SetShortName: set, DocumentID: docID}, nil
}
