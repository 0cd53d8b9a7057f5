package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/domain"
)

func newChatCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read chats with the viewing account",
	}

	cmd.AddCommand(
		newChatOpenCmd(app),
		newChatDownloadCmd(app),
	)

	return cmd
}

func newChatOpenCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "open <ref>",
		Short: "Resolve a chat and show its recent history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			entity, history, err := app.dispatcher.OpenChat(cmd.Context(), domain.ChatRef(args[0]), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s (%s, id %d)\n", entity.DisplayTitle(), entity.Kind, entity.ID)
			if len(history) == 0 {
				_, _ = fmt.Fprintln(out, "no messages")
				return nil
			}
			for _, m := range history {
				_, _ = fmt.Fprintln(out, formatMessage(m))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", app.cfg.HistoryLimit, "max messages to fetch")

	return cmd
}

func newChatDownloadCmd(app *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <ref> <message-id>",
		Short: "Download the media attached to a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse message id %q: %w", args[1], err)
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			path, err := app.dispatcher.Download(cmd.Context(), domain.ChatRef(args[0]), messageID, dir)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to save into")

	return cmd
}
