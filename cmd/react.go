package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/domain"
)

func newReactCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react <ref> <message-id> <emoji>",
		Short: "Put an emoji reaction on a message",
		Long:  "React to a message through the next rotation account. A repeat of the same emoji from the same account on the same message is blocked locally without a remote call.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse message id %q: %w", args[1], err)
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			outcome, err := app.dispatcher.React(cmd.Context(), domain.ChatRef(args[0]), messageID, args[2])
			if err = app.persistDispatch(cmd.Context(), err); err != nil {
				return err
			}
			if outcome.Duplicate {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already reacted %s on message %d, skipped\n",
					outcome.Profile.FriendlyDisplay(), args[2], messageID)
				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reacted %s on message %d as %s\n",
				args[2], messageID, outcome.Profile.FriendlyDisplay())
			return nil
		},
	}

	cmd.AddCommand(newReactAllowedCmd(app))

	return cmd
}

func newReactAllowedCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "allowed <ref>",
		Short: "List the reactions a chat permits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			emojis, err := app.dispatcher.AllowedReactions(cmd.Context(), domain.ChatRef(args[0]))
			if err != nil {
				return err
			}
			if len(emojis) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "any reaction allowed")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(emojis, " "))
			return nil
		},
	}
}
