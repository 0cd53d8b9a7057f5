package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/domain"
)

func newPinCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Manage pinned chat references",
	}

	cmd.AddCommand(
		newPinAddCmd(app),
		newPinRemoveCmd(app),
		newPinListCmd(app),
	)

	return cmd
}

func newPinAddCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ref>",
		Short: "Pin a chat reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := domain.ChatRef(args[0])
			added, err := app.dispatcher.Pin(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if !added {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already pinned\n", ref)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pinned %s\n", ref)
			return nil
		},
	}
}

func newPinRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <ref>",
		Short: "Unpin a chat reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := domain.ChatRef(args[0])
			removed, err := app.dispatcher.Unpin(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if !removed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s was not pinned\n", ref)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "unpinned %s\n", ref)
			return nil
		},
	}
}

func newPinListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pinned chat references",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pins, err := app.dispatcher.Pins(cmd.Context())
			if err != nil {
				return err
			}
			if len(pins) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no pinned chats")
				return nil
			}
			for _, ref := range pins {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(ref))
			}
			return nil
		},
	}
}
