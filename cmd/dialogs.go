package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDialogsCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dialogs",
		Short: "List the viewing account's recent chats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			dialogs, err := app.dispatcher.Dialogs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(dialogs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no dialogs")
				return nil
			}

			for _, d := range dialogs {
				line := fmt.Sprintf("%s\t%s", d.Ref, d.Title)
				if d.Unread > 0 {
					line += fmt.Sprintf("\t(%d unread)", d.Unread)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", app.cfg.DialogLimit, "max dialogs to list")

	return cmd
}
