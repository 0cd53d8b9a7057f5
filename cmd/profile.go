package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/domain"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change an account's public profile",
	}

	cmd.AddCommand(
		newProfileNameCmd(app),
		newProfileUsernameCmd(app),
		newProfileAvatarCmd(app),
	)

	return cmd
}

func newProfileNameCmd(app *app) *cobra.Command {
	var lastName string

	cmd := &cobra.Command{
		Use:   "name <user-id> <first-name>",
		Short: "Set an account's first (and optionally last) name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}
			if err := app.dispatcher.ChangeName(cmd.Context(), id, args[1], lastName); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "name updated for account %d\n", int64(id))
			return nil
		},
	}

	cmd.Flags().StringVar(&lastName, "last", "", "last name, empty clears it")

	return cmd
}

func newProfileUsernameCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "username <user-id> <username>",
		Short: "Set an account's public username",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}
			if err := app.dispatcher.ChangeUsername(cmd.Context(), id, args[1]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "username updated for account %d\n", int64(id))
			return nil
		},
	}
}

func newProfileAvatarCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <user-id> <image-path>",
		Short: "Upload a new profile photo for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}
			if err := app.dispatcher.ChangeAvatar(cmd.Context(), id, args[1]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "avatar updated for account %d\n", int64(id))
			return nil
		},
	}
}

func parseUserID(raw string) (domain.UserID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id %q: %w", raw, err)
	}
	return domain.UserID(id), nil
}
