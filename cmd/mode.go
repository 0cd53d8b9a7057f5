package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/domain"
)

func newModeCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or change how the acting account is picked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printDispatchState(app, cmd)
		},
	}

	cmd.AddCommand(
		newModeSetCmd(app),
		newModeAutoCmd(app),
		newModeAdvanceCmd(app),
		newModeViewCmd(app),
	)

	return cmd
}

func printDispatchState(app *app, cmd *cobra.Command) error {
	state := app.selector.Snapshot()
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "mode: %s\n", state.Mode)
	if state.Mode == domain.ModeManual {
		if state.ManualID != 0 {
			_, _ = fmt.Fprintf(out, "manual account: %d\n", int64(state.ManualID))
		} else {
			_, _ = fmt.Fprintln(out, "manual account: not set")
		}
	}

	dispatch := "auto"
	if !state.AutoDispatch {
		dispatch = "viewing-account"
	}
	_, _ = fmt.Fprintf(out, "dispatch: %s\n", dispatch)

	if state.ViewingID != 0 {
		_, _ = fmt.Fprintf(out, "viewing account: %d\n", int64(state.ViewingID))
	}
	_, _ = fmt.Fprintf(out, "advance on reaction: %v\n", state.AdvanceOnReaction)
	return nil
}

func newModeSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <sequential|random|manual> [user-id]",
		Short: "Set the selection mode; manual takes the pinned account id",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := domain.ParseMode(args[0])
			if !ok {
				return fmt.Errorf("unknown mode %q: want sequential, random or manual", args[0])
			}
			if mode == domain.ModeManual && len(args) < 2 {
				return fmt.Errorf("manual mode needs the account id to pin")
			}

			if len(args) == 2 {
				if mode != domain.ModeManual {
					return fmt.Errorf("only manual mode takes an account id")
				}
				raw, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("parse user id %q: %w", args[1], err)
				}
				app.selector.SetManual(domain.UserID(raw))
			}

			app.selector.SetMode(mode)
			if err := app.saveDispatch(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mode set to %s\n", mode)
			return nil
		},
	}
}

func newModeAutoCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auto <on|off>",
		Short: "Toggle auto dispatch; off routes sends through the viewing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}

			app.selector.SetAutoDispatch(on)
			if err := app.saveDispatch(cmd.Context()); err != nil {
				return err
			}

			if on {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "auto dispatch on")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "auto dispatch off, sends use the viewing account")
			}
			return nil
		},
	}
}

func newModeAdvanceCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance-on-reaction <on|off>",
		Short: "Toggle whether reactions rotate the round-robin cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}

			app.selector.SetAdvanceOnReaction(on)
			if err := app.saveDispatch(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "advance on reaction: %v\n", on)
			return nil
		},
	}
}

func newModeViewCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <user-id>",
		Short: "Bind the chat view to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse user id %q: %w", args[0], err)
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}
			if err := app.dispatcher.SetViewing(domain.UserID(raw)); err != nil {
				return err
			}
			if err := app.saveDispatch(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "viewing account set to %d\n", raw)
			return nil
		},
	}
}

func parseOnOff(raw string) (bool, error) {
	switch raw {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("want on or off, got %q", raw)
	}
}
