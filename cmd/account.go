package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/adapters/render/roster"
	"github.com/okhotin/tgherd/internal/domain"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the signed-in account roster",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountReloadCmd(app),
		newAccountRemoveCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the account roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if live {
				if err := app.ensureLoaded(cmd.Context()); err != nil {
					return err
				}
				return printLiveRoster(app, cmd)
			}

			profiles := app.registry.CachedProfiles(cmd.Context())
			output, err := roster.Render(rosterEntries(cmd.Context(), app, profiles), roster.RenderOptions{
				Mode:         string(app.selector.Mode()),
				AutoDispatch: app.selector.AutoDispatch(),
				Cached:       true,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "connect the stored sessions and show the live roster")

	return cmd
}

func newAccountReloadCmd(app *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Reconnect every stored session and rebuild the roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var loaded int
			err := runReloadSpinner(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context) error {
				var err error
				loaded, err = app.registry.ReloadAll(ctx, force, app.proxies)
				return err
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d account(s) connected\n", loaded)
			if loaded == 0 {
				return nil
			}
			return printLiveRoster(app, cmd)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "disconnect live accounts before reloading")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Disconnect an account and drop it from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}
			if _, ok := app.registry.Lookup(id); !ok {
				return domain.ErrAccountNotFound
			}

			app.registry.Evict(cmd.Context(), id, "removed by operator")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %d removed\n", int64(id))
			return nil
		},
	}
}

func printLiveRoster(app *app, cmd *cobra.Command) error {
	output, err := roster.Render(rosterEntries(cmd.Context(), app, app.registry.Profiles()), roster.RenderOptions{
		Mode:         string(app.selector.Mode()),
		AutoDispatch: app.selector.AutoDispatch(),
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func rosterEntries(ctx context.Context, app *app, profiles []domain.AccountProfile) []roster.Entry {
	var nextID domain.UserID
	if acc, ok := app.selector.PeekSend(); ok {
		nextID = acc.ID()
	}
	viewingID, hasViewing := app.selector.Viewing()

	entries := make([]roster.Entry, 0, len(profiles))
	for _, profile := range profiles {
		var proxy string
		if desc := app.proxies.ResolveForSession(ctx, profile.Session); desc != nil {
			proxy = desc.Addr()
		}
		entries = append(entries, roster.Entry{
			Profile:   profile,
			Proxy:     proxy,
			SendsNext: nextID != 0 && profile.UserID == nextID,
			Viewing:   hasViewing && profile.UserID == viewingID,
		})
	}
	return entries
}
