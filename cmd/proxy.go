package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func newProxyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage the proxy pool and session assignments",
	}

	cmd.AddCommand(
		newProxyLoadCmd(app),
		newProxyStatusCmd(app),
	)

	return cmd
}

func newProxyLoadCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the proxy pool from a list file, one proxy per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open proxy list: %w", err)
			}
			defer func() { _ = file.Close() }()

			sessions, err := app.sessions.List()
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			report, err := app.proxies.LoadPool(cmd.Context(), file, sessions)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "proxies: %d loaded, %d skipped, %d session(s) assigned\n",
				report.Parsed, report.Skipped, report.Assigned)
			return nil
		},
	}
}

func newProxyStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the pool and which proxy each session uses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.proxies.Config(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cfg.Pool) == 0 {
				_, _ = fmt.Fprintln(out, "proxy pool is empty; load one with `tgherd proxy load <file>`")
				return nil
			}

			for i, desc := range cfg.Pool {
				_, _ = fmt.Fprintf(out, "[%d] %s\n", i, desc.Addr())
			}

			sessions := make([]string, 0, len(cfg.BySession))
			for session := range cfg.BySession {
				sessions = append(sessions, session)
			}
			sort.Strings(sessions)
			for _, session := range sessions {
				idx := cfg.BySession[session]
				if idx < 0 || idx >= len(cfg.Pool) {
					continue
				}
				_, _ = fmt.Fprintf(out, "%s -> %s\n", session, cfg.Pool[idx].Addr())
			}

			return nil
		},
	}
}
