package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okhotin/tgherd/internal/application"
	"github.com/okhotin/tgherd/internal/domain"
)

func newCommentsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Work the comment thread under a broadcast channel post",
	}

	cmd.AddCommand(
		newCommentsListCmd(app),
		newCommentsSendCmd(app),
		newCommentsReactCmd(app),
		newCommentsWatchCmd(app),
	)

	return cmd
}

func newCommentsListCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <channel-ref> <post-id>",
		Short: "List the comments under a channel post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse post id %q: %w", args[1], err)
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			comments, err := app.dispatcher.Comments(cmd.Context(), domain.ChatRef(args[0]), postID, limit)
			if err != nil {
				return err
			}
			if len(comments) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no comments yet")
				return nil
			}
			for _, m := range comments {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatMessage(m))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", app.cfg.HistoryLimit, "max comments to fetch")

	return cmd
}

func newCommentsSendCmd(app *app) *cobra.Command {
	var (
		text    string
		file    string
		replyTo int64
	)

	cmd := &cobra.Command{
		Use:   "send <channel-ref> <post-id>",
		Short: "Post a comment under a channel post through the next rotation account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse post id %q: %w", args[1], err)
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			sent, profile, err := app.dispatcher.SendComment(cmd.Context(), domain.ChatRef(args[0]), postID, application.SendRequest{
				Ref:      domain.ChatRef(args[0]),
				Text:     text,
				FilePath: file,
				ReplyTo:  replyTo,
			})
			if err = app.persistDispatch(cmd.Context(), err); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "comment %d posted as %s\n", sent.ID, profile.FriendlyDisplay())
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "comment text (also the caption when --file is set)")
	cmd.Flags().StringVar(&file, "file", "", "path of a file to attach")
	cmd.Flags().Int64Var(&replyTo, "reply-to", 0, "comment id to reply to instead of the post itself")

	return cmd
}

func newCommentsReactCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "react <channel-ref> <comment-id> <emoji>",
		Short: "React to a comment in the discussion thread",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			commentID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse comment id %q: %w", args[1], err)
			}

			if err := app.ensureLoaded(cmd.Context()); err != nil {
				return err
			}

			outcome, err := app.dispatcher.ReactComment(cmd.Context(), domain.ChatRef(args[0]), commentID, args[2])
			if err = app.persistDispatch(cmd.Context(), err); err != nil {
				return err
			}
			if outcome.Duplicate {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already reacted %s on comment %d, skipped\n",
					outcome.Profile.FriendlyDisplay(), args[2], commentID)
				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reacted %s on comment %d as %s\n",
				args[2], commentID, outcome.Profile.FriendlyDisplay())
			return nil
		},
	}
}

func newCommentsWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <channel-ref> <post-id>",
		Short: "Stream new comments under a channel post until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse post id %q: %w", args[1], err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.ensureLoaded(ctx); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "watching comments on %s post %d, ^C to stop\n", args[0], postID)

			err = app.dispatcher.WatchComments(ctx, domain.ChatRef(args[0]), postID, app.cfg.WatchInterval, func(m domain.Message) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatMessage(m))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
