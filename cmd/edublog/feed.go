package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"edublog/internal/domain"
	"edublog/internal/scheduler"
	"edublog/internal/service"
)

func newFeedCmd(opts *rootOptions) *cobra.Command {
	var (
		query string
		pages int
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loader := opts.app.loader

			if _, err := loader.Refresh(ctx); err != nil {
				return err
			}
			for i := 1; i < pages && loader.HasMore(); i++ {
				if _, err := loader.Next(ctx); err != nil {
					return err
				}
			}

			renderPosts(cmd.OutOrStdout(), loader.Filter(query))
			if loader.HasMore() {
				fmt.Fprintf(cmd.ErrOrStderr(), "more posts available, use --pages %d\n", loader.Page()+1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "only show posts whose title, body or author contains this text")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")

	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print new posts as they appear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app
			out := cmd.OutOrStdout()

			if _, err := a.loader.Refresh(ctx); err != nil {
				return err
			}
			renderPosts(out, a.loader.Items())

			if interval <= 0 {
				interval = a.cfg.Feed.WatchInterval
			}

			sched := scheduler.NewScheduler(a.loader, scheduler.Config{
				Interval: interval,
				Timeout:  a.cfg.Feed.PollTimeout,
				OnResult: func(stats *domain.PollStats, err error) {
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "poll failed:", domain.UserMessage(err, "could not load posts"))
						return
					}
					for _, p := range stats.Added {
						renderPostLine(out, p)
					}
				},
			}, a.logger)

			if err := sched.Start(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (defaults to feed.watch_interval)")

	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := opts.app.posts.Get(ctx, args[0])
			if err != nil {
				return err
			}
			liked, err := opts.app.posts.Liked(ctx, p.ID)
			if err != nil {
				return err
			}

			renderPost(cmd.OutOrStdout(), p, liked)
			return nil
		},
	}
}

func newLikeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post (once per device)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			likes, err := opts.app.posts.Like(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "liked, the post now has %s\n", plural(likes, "like"))
			return nil
		},
	}
}

func newCommentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := service.CommentForm{Body: strings.Join(args[1:], " ")}

			if _, err := opts.app.posts.Comment(cmd.Context(), args[0], form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "comment added")
			return nil
		},
	}
}
