package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"edublog/internal/service"
)

func newPostCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create, edit and delete posts (login required)",
	}

	cmd.AddCommand(
		newPostCreateCmd(opts),
		newPostEditCmd(opts),
		newPostDeleteCmd(opts),
	)
	return cmd
}

func postFlags(cmd *cobra.Command, form *service.PostForm) {
	cmd.Flags().StringVar(&form.Title, "title", "", "post title")
	cmd.Flags().StringVar(&form.Body, "body", "", "post content")
}

func newPostCreateCmd(opts *rootOptions) *cobra.Command {
	var form service.PostForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a post under your name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.app.posts.Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "post %s published\n", p.ID)
			return nil
		},
	}

	postFlags(cmd, &form)
	return cmd
}

func newPostEditCmd(opts *rootOptions) *cobra.Command {
	var form service.PostForm

	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Replace the title and content of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// unset flags keep the current text
			if form.Title == "" || form.Body == "" {
				current, err := opts.app.posts.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if form.Title == "" {
					form.Title = current.Title
				}
				if form.Body == "" {
					form.Body = current.Body
				}
			}

			if _, err := opts.app.posts.Update(ctx, args[0], form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "post updated")
			return nil
		},
	}

	postFlags(cmd, &form)
	return cmd
}

func newPostDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.posts.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "post deleted")
			return nil
		},
	}
}
