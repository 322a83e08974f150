package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"edublog/internal/service"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts (login required)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				accounts, err := opts.app.accounts.List(cmd.Context())
				if err != nil {
					return err
				}
				return renderAccounts(cmd.OutOrStdout(), accounts)
			},
		},
		&cobra.Command{
			Use:   "show <account-id>",
			Short: "Show one account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.app.accounts.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderAccount(cmd.OutOrStdout(), a)
				return nil
			},
		},
		newAccountCreateCmd(opts),
		newAccountEditCmd(opts),
		&cobra.Command{
			Use:   "delete <account-id>",
			Short: "Delete an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.app.accounts.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "account deleted")
				return nil
			},
		},
	)
	return cmd
}

func newAccountCreateCmd(opts *rootOptions) *cobra.Command {
	var form service.AccountForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app.accounts.Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s created\n", a.ID)
			return nil
		},
	}

	accountFlags(cmd, &form.Name, &form.Email, &form.Secret)
	return cmd
}

func newAccountEditCmd(opts *rootOptions) *cobra.Command {
	var (
		form   service.AccountUpdateForm
		secret string
	)

	cmd := &cobra.Command{
		Use:   "edit <account-id>",
		Short: "Change name and email, and optionally the password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if form.Name == "" || form.Email == "" {
				current, err := opts.app.accounts.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if form.Name == "" {
					form.Name = current.Name
				}
				if form.Email == "" {
					form.Email = current.Email
				}
			}
			if cmd.Flags().Changed("password") {
				form.Secret = &secret
			}

			if _, err := opts.app.accounts.Update(ctx, args[0], form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account updated")
			return nil
		},
	}

	accountFlags(cmd, &form.Name, &form.Email, &secret)
	return cmd
}
