package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"edublog/internal/service"
	"edublog/internal/session"
)

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.app.session.Current(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if sess == nil {
				fmt.Fprintln(out, "not logged in")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\n", sess.Name, sess.Email)
			return nil
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	form := &session.LoginForm{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Secret == "" {
				secret, err := prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
				form.Secret = secret
			}

			sess, err := opts.app.session.Login(cmd.Context(), form)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", sess.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Secret, "password", "", "account password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session stored on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var form service.AccountForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account for publishing posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app.accounts.Register(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s created, you can log in now\n", a.Email)
			return nil
		},
	}

	accountFlags(cmd, &form.Name, &form.Email, &form.Secret)
	return cmd
}

func accountFlags(cmd *cobra.Command, name, email, secret *string) {
	cmd.Flags().StringVar(name, "name", "", "display name")
	cmd.Flags().StringVar(email, "email", "", "email")
	cmd.Flags().StringVar(secret, "password", "", "password")
}

// prompt reads one line from the command's input.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
