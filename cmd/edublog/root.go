package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	app        *app
}

// close releases the app built for the command, if any. It runs even when
// the command fails.
func (o *rootOptions) close() {
	if o.app != nil {
		o.app.close()
		o.app = nil
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "edublog",
		Short:         "Read and manage the school blog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// help and completion need no backend
			if cmd.RunE == nil {
				return nil
			}
			a, err := newApp(cmd.Context(), opts.configPath, opts.logLevel)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "edublog.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log_level from the config file")

	cmd.AddCommand(
		newWhoamiCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRegisterCmd(opts),
		newFeedCmd(opts),
		newWatchCmd(opts),
		newShowCmd(opts),
		newLikeCmd(opts),
		newCommentCmd(opts),
		newPostCmd(opts),
		newAccountsCmd(opts),
	)

	return cmd
}
