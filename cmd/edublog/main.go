package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"edublog/internal/api"
	"edublog/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := &rootOptions{}
	cmd, err := newRootCmd(opts).ExecuteContextC(ctx)
	opts.close()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", domain.UserMessage(err, err.Error()))
		if api.IsUnauthorized(err) && (cmd == nil || cmd.Name() != "login") {
			fmt.Fprintln(os.Stderr, "run `edublog login` and try again")
		}
		stop()
		os.Exit(1)
	}
}
