// Rescheduler 调班命令行
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/paiban/rescheduler/cmd/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCmd(&commands.AppContext{})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
