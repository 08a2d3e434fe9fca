package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vrchat-albums/cmd/vrchat-albums/commands"
	"vrchat-albums/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New()
	cli.SetArgs(args)

	if err := cli.Execute(ctx); err != nil {
		logging.Error("%v", err)
		_ = logging.Sync()
		return 1
	}
	return 0
}
