package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthewbaird/formbuilder/cmd/formbuilder/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
