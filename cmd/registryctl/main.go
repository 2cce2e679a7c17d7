// Package main is the entry point for registryctl, the operator tool for the
// institution registry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"intake/cmd/registryctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.New().Execute(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "registryctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}
