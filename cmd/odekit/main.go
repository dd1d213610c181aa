// Package main provides the odekit command line interface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phaseplane/odekit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
