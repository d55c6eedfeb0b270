// cmd/keyfc/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keyfc/bbs/internal/cli"
)

func main() {
	// Cancel in-flight requests on interrupt; Execute still closes the application
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
