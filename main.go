// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/dashverify/cmd"
)

// main is the entry point for the dashverify CLI.
func main() {
	// SIGINT/SIGTERM cancel the running scripts; sessions are still released
	// and failure screenshots still taken on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
