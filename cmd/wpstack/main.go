package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ksyq12/wpstack/internal/cli"
)

// version is set by goreleaser via ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cli.SetVersion(version)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
