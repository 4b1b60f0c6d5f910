package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/kouka/internal/config"
	"github.com/arloliu/kouka/internal/runner"
)

func main() {
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runner.New(cfg, os.Stdin, os.Stdout, os.Stderr).Run(ctx)
}
