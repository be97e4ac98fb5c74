// Command glreplay replays glstate call traces and reports where the
// recorded sequence diverges from the resource lifecycle rules.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// Exit codes.
const (
	exitSuccess  = 0
	exitFailed   = 1
	exitSysError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return exitCode(newRootCmd().ExecuteContext(ctx))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errReplayFailed):
		return exitFailed
	}
	fmt.Fprintln(os.Stderr, "glreplay:", err)
	return exitSysError
}
