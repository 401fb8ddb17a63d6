package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	gettokencmd "github.com/owleyeart/bba/pkg/gettoken/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := gettokencmd.DefaultConfig()
	cfg.Context = ctx
	root := gettokencmd.NewRootCommand(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		// Acquisition failures were already reported on stdout.
		if !errors.Is(err, gettokencmd.ErrTokenAcquisition) {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
