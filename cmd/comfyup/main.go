// Package main is the entry point for the comfyup CLI.
//
// comfyup leases a ComfyUI workload on Comput3 and provisions it: custom
// nodes and models from the manager catalog, GitHub extensions, a manager
// reboot, then models fetched by URL.
//
// Commands: run, resolve, reboot, init, report.
//
// For detailed usage information, run:
//
//	comfyup --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/comfyup/comfyup/cmd/comfyup/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
