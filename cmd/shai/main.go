package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/shai-go/internal/infrastructure/cli"
	"github.com/doeshing/shai-go/internal/pkg/tracing"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tracing.Enabled() {
		shutdown, err := tracing.Init(os.Stderr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: tracing disabled:", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	opts := cli.Options{Verbose: isVerbose(os.Args[1:])}
	root, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return cli.ExitGeneral
	}

	if err := root.ExecuteContext(ctx); err != nil {
		if !cli.IsSilent(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--debug" {
			return true
		}
	}
	value := os.Getenv("SHAI_DEBUG")
	return strings.EqualFold(value, "1") || strings.EqualFold(value, "true")
}
