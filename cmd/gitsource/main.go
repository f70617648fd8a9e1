// Command gitsource is an operator tool for the repository cache: it parses
// repository URLs, resolves branches, runs commands in cached working trees
// and maintains the cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/chainguard-dev/clog"
)

// CLI is the command line.
type CLI struct {
	Config          string `help:"Path to a CUE config file." type:"path" env:"GITSOURCE_CONFIG"`
	LogLevel        string `help:"Override the configured log level (debug, info, warn, error)."`
	MetricsTextfile string `help:"Write Prometheus metrics to this file on exit." type:"path"`

	Parse   ParseCmd   `cmd:"" help:"Parse a repository URL and print its coordinates."`
	Resolve ResolveCmd `cmd:"" help:"Resolve a branch to the commit it points at."`
	Run     RunCmd     `cmd:"" help:"Run a command inside a cached working tree."`
	Prune   PruneCmd   `cmd:"" help:"Remove cache entries that have not been used recently."`
	GC      GCCmd      `cmd:"gc" help:"Prune the cache periodically until interrupted."`
	Stats   StatsCmd   `cmd:"" help:"Show cache statistics."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("gitsource"),
		kong.Description("Repository cache and branch resolver for CI builds."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, &cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx = clog.WithLogger(ctx, app.log)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(app)
	err = kctx.Run()

	if werr := app.writeMetrics(); werr != nil {
		app.log.Warnf("failed to write metrics: %v", werr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
