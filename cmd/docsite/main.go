package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

var (
	version = "v0.0.0"  // Set at build time via -ldflags "-X main.version=version"
	commit  = "none"    // Set at build time via -ldflags "-X main.commit=commit"
	date    = "unknown" // Set at build time via -ldflags "-X main.date=date"
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("docsite"),
		kong.Description("Serve and render a menu driven documentation site."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	if err := ctx.Run(&Global{CLI: &cli, Out: os.Stdout}); err != nil {
		slog.Error("command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
