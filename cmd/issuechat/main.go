/*
Package main is the entry point for the issuechat CLI.

Usage:

	issuechat [command]

Available Commands:

	chat        Start the interactive session (default)
	ingest      Re-index the issues of a repository
	search      Similarity search over the indexed issues
	ask         Answer a single question
	notes       List the notes saved by the agent

Configuration is read from the environment and an optional .env file.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/cli"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/config"
)

// version is set via ldflags during build.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return apperr.ExitCode(err)
	}
	app.SetupLogging(os.Stderr, cfg.LogLevel)

	fmt.Println("Connecting to vector store...")
	c, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return apperr.ExitCode(err)
	}
	defer c.Close()

	if err := cli.NewRootCommand(c, version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return apperr.ExitCode(err)
	}
	return apperr.ExitOK
}
