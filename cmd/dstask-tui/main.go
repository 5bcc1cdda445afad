package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/handiism/dstask/internal/config"
	"github.com/handiism/dstask/internal/tui"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to config file")
		envFlag     = flag.String("env-file", ".env", "Path to a .env file with DSTASK_* overrides")
		hostFlag    = flag.String("host", "", "Download Station address")
		accountFlag = flag.String("account", "", "Account name")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
	)
	flag.Parse()

	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := settings.ApplyEnv(*envFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		os.Exit(1)
	}
	if *hostFlag != "" {
		settings.Host = *hostFlag
	}
	if *accountFlag != "" {
		settings.Account = *accountFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tui.Run(ctx, settings, *verboseFlag); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
