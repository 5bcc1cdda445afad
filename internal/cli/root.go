// Package cli defines Cobra command definitions for the dstask CLI.
// This file contains the root command, global flags and client wiring.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/handiism/dstask/internal/app"
	"github.com/handiism/dstask/internal/config"
	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/dsm"
)

var version = "dev" // set via ldflags at build time

// options holds the global flags and the streams commands use.
type options struct {
	configPath string
	envFile    string
	host       string
	account    string
	insecure   bool
	noCache    bool
	verbose    bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// transport replaces the HTTP transport in tests.
	transport dsm.Transport
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{in: os.Stdin, out: os.Stdout, errOut: os.Stderr})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "dstask",
		Short: "Manage Download Station tasks from the terminal",
		Long: `dstask talks to a Synology Download Station: it lists, creates and
controls download tasks, caching the login session per host so repeated
commands do not log in again.

For the interactive task table, use dstask-tui.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file with DSTASK_* overrides")
	flags.StringVar(&opts.host, "host", "", "Download Station address, e.g. https://nas.local:5001")
	flags.StringVar(&opts.account, "account", "", "Account name")
	flags.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the session cache")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Show verbose output")

	root.AddCommand(
		newListCmd(opts),
		newInfoCmd(opts),
		newCreateCmd(opts),
		newPauseCmd(opts),
		newResumeCmd(opts),
		newCompleteCmd(opts),
		newDeleteCmd(opts),
		newClearCmd(opts),
		newAuthCheckCmd(opts),
		newLogoutCmd(opts),
		newSessionCmd(opts),
	)
	return root
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, credentials.ErrAborted) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// settings loads the config file, then .env and environment, then flags.
func (o *options) settings() (*config.Settings, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	s, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(o.envFile); err != nil {
		return nil, err
	}

	if o.host != "" {
		s.Host = o.host
	}
	if o.account != "" {
		s.Account = o.account
	}
	if o.insecure {
		s.Insecure = true
	}
	if o.noCache {
		s.CacheSession = false
	}
	return s, nil
}

func (o *options) prompter() credentials.Prompter {
	if f, ok := o.in.(*os.File); ok {
		return credentials.NewTerminalPrompter(f, o.errOut)
	}
	return credentials.NewReaderPrompter(o.in, o.errOut)
}

// connect builds the client and logs in.
func (o *options) connect(ctx context.Context) (*app.App, error) {
	s, err := o.settings()
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, app.Options{
		Settings:  s,
		Prompter:  o.prompter(),
		Report:    printer(o.errOut, o.verbose),
		Transport: o.transport,
	})
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
