// Package app wires settings, transport, session cache, credentials and
// the task manager into one connected client shared by the front ends.
package app

import (
	"context"
	"errors"
	"net/url"

	"github.com/handiism/dstask/internal/auth"
	"github.com/handiism/dstask/internal/config"
	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/download"
	"github.com/handiism/dstask/internal/dsm"
	httpclient "github.com/handiism/dstask/internal/http"
	"github.com/handiism/dstask/internal/session"
	"github.com/handiism/dstask/internal/status"
)

// Options configures New.
type Options struct {
	Settings *config.Settings
	Prompter credentials.Prompter
	Report   status.Sink

	// Transport overrides the HTTP transport.
	Transport dsm.Transport
	// Runner overrides how the 1Password CLI is executed.
	Runner credentials.Runner
}

// App is a client for one Download Station host.
type App struct {
	Settings *config.Settings
	Host     *url.URL
	Client   *dsm.Client
	Store    session.Store
	Resolver *credentials.Resolver
	Auth     *auth.Orchestrator
	Manager  *download.Manager

	report status.Sink
}

// New builds the client. An invalid or missing host is asked for again
// through the prompter.
func New(ctx context.Context, opts Options) (*App, error) {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}

	resolverOpts := []credentials.ResolverOption{
		credentials.WithDefaultAccount(settings.Account),
		credentials.WithReporter(opts.Report),
	}
	if settings.HasProvider() {
		run := opts.Runner
		if run == nil {
			run = credentials.ExecRunner
		}
		resolverOpts = append(resolverOpts, credentials.WithProvider(
			credentials.NewOnePassword(run),
			credentials.Reference{Item: settings.OnePasswordItem, Vault: settings.OnePasswordVault},
		))
	}
	resolver := credentials.NewResolver(opts.Prompter, resolverOpts...)

	host, err := session.ParseHost(settings.Host)
	if err != nil {
		if settings.Host != "" {
			opts.Report.Errorf("%v", err)
		}
		host, err = resolver.Host(ctx, settings.Host)
		if err != nil {
			return nil, err
		}
	}

	transport := opts.Transport
	if transport == nil {
		transport = httpclient.NewClient(httpclient.Options{
			Timeout:  settings.Timeout(),
			Insecure: settings.Insecure,
		})
	}

	client := dsm.NewClient(host, transport)
	store := session.Open(settings.SessionFile, settings.CacheSession)
	orchestrator := auth.New(client, resolver, store, session.NormalizeHost(host.String()), opts.Report)

	manager := download.NewManager(client, orchestrator, opts.Prompter, opts.Report)
	manager.SetFallbackDestination(settings.DefaultDestination)

	return &App{
		Settings: settings,
		Host:     host,
		Client:   client,
		Store:    store,
		Resolver: resolver,
		Auth:     orchestrator,
		Manager:  manager,
		report:   opts.Report,
	}, nil
}

// Connect logs in. Configuration errors are reported and the login is
// retried, which collects the missing input again; cancellation and
// transport errors are returned.
func (a *App) Connect(ctx context.Context) error {
	for {
		err := a.Auth.Login(ctx)
		if !errors.Is(err, auth.ErrConfig) {
			return err
		}
		a.report.Errorf("%v", err)
	}
}
