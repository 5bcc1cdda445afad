package credentials

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/session"
	"github.com/handiism/dstask/internal/status"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Identity is filled unless ReuseToken is set.
	Identity model.Identity

	// ReuseToken means the cached session token should be tried first;
	// Identity is left empty and resolved only if the token is rejected.
	ReuseToken bool
}

// Resolver produces identities for the auth orchestrator.
type Resolver struct {
	prompter       Prompter
	provider       Provider
	ref            Reference
	defaultAccount string
	report         status.Sink
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProvider configures the external credential provider.
// A nil provider or empty item leaves the provider disabled.
func WithProvider(p Provider, ref Reference) ResolverOption {
	return func(r *Resolver) {
		if p == nil || strings.TrimSpace(ref.Item) == "" {
			return
		}
		r.provider = p
		r.ref = ref
	}
}

// WithDefaultAccount sets the account offered when no cached one exists.
func WithDefaultAccount(account string) ResolverOption {
	return func(r *Resolver) { r.defaultAccount = strings.TrimSpace(account) }
}

// WithReporter sets the sink provider warnings are reported to.
func WithReporter(sink status.Sink) ResolverOption {
	return func(r *Resolver) { r.report = sink }
}

// NewResolver creates a Resolver prompting through p.
func NewResolver(p Prompter, opts ...ResolverOption) *Resolver {
	r := &Resolver{prompter: p}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasProvider reports whether an external provider is configured.
func (r *Resolver) HasProvider() bool {
	return r.provider != nil
}

// Resolve returns the identity for the first login attempt.
// rec may be nil when nothing is cached for the host.
func (r *Resolver) Resolve(ctx context.Context, rec *model.SessionRecord) (Resolution, error) {
	if rec.HasToken() && r.provider == nil {
		return Resolution{ReuseToken: true}, nil
	}
	id, err := r.Identity(ctx, rec)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Identity: id}, nil
}

// Identity resolves account and secret, ignoring any cached token.
func (r *Resolver) Identity(ctx context.Context, rec *model.SessionRecord) (model.Identity, error) {
	var id model.Identity

	if r.provider != nil {
		cred, err := r.provider.Fetch(ctx, r.ref)
		if err != nil {
			r.report.Warnf("%v; falling back to prompt", err)
		}
		id = model.Identity{Account: cred.Account, Secret: cred.Secret, OTPCode: cred.OTPCode}
	}

	return r.fill(ctx, id, r.accountDefault(rec))
}

// Reprompt asks for account and secret again after a rejected login.
// The provider is not consulted: it would return the same credentials.
func (r *Resolver) Reprompt(ctx context.Context, account string) (model.Identity, error) {
	return r.fill(ctx, model.Identity{}, account)
}

// FreshCode asks the provider for a new one-time code.
// It returns ok=false when no provider is configured or it failed.
func (r *Resolver) FreshCode(ctx context.Context) (string, bool) {
	if r.provider == nil {
		return "", false
	}
	code, err := r.provider.FetchFreshCode(ctx, r.ref)
	if err != nil {
		r.report.Warnf("%v", err)
		return "", false
	}
	return code, true
}

// PromptCode asks the user for a one-time code. An empty answer cancels.
func (r *Resolver) PromptCode(ctx context.Context) (string, error) {
	code, err := r.prompter.Prompt(ctx, "One-time code (empty to cancel)", "")
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", ErrAborted
	}
	return code, nil
}

// Host asks for the service address until it parses.
func (r *Resolver) Host(ctx context.Context, current string) (*url.URL, error) {
	for {
		raw, err := r.prompter.Prompt(ctx, "Host", current)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(raw) == "" {
			return nil, ErrAborted
		}
		u, err := session.ParseHost(raw)
		if err == nil {
			return u, nil
		}
		r.report.Errorf("%v", err)
		current = ""
	}
}

func (r *Resolver) fill(ctx context.Context, id model.Identity, account string) (model.Identity, error) {
	if id.Account == "" {
		a, err := r.prompter.Prompt(ctx, "Account", account)
		if err != nil {
			return model.Identity{}, fmt.Errorf("account: %w", err)
		}
		id.Account = a
	}
	if id.Secret == "" {
		s, err := r.prompter.PromptSecret(ctx, fmt.Sprintf("Password for %s", id.Account))
		if err != nil {
			return model.Identity{}, fmt.Errorf("password: %w", err)
		}
		id.Secret = s
	}
	return id, nil
}

func (r *Resolver) accountDefault(rec *model.SessionRecord) string {
	if rec != nil && rec.Account != "" {
		return rec.Account
	}
	return r.defaultAccount
}
