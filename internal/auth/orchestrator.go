package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/dsm"
	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/session"
	"github.com/handiism/dstask/internal/status"
)

// ErrConfig marks configuration errors: an empty account or password, or
// a malformed host. They are never retried automatically.
var ErrConfig = errors.New("configuration error")

// Phase is the orchestrator state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAuthenticating
	PhaseNeedOTP
	PhaseAuthenticated
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseNeedOTP:
		return "need-otp"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Service is the part of the service client the orchestrator drives.
// *dsm.Client satisfies it.
type Service interface {
	Login(ctx context.Context, id model.Identity) (string, error)
	Logout(ctx context.Context) error
	Token() string
	SetToken(token string)
	ClearToken()
}

// Orchestrator runs the login state machine for one host.
type Orchestrator struct {
	service  Service
	resolver *credentials.Resolver
	store    session.Store
	hostKey  string
	report   status.Sink

	mu           sync.Mutex
	phase        Phase
	account      string
	promptedOnce bool
	record       model.SessionRecord
	loaded       bool
}

// New creates an Orchestrator for hostKey.
func New(service Service, resolver *credentials.Resolver, store session.Store, hostKey string, report status.Sink) *Orchestrator {
	return &Orchestrator{
		service:  service,
		resolver: resolver,
		store:    store,
		hostKey:  session.NormalizeHost(hostKey),
		report:   report,
	}
}

// Phase returns the current state.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// HostKey returns the normalized host this orchestrator serves.
func (o *Orchestrator) HostKey() string {
	return o.hostKey
}

// Account returns the account of the last successful login, or the
// cached one.
func (o *Orchestrator) Account() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.account != "" {
		return o.account
	}
	return o.record.Account
}

// Record returns a copy of the working session record.
func (o *Orchestrator) Record() model.SessionRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ensureLoaded()
	return o.record
}

// Login establishes a session.
//
// A cached token is adopted without a remote call when no provider is
// configured; it is verified by the first real request. Otherwise the
// identity is resolved and the login loop runs until it succeeds, a
// configuration error occurs or the user cancels.
func (o *Orchestrator) Login(ctx context.Context) error {
	o.mu.Lock()
	o.ensureLoaded()
	rec := o.record
	o.mu.Unlock()

	res, err := o.resolver.Resolve(ctx, &rec)
	if err != nil {
		o.setPhase(PhaseFailed)
		return err
	}
	if res.ReuseToken {
		o.service.SetToken(rec.SessionToken)
		o.mu.Lock()
		o.phase = PhaseAuthenticated
		o.mu.Unlock()
		o.report.Verbosef("Reusing cached session for %s", o.hostKey)
		return nil
	}
	return o.authenticate(ctx, res.Identity)
}

// Reauthenticate handles an expired session: the token is dropped locally
// and from the cache, and the full resolution and login sequence runs
// again.
func (o *Orchestrator) Reauthenticate(ctx context.Context) error {
	o.service.ClearToken()
	o.persist(func(r *model.SessionRecord) { r.SessionToken = "" })
	o.setPhase(PhaseIdle)
	o.report.Verbosef("Session expired, logging in again")

	rec := o.Record()
	id, err := o.resolver.Identity(ctx, &rec)
	if err != nil {
		o.setPhase(PhaseFailed)
		return err
	}
	return o.authenticate(ctx, id)
}

// Logout ends the remote session and forgets the cached token.
func (o *Orchestrator) Logout(ctx context.Context) error {
	var err error
	if o.service.Token() != "" {
		err = o.service.Logout(ctx)
	}
	o.service.ClearToken()
	o.persist(func(r *model.SessionRecord) { r.SessionToken = "" })
	o.setPhase(PhaseIdle)
	return err
}

// DefaultDestination returns the cached destination, if any.
func (o *Orchestrator) DefaultDestination() string {
	return o.Record().DefaultDestination
}

// RememberDestination caches a destination confirmed by a successful
// task creation.
func (o *Orchestrator) RememberDestination(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	o.persist(func(r *model.SessionRecord) { r.DefaultDestination = path })
}

// CaptureDestination caches path only when no destination is cached yet.
// It reports whether it wrote anything.
func (o *Orchestrator) CaptureDestination(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" || o.DefaultDestination() != "" {
		return false
	}
	wrote := false
	o.persist(func(r *model.SessionRecord) {
		if r.DefaultDestination == "" {
			r.DefaultDestination = path
			wrote = true
		}
	})
	return wrote
}

func (o *Orchestrator) authenticate(ctx context.Context, id model.Identity) error {
	refreshed := false

	o.mu.Lock()
	o.promptedOnce = false
	o.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			o.setPhase(PhaseFailed)
			return err
		}

		o.setPhase(PhaseAuthenticating)
		sid, err := o.service.Login(ctx, id)

		switch {
		case err == nil:
			o.mu.Lock()
			o.phase = PhaseAuthenticated
			o.account = id.Account
			o.promptedOnce = false
			o.mu.Unlock()
			o.persist(func(r *model.SessionRecord) {
				r.SessionToken = sid
				r.Account = id.Account
			})
			o.report.Successf("Logged in to %s as %s", o.hostKey, id.Account)
			return nil

		case errors.Is(err, dsm.ErrMissingCredentials):
			o.setPhase(PhaseFailed)
			return fmt.Errorf("%w: %v", ErrConfig, err)

		case dsm.IsOTPRequired(err):
			o.setPhase(PhaseNeedOTP)

			if o.resolver.HasProvider() && !refreshed {
				refreshed = true
				if code, ok := o.resolver.FreshCode(ctx); ok {
					id.OTPCode = code
					continue
				}
			}

			o.mu.Lock()
			prompted := o.promptedOnce
			o.promptedOnce = true
			o.mu.Unlock()

			if !prompted {
				code, perr := o.resolver.PromptCode(ctx)
				if perr != nil {
					o.setPhase(PhaseFailed)
					return perr
				}
				id.OTPCode = code
				continue
			}

			o.fail(err)
			next, perr := o.resolver.Reprompt(ctx, id.Account)
			if perr != nil {
				return perr
			}
			id, refreshed = next, false
			o.mu.Lock()
			o.promptedOnce = false
			o.mu.Unlock()

		default:
			if _, remote := dsm.Code(err); !remote {
				o.setPhase(PhaseFailed)
				return err
			}

			o.fail(err)
			next, perr := o.resolver.Reprompt(ctx, id.Account)
			if perr != nil {
				return perr
			}
			id, refreshed = next, false
			o.mu.Lock()
			o.promptedOnce = false
			o.mu.Unlock()
		}
	}
}

// fail records a rejected login: the phase becomes Failed, the cached
// token is dropped and the error is reported.
func (o *Orchestrator) fail(err error) {
	o.setPhase(PhaseFailed)
	o.service.ClearToken()
	o.persist(func(r *model.SessionRecord) { r.SessionToken = "" })
	o.report.Errorf("Login failed: %v", err)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// ensureLoaded reads the cached record once. Callers hold o.mu.
func (o *Orchestrator) ensureLoaded() {
	if o.loaded {
		return
	}
	o.loaded = true
	o.record = model.SessionRecord{HostKey: o.hostKey}

	rec, err := o.store.Load(o.hostKey)
	if err != nil {
		o.report.Warnf("Session cache unreadable: %v", err)
		return
	}
	if rec != nil {
		o.record = *rec
	}
}

// persist applies fn to the working record and writes it to the store.
// Store failures are reported, not returned: the in-memory session keeps
// working.
func (o *Orchestrator) persist(fn func(*model.SessionRecord)) {
	o.mu.Lock()
	o.ensureLoaded()
	rec := o.record
	fn(&rec)
	rec.HostKey = o.hostKey
	if rec == o.record {
		o.mu.Unlock()
		return
	}
	o.record = rec
	err := o.store.Save(o.hostKey, rec)
	o.mu.Unlock()

	if err != nil {
		o.report.Warnf("Could not save session cache: %v", err)
	}
}
