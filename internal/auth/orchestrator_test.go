package auth_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/dstask/internal/auth"
	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/dsm"
	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/session"
	"github.com/handiism/dstask/internal/testutil"
)

type loginResult struct {
	sid string
	err error
}

// fakeService answers Login from a queue of results.
type fakeService struct {
	mu      sync.Mutex
	results []loginResult
	logins  []model.Identity
	token   string
	logouts int
}

func (f *fakeService) Login(_ context.Context, id model.Identity) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, id)
	if len(f.results) == 0 {
		return "", errors.New("unexpected login")
	}
	r := f.results[0]
	f.results = f.results[1:]
	if r.err == nil {
		f.token = r.sid
	}
	return r.sid, r.err
}

func (f *fakeService) Logout(context.Context) error {
	f.logouts++
	f.token = ""
	return nil
}

func (f *fakeService) Token() string { return f.token }

func (f *fakeService) SetToken(t string) { f.token = t }

func (f *fakeService) ClearToken() { f.token = "" }

func apiErr(code int) error {
	return &dsm.APIError{API: "SYNO.API.Auth", Method: "login", Code: code}
}

func ok(sid string) loginResult   { return loginResult{sid: sid} }
func fails(err error) loginResult { return loginResult{err: err} }

func TestLogin_ScenarioA_PromptsAndPersists(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	svc := &fakeService{results: []loginResult{ok("tok-1")}}
	prompter := testutil.NewScriptedPrompter("alice", "s3cret")
	o := auth.New(svc, credentials.NewResolver(prompter), store, "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))

	assert.Equal(t, auth.PhaseAuthenticated, o.Phase())
	assert.Equal(t, "tok-1", svc.Token())
	require.Len(t, svc.logins, 1)
	assert.Equal(t, model.Identity{Account: "alice", Secret: "s3cret"}, svc.logins[0])

	rec, err := store.Load("nas.local")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "nas.local", rec.HostKey)
	assert.Equal(t, "alice", rec.Account)
	assert.Equal(t, "tok-1", rec.SessionToken)
}

func TestLogin_ReusesCachedToken(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save("nas.local", model.SessionRecord{SessionToken: "cached", Account: "alice"}))
	svc := &fakeService{}
	prompter := testutil.NewScriptedPrompter()
	o := auth.New(svc, credentials.NewResolver(prompter), store, "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))

	assert.Equal(t, "cached", svc.Token())
	assert.Empty(t, svc.logins)
	assert.Zero(t, prompter.Count())
	assert.Equal(t, "alice", o.Account())
}

func TestReauthenticate_ScenarioB(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save("nas.local", model.SessionRecord{SessionToken: "stale", Account: "alice"}))
	svc := &fakeService{results: []loginResult{ok("fresh")}}
	prompter := testutil.NewScriptedPrompter("", "s3cret")
	o := auth.New(svc, credentials.NewResolver(prompter), store, "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))
	assert.Equal(t, "stale", svc.Token())

	require.NoError(t, o.Reauthenticate(context.Background()))

	assert.Equal(t, "alice", prompter.Defaults[0], "cached account offered as default")
	require.Len(t, svc.logins, 1)
	assert.Equal(t, "alice", svc.logins[0].Account)

	rec, err := store.Load("nas.local")
	require.NoError(t, err)
	assert.Equal(t, "fresh", rec.SessionToken)
}

func TestLogin_OTPPromptedOnce(t *testing.T) {
	svc := &fakeService{results: []loginResult{fails(apiErr(403)), ok("tok")}}
	prompter := testutil.NewScriptedPrompter("alice", "pw", "123456")
	o := auth.New(svc, credentials.NewResolver(prompter), session.NewMemoryStore(), "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))

	require.Len(t, svc.logins, 2)
	assert.Empty(t, svc.logins[0].OTPCode)
	assert.Equal(t, "123456", svc.logins[1].OTPCode)
	assert.Equal(t, auth.PhaseAuthenticated, o.Phase())
}

func TestLogin_OTPEmptyCodeCancels(t *testing.T) {
	svc := &fakeService{results: []loginResult{fails(apiErr(403))}}
	prompter := testutil.NewScriptedPrompter("alice", "pw", "")
	o := auth.New(svc, credentials.NewResolver(prompter), session.NewMemoryStore(), "nas.local", nil)

	err := o.Login(context.Background())
	assert.ErrorIs(t, err, credentials.ErrAborted)
	assert.Equal(t, auth.PhaseFailed, o.Phase())
	assert.Len(t, svc.logins, 1)
}

func TestLogin_OTPRejectedTwiceClearsTokenAndReprompts(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save("nas.local", model.SessionRecord{SessionToken: "old", Account: "alice"}))

	svc := &fakeService{results: []loginResult{
		fails(apiErr(403)), // no code yet
		fails(apiErr(404)), // prompted code rejected
		ok("tok"),          // new credentials, no code needed
	}}
	provider := &testutil.FakeProvider{CodeErr: errors.New("op unreachable")}
	prompter := testutil.NewScriptedPrompter("alice", "pw", "000000", "", "pw2")
	resolver := credentials.NewResolver(prompter, credentials.WithProvider(provider, credentials.Reference{Item: "NAS"}))
	provider.Credential = credentials.Credential{}
	o := auth.New(svc, resolver, store, "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))

	require.Len(t, svc.logins, 3)
	assert.Equal(t, "000000", svc.logins[1].OTPCode)
	assert.Equal(t, "pw2", svc.logins[2].Secret)
	assert.Equal(t, 1, provider.CodeCalls, "provider refreshed once per identity")

	rec, _ := store.Load("nas.local")
	assert.Equal(t, "tok", rec.SessionToken)
}

func TestLogin_ProviderFreshCode(t *testing.T) {
	svc := &fakeService{results: []loginResult{fails(apiErr(404)), ok("tok")}}
	provider := &testutil.FakeProvider{
		Credential: credentials.Credential{Account: "alice", Secret: "pw", OTPCode: "111111"},
		Codes:      []string{"222222"},
	}
	prompter := testutil.NewScriptedPrompter()
	resolver := credentials.NewResolver(prompter, credentials.WithProvider(provider, credentials.Reference{Item: "NAS"}))
	o := auth.New(svc, resolver, session.NewMemoryStore(), "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))

	require.Len(t, svc.logins, 2)
	assert.Equal(t, "111111", svc.logins[0].OTPCode)
	assert.Equal(t, "222222", svc.logins[1].OTPCode)
	assert.Zero(t, prompter.Count())
}

func TestLogin_BadPasswordReprompts(t *testing.T) {
	store := session.NewMemoryStore()
	svc := &fakeService{results: []loginResult{fails(apiErr(400)), ok("tok")}}
	prompter := testutil.NewScriptedPrompter("alice", "wrong", "", "right")
	o := auth.New(svc, credentials.NewResolver(prompter), store, "nas.local", nil)

	require.NoError(t, o.Login(context.Background()))

	require.Len(t, svc.logins, 2)
	assert.Equal(t, "right", svc.logins[1].Secret)
	assert.Equal(t, "alice", prompter.Defaults[2], "account kept as default on reprompt")
}

func TestLogin_ConfigErrorIsReturned(t *testing.T) {
	svc := &fakeService{results: []loginResult{fails(dsm.ErrMissingCredentials)}}
	prompter := testutil.NewScriptedPrompter("alice", "")
	o := auth.New(svc, credentials.NewResolver(prompter), session.NewMemoryStore(), "nas.local", nil)

	err := o.Login(context.Background())
	assert.ErrorIs(t, err, auth.ErrConfig)
	assert.Equal(t, auth.PhaseFailed, o.Phase())
}

func TestLogin_TransportErrorNotRetried(t *testing.T) {
	boom := errors.New("connection refused")
	svc := &fakeService{results: []loginResult{fails(boom)}}
	prompter := testutil.NewScriptedPrompter("alice", "pw")
	o := auth.New(svc, credentials.NewResolver(prompter), session.NewMemoryStore(), "nas.local", nil)

	err := o.Login(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, svc.logins, 1)
}

func TestDestinations(t *testing.T) {
	store := session.NewMemoryStore()
	o := auth.New(&fakeService{}, credentials.NewResolver(testutil.NewScriptedPrompter()), store, "NAS.local/", nil)

	assert.True(t, o.CaptureDestination("/volume1/downloads"))
	assert.False(t, o.CaptureDestination("/volume1/other"), "capture never overwrites")

	o.RememberDestination("/volume1/explicit")
	assert.Equal(t, "/volume1/explicit", o.DefaultDestination())

	rec, err := store.Load("nas.local")
	require.NoError(t, err)
	assert.Equal(t, "/volume1/explicit", rec.DefaultDestination)
}

func TestLogout(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save("nas.local", model.SessionRecord{SessionToken: "tok", Account: "alice"}))
	svc := &fakeService{}
	o := auth.New(svc, credentials.NewResolver(testutil.NewScriptedPrompter()), store, "nas.local", nil)
	require.NoError(t, o.Login(context.Background()))

	require.NoError(t, o.Logout(context.Background()))
	assert.Equal(t, 1, svc.logouts)

	rec, _ := store.Load("nas.local")
	assert.Empty(t, rec.SessionToken)
	assert.Equal(t, "alice", rec.Account)
}
