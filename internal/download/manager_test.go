package download_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/download"
	"github.com/handiism/dstask/internal/dsm"
	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/status"
	"github.com/handiism/dstask/internal/testutil"
)

func expired() error {
	return &dsm.APIError{API: "SYNO.DownloadStation2.Task", Method: "list", Code: dsm.CodeSessionTimeout}
}

func destinationRequired() error {
	return &dsm.APIError{API: "SYNO.DownloadStation2.Task", Method: "create", Code: dsm.CodeTaskNoDefaultDest}
}

// fakeService pops one error per call from errs; nil means success.
type fakeService struct {
	mu       sync.Mutex
	errs     []error
	tasks    []model.Task
	calls    int
	dests    []string
	paused   []string
	block    chan struct{}
	entered  chan struct{}
	complete []string
	upload   []int64
}

func (f *fakeService) next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeService) ListTasks(context.Context) ([]model.Task, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	return f.tasks, nil
}

func (f *fakeService) GetTask(_ context.Context, id string) (model.Task, error) {
	if err := f.next(); err != nil {
		return model.Task{}, err
	}
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, &dsm.APIError{Code: dsm.CodeTaskInvalidID}
}

func (f *fakeService) CreateFromURL(_ context.Context, _ []string, dest string) ([]string, error) {
	f.mu.Lock()
	f.dests = append(f.dests, dest)
	f.mu.Unlock()
	if err := f.next(); err != nil {
		return nil, err
	}
	return []string{"dbid_1"}, nil
}

func (f *fakeService) CreateFromFile(ctx context.Context, _ string, dest string, onProgress func(sent, total int64)) ([]string, error) {
	for _, sent := range f.upload {
		onProgress(sent, 1000)
	}
	return f.CreateFromURL(ctx, nil, dest)
}

func (f *fakeService) Pause(_ context.Context, ids ...string) error {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.paused = append(f.paused, ids...)
	f.mu.Unlock()
	return f.next()
}

func (f *fakeService) Resume(context.Context, ...string) error { return f.next() }

func (f *fakeService) Complete(_ context.Context, id string) error {
	f.complete = append(f.complete, id)
	return f.next()
}

func (f *fakeService) Delete(context.Context, []string, bool) error { return f.next() }

func (f *fakeService) ClearCompleted(context.Context) error { return f.next() }

type fakeAuth struct {
	reauths   int
	reauthErr error
	dest      string
	captured  []string
}

func (a *fakeAuth) Reauthenticate(context.Context) error {
	a.reauths++
	return a.reauthErr
}

func (a *fakeAuth) DefaultDestination() string { return a.dest }

func (a *fakeAuth) RememberDestination(path string) { a.dest = path }

func (a *fakeAuth) CaptureDestination(path string) bool {
	if a.dest != "" {
		return false
	}
	a.dest = path
	a.captured = append(a.captured, path)
	return true
}

type recorder struct {
	mu     sync.Mutex
	events []status.Event
}

func (r *recorder) sink(e status.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) levels() []status.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]status.Level, len(r.events))
	for i, e := range r.events {
		out[i] = e.Level
	}
	return out
}

func newManager(svc *fakeService, a *fakeAuth, p credentials.Prompter) (*download.Manager, *recorder) {
	rec := &recorder{}
	return download.NewManager(svc, a, p, rec.sink), rec
}

func TestDoRetriesOnceAfterSessionExpiry(t *testing.T) {
	svc := &fakeService{errs: []error{expired()}}
	a := &fakeAuth{}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())

	require.NoError(t, m.Pause(context.Background(), "dbid_1"))
	assert.Equal(t, 1, a.reauths)
	assert.Equal(t, 2, svc.calls)
	assert.Equal(t, []string{"dbid_1", "dbid_1"}, svc.paused)
}

func TestDoDoesNotRetryTwice(t *testing.T) {
	svc := &fakeService{errs: []error{expired(), expired()}}
	a := &fakeAuth{}
	m, rec := newManager(svc, a, testutil.NewScriptedPrompter())

	err := m.Resume(context.Background(), "dbid_1")
	require.Error(t, err)
	assert.True(t, dsm.IsSessionExpired(err))
	assert.Equal(t, 1, a.reauths)
	assert.Equal(t, 2, svc.calls)
	assert.Contains(t, rec.levels(), status.LevelError)
}

func TestDoStopsWhenReauthenticationFails(t *testing.T) {
	svc := &fakeService{errs: []error{expired()}}
	a := &fakeAuth{reauthErr: credentials.ErrAborted}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())

	err := m.Complete(context.Background(), "dbid_1")
	require.ErrorIs(t, err, credentials.ErrAborted)
	assert.Equal(t, 1, svc.calls)
}

func TestDoPassesOtherErrorsThrough(t *testing.T) {
	boom := errors.New("connection refused")
	svc := &fakeService{errs: []error{boom}}
	a := &fakeAuth{}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())

	err := m.Delete(context.Background(), []string{"dbid_1"}, true)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, a.reauths)
	assert.Equal(t, 1, svc.calls)
}

func TestCreatePromptsForDestination(t *testing.T) {
	svc := &fakeService{errs: []error{destinationRequired()}}
	a := &fakeAuth{}
	prompter := testutil.NewScriptedPrompter("  /volume1/downloads ")
	m, rec := newManager(svc, a, prompter)

	ids, err := m.Create(context.Background(), download.CreateRequest{URLs: []string{"magnet:?xt=1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"dbid_1"}, ids)
	assert.Equal(t, 1, prompter.Count())
	assert.Equal(t, []string{"", "/volume1/downloads"}, svc.dests)
	assert.Equal(t, "/volume1/downloads", a.dest)
	assert.Contains(t, rec.levels(), status.LevelSuccess)
}

func TestCreateEmptyDestinationCancels(t *testing.T) {
	svc := &fakeService{errs: []error{destinationRequired()}}
	a := &fakeAuth{}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter("   "))

	_, err := m.Create(context.Background(), download.CreateRequest{URLs: []string{"magnet:?xt=1"}})
	require.ErrorIs(t, err, credentials.ErrAborted)
	assert.Equal(t, 1, svc.calls)
	assert.Empty(t, a.dest)
}

func TestCreateDestinationRetriedOnlyOnce(t *testing.T) {
	svc := &fakeService{errs: []error{destinationRequired(), destinationRequired()}}
	a := &fakeAuth{}
	prompter := testutil.NewScriptedPrompter("/volume1/bad", "/volume1/other")
	m, _ := newManager(svc, a, prompter)

	_, err := m.Create(context.Background(), download.CreateRequest{URLs: []string{"magnet:?xt=1"}})
	require.Error(t, err)
	assert.True(t, dsm.IsDestinationRequired(err))
	assert.Equal(t, 1, prompter.Count())
	assert.Equal(t, 2, svc.calls)
	assert.Empty(t, a.dest)
}

func TestCreateUsesCachedDestination(t *testing.T) {
	svc := &fakeService{}
	a := &fakeAuth{dest: "/volume1/cached"}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())

	_, err := m.Create(context.Background(), download.CreateRequest{File: "ubuntu.torrent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/volume1/cached"}, svc.dests)
}

func TestCreateExplicitDestinationIsRemembered(t *testing.T) {
	svc := &fakeService{}
	a := &fakeAuth{dest: "/volume1/cached"}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())

	_, err := m.Create(context.Background(), download.CreateRequest{URLs: []string{"https://x/y.iso"}, Destination: "/volume1/iso"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/volume1/iso"}, svc.dests)
	assert.Equal(t, "/volume1/iso", a.dest)
}

func TestCreateRequiresInput(t *testing.T) {
	m, _ := newManager(&fakeService{}, &fakeAuth{}, testutil.NewScriptedPrompter())

	_, err := m.Create(context.Background(), download.CreateRequest{})
	require.Error(t, err)
}

func TestCreateSessionExpiryThenDestination(t *testing.T) {
	svc := &fakeService{errs: []error{expired(), destinationRequired()}}
	a := &fakeAuth{}
	prompter := testutil.NewScriptedPrompter("/volume1/downloads")
	m, _ := newManager(svc, a, prompter)

	_, err := m.Create(context.Background(), download.CreateRequest{URLs: []string{"magnet:?xt=1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, a.reauths)
	assert.Equal(t, 1, prompter.Count())
	assert.Equal(t, "/volume1/downloads", a.dest)
}

func TestInfo(t *testing.T) {
	svc := &fakeService{tasks: []model.Task{{ID: "dbid_7", Title: "debian.iso"}}}
	m, _ := newManager(svc, &fakeAuth{}, testutil.NewScriptedPrompter())

	task, err := m.Info(context.Background(), "dbid_7")
	require.NoError(t, err)
	assert.Equal(t, "debian.iso", task.Title)
}

func TestListReplacesSnapshot(t *testing.T) {
	svc := &fakeService{tasks: []model.Task{{ID: "a"}, {ID: "b"}}}
	m, _ := newManager(svc, &fakeAuth{}, testutil.NewScriptedPrompter())

	tasks, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	svc.tasks = []model.Task{{ID: "c"}}
	_, err = m.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Task{{ID: "c"}}, m.Tasks())
	assert.False(t, m.LastSync().IsZero())
}

func TestAuthCheck(t *testing.T) {
	svc := &fakeService{errs: []error{expired()}}
	a := &fakeAuth{}
	m, rec := newManager(svc, a, testutil.NewScriptedPrompter())

	require.NoError(t, m.AuthCheck(context.Background()))
	assert.Equal(t, 1, a.reauths)
	assert.Contains(t, rec.levels(), status.LevelSuccess)
}

func TestCreateFallsBackToConfiguredDestination(t *testing.T) {
	svc := &fakeService{}
	a := &fakeAuth{}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())
	m.SetFallbackDestination(" /volume1/default ")

	_, err := m.Create(context.Background(), download.CreateRequest{URLs: []string{"magnet:?xt=1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/volume1/default"}, svc.dests)
	assert.Equal(t, "/volume1/default", a.dest)
}

func TestDoRetriesUnauthorizedOnlyOnce(t *testing.T) {
	svc := &fakeService{errs: []error{dsm.ErrUnauthorized, dsm.ErrUnauthorized}}
	a := &fakeAuth{}
	m, _ := newManager(svc, a, testutil.NewScriptedPrompter())

	err := m.Pause(context.Background(), "dbid_1")
	require.ErrorIs(t, err, dsm.ErrUnauthorized)
	assert.Equal(t, 1, a.reauths)
	assert.Equal(t, 2, svc.calls)
}

func TestCreateFromFileReportsUploadProgress(t *testing.T) {
	svc := &fakeService{upload: []int64{10, 50, 120, 130, 990, 1000}}
	m, rec := newManager(svc, &fakeAuth{dest: "/volume1/dl"}, testutil.NewScriptedPrompter())

	_, err := m.Create(context.Background(), download.CreateRequest{File: "/tmp/ubuntu.torrent"})
	require.NoError(t, err)

	var msgs []string
	for _, e := range rec.events {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{
		"Uploading ubuntu.torrent: 1%",
		"Uploading ubuntu.torrent: 12%",
		"Uploading ubuntu.torrent: 99%",
		"Uploaded ubuntu.torrent (1000 B)",
		"Task created",
	}, msgs)
}
