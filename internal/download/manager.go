package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/dsm"
	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/status"
)

// Service is the part of the service client used for task operations.
// *dsm.Client satisfies it.
type Service interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateFromURL(ctx context.Context, urls []string, destination string) ([]string, error)
	CreateFromFile(ctx context.Context, path, destination string, onProgress func(sent, total int64)) ([]string, error)
	Pause(ctx context.Context, ids ...string) error
	Resume(ctx context.Context, ids ...string) error
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, ids []string, force bool) error
	ClearCompleted(ctx context.Context) error
}

// Authenticator recovers expired sessions and owns the cached
// destination. *auth.Orchestrator satisfies it.
type Authenticator interface {
	Reauthenticate(ctx context.Context) error
	DefaultDestination() string
	RememberDestination(path string)
	CaptureDestination(path string) bool
}

// CreateRequest describes a new task: either URLs or a local file.
type CreateRequest struct {
	URLs        []string
	File        string
	Destination string
}

// Manager coordinates task commands and polling.
type Manager struct {
	service  Service
	auth     Authenticator
	prompter credentials.Prompter
	gate     *semaphore.Weighted
	prompts  atomic.Int32
	fallback string

	onStatus status.Sink
	onTasks  func([]model.Task)

	tasks    []model.Task
	lastSync time.Time
	mu       sync.RWMutex
}

// NewManager creates a new Manager.
func NewManager(service Service, auth Authenticator, prompter credentials.Prompter, onStatus status.Sink) *Manager {
	return &Manager{
		service:  service,
		auth:     auth,
		prompter: prompter,
		gate:     semaphore.NewWeighted(1),
		onStatus: onStatus,
	}
}

// OnTasks registers fn to receive every new snapshot. Must be called
// before RunSync.
func (m *Manager) OnTasks(fn func([]model.Task)) {
	m.onTasks = fn
}

// SetFallbackDestination sets the destination used by Create when neither
// the request nor the session cache names one.
func (m *Manager) SetFallbackDestination(path string) {
	m.fallback = strings.TrimSpace(path)
}

// Tasks returns a copy of the current snapshot.
func (m *Manager) Tasks() []model.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// LastSync returns when the snapshot was last replaced.
func (m *Manager) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// BeginPrompt marks a foreground prompt as open; the sync loop skips its
// ticks until the matching EndPrompt.
func (m *Manager) BeginPrompt() {
	m.prompts.Add(1)
}

// EndPrompt closes a prompt opened with BeginPrompt.
func (m *Manager) EndPrompt() {
	m.prompts.Add(-1)
}

// Do runs fn as a foreground action: it waits for the busy gate, then
// runs fn with the session-expiry retry envelope.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.gate.Release(1)
	return m.withSession(ctx, fn)
}

// withSession runs fn. If fn fails because the session expired, or
// because no token is held after an earlier re-login was cancelled, it
// re-authenticates exactly once and retries fn exactly once; a second
// failure is returned as-is. The caller holds the gate.
func (m *Manager) withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !needsLogin(err) {
		return err
	}
	if aerr := m.auth.Reauthenticate(ctx); aerr != nil {
		return fmt.Errorf("re-authenticate: %w", aerr)
	}
	return fn(ctx)
}

func needsLogin(err error) bool {
	return dsm.IsSessionExpired(err) || errors.Is(err, dsm.ErrUnauthorized)
}

// List refreshes and returns the task snapshot.
func (m *Manager) List(ctx context.Context) ([]model.Task, error) {
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.gate.Release(1)

	if err := m.refresh(ctx); err != nil {
		return nil, err
	}
	return m.Tasks(), nil
}

// Info returns a single task.
func (m *Manager) Info(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := m.Do(ctx, func(ctx context.Context) error {
		var err error
		task, err = m.service.GetTask(ctx, id)
		return err
	})
	return task, err
}

// Create adds a task from URLs or a file.
//
// Without an explicit destination the cached one is used, then the
// fallback. If the service still asks for a destination, the user is
// prompted once and the call is retried once; the destination that worked
// is remembered for the host.
func (m *Manager) Create(ctx context.Context, req CreateRequest) ([]string, error) {
	if len(req.URLs) == 0 && req.File == "" {
		return nil, fmt.Errorf("nothing to create: give a URL or a file")
	}

	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		dest = m.auth.DefaultDestination()
	}
	if dest == "" {
		dest = m.fallback
	}

	var (
		ids      []string
		prompted bool
	)
	err := m.Do(ctx, func(ctx context.Context) error {
		var err error
		ids, err = m.create(ctx, req, dest)
		if !dsm.IsDestinationRequired(err) || prompted {
			return err
		}

		prompted = true
		answer, perr := m.promptDestination(ctx)
		if perr != nil {
			return perr
		}
		dest = answer
		ids, err = m.create(ctx, req, dest)
		return err
	})
	if err != nil {
		m.onStatus.Errorf("Create failed: %v", err)
		return nil, err
	}

	if dest != "" {
		m.auth.RememberDestination(dest)
	}
	m.onStatus.Successf("Task created")
	return ids, nil
}

// Pause pauses tasks.
func (m *Manager) Pause(ctx context.Context, ids ...string) error {
	return m.action(ctx, "pause", "Paused", func(ctx context.Context) error {
		return m.service.Pause(ctx, ids...)
	})
}

// Resume resumes tasks.
func (m *Manager) Resume(ctx context.Context, ids ...string) error {
	return m.action(ctx, "resume", "Resumed", func(ctx context.Context) error {
		return m.service.Resume(ctx, ids...)
	})
}

// Complete marks a task complete.
func (m *Manager) Complete(ctx context.Context, id string) error {
	return m.action(ctx, "complete", "Completed", func(ctx context.Context) error {
		return m.service.Complete(ctx, id)
	})
}

// Delete removes tasks.
func (m *Manager) Delete(ctx context.Context, ids []string, force bool) error {
	return m.action(ctx, "delete", "Deleted", func(ctx context.Context) error {
		return m.service.Delete(ctx, ids, force)
	})
}

// ClearCompleted removes finished tasks.
func (m *Manager) ClearCompleted(ctx context.Context) error {
	return m.action(ctx, "clear", "Cleared completed tasks", func(ctx context.Context) error {
		return m.service.ClearCompleted(ctx)
	})
}

// AuthCheck verifies the session with a task listing, re-authenticating
// if needed.
func (m *Manager) AuthCheck(ctx context.Context) error {
	if _, err := m.List(ctx); err != nil {
		m.onStatus.Errorf("Auth check failed: %v", err)
		return err
	}
	m.onStatus.Successf("Session is valid")
	return nil
}

func (m *Manager) action(ctx context.Context, name, done string, fn func(ctx context.Context) error) error {
	if err := m.Do(ctx, fn); err != nil {
		m.onStatus.Errorf("%s failed: %v", name, err)
		return err
	}
	m.onStatus.Successf("%s", done)
	return nil
}

func (m *Manager) create(ctx context.Context, req CreateRequest, dest string) ([]string, error) {
	if req.File != "" {
		return m.service.CreateFromFile(ctx, req.File, dest, m.uploadProgress(req.File))
	}
	return m.service.CreateFromURL(ctx, req.URLs, dest)
}

// uploadProgress reports an upload every 10 percent, and once when done.
func (m *Manager) uploadProgress(path string) func(sent, total int64) {
	name := filepath.Base(path)
	step := -1
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := int(sent * 100 / total)
		if pct/10 == step {
			return
		}
		step = pct / 10
		if sent >= total {
			m.onStatus.Infof("Uploaded %s (%s)", name, model.FormatBytes(total))
			return
		}
		m.onStatus.Verbosef("Uploading %s: %d%%", name, pct)
	}
}

func (m *Manager) promptDestination(ctx context.Context) (string, error) {
	m.BeginPrompt()
	defer m.EndPrompt()

	answer, err := m.prompter.Prompt(ctx, "Destination folder (empty to cancel)", "")
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("destination required: %w", credentials.ErrAborted)
	}
	return answer, nil
}
