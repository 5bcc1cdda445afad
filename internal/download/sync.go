package download

import (
	"context"
	"time"

	"github.com/handiism/dstask/internal/model"
)

// RunSync polls the task list every interval until ctx is cancelled.
// The first poll runs immediately. It always returns ctx.Err().
func (m *Manager) RunSync(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one poll unless an action or prompt is in progress, and
// reports whether it ran. Errors go to the status sink; the snapshot is
// left untouched on failure.
func (m *Manager) Tick(ctx context.Context) bool {
	if m.prompts.Load() > 0 || !m.gate.TryAcquire(1) {
		return false
	}
	defer m.gate.Release(1)

	if err := m.refresh(ctx); err != nil && ctx.Err() == nil {
		m.onStatus.Errorf("Refresh failed: %v", err)
	}
	return true
}

// refresh lists tasks, replaces the snapshot and captures a default
// destination if none is cached. The caller holds the gate.
func (m *Manager) refresh(ctx context.Context) error {
	var tasks []model.Task
	err := m.withSession(ctx, func(ctx context.Context) error {
		var err error
		tasks, err = m.service.ListTasks(ctx)
		return err
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.tasks = tasks
	m.lastSync = time.Now()
	m.mu.Unlock()

	if m.auth.DefaultDestination() == "" {
		if dest := model.FirstDestination(tasks); dest != "" && m.auth.CaptureDestination(dest) {
			m.onStatus.Verbosef("Default destination set to %s", dest)
		}
	}

	if m.onTasks != nil {
		m.onTasks(tasks)
	}
	return nil
}
