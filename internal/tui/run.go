package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/dstask/internal/app"
	"github.com/handiism/dstask/internal/config"
	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/status"
)

// Run starts the TUI application. The program and the sync loop run under
// one errgroup; quitting the program stops the loop.
func Run(ctx context.Context, settings *config.Settings, verbose bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(ctx, verbose), tea.WithAltScreen(), tea.WithContext(ctx))
	prompter := &programPrompter{send: p.Send}
	report := func(e status.Event) { p.Send(statusMsg(e)) }

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	g.Go(func() error {
		a, err := app.New(gctx, app.Options{Settings: settings, Prompter: prompter, Report: report})
		if err == nil {
			err = a.Connect(gctx)
		}
		if err != nil {
			if gctx.Err() == nil {
				p.Send(connectedMsg{err: err})
			}
			return nil
		}

		a.Manager.OnTasks(func(tasks []model.Task) {
			p.Send(tasksMsg{tasks: tasks, at: a.Manager.LastSync()})
		})
		p.Send(connectedMsg{host: a.Auth.HostKey(), manager: a.Manager})

		if err := a.Manager.RunSync(gctx, settings.PollEvery()); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	return g.Wait()
}
