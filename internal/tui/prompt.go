package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// promptMsg asks the model to collect one value from the user. The answer
// is delivered on reply, which is buffered so Update never blocks.
type promptMsg struct {
	label  string
	def    string
	secret bool
	reply  chan promptReply
}

type promptReply struct {
	value string
	err   error
}

// programPrompter implements credentials.Prompter by rendering prompts
// inside the running program.
type programPrompter struct {
	send func(tea.Msg)
}

func (p *programPrompter) Prompt(ctx context.Context, label, def string) (string, error) {
	return p.ask(ctx, label, def, false)
}

func (p *programPrompter) PromptSecret(ctx context.Context, label string) (string, error) {
	return p.ask(ctx, label, "", true)
}

func (p *programPrompter) ask(ctx context.Context, label, def string, secret bool) (string, error) {
	req := promptMsg{
		label:  label,
		def:    def,
		secret: secret,
		reply:  make(chan promptReply, 1),
	}
	p.send(req)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-req.reply:
		return r.value, r.err
	}
}
