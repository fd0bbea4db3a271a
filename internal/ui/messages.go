package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/services"
)

// Results of backend operations started from the UI
type (
	loadedMsg    struct{ err error }
	appliedMsg   struct{ err error }
	cancelledMsg struct{ err error }

	modAddedMsg struct {
		mod domain.Mod
		err error
	}

	previewMsg struct {
		data []byte
		err  error
		hash domain.Hash
	}
)

// Events pushed by session hooks from other goroutines
type (
	busyMsg     struct{ busy bool }
	progressMsg struct{ record domain.LogRecord }
)

// eventBufferSize bounds the queue of hook events not yet seen by the UI
const eventBufferSize = 64

// subscribe forwards session busy and progress events into a channel the
// Update loop drains. Events are dropped rather than block the caller when
// the UI falls behind; busy state is re-read from the session on every
// message anyway.
func subscribe(session *services.ModSessionService) chan tea.Msg {
	events := make(chan tea.Msg, eventBufferSize)
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}
	session.OnBusyChange(func(busy bool) { send(busyMsg{busy: busy}) })
	session.OnProgress(func(record domain.LogRecord) { send(progressMsg{record: record}) })
	return events
}

// waitForEvent returns a command that delivers the next hook event
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func loadCmd(ctx context.Context, session *services.ModSessionService) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: session.Load(ctx)}
	}
}

func applyCmd(ctx context.Context, session *services.ModSessionService) tea.Cmd {
	return func() tea.Msg {
		return appliedMsg{err: session.Apply(ctx)}
	}
}

func cancelCmd(ctx context.Context, session *services.ModSessionService) tea.Cmd {
	return func() tea.Msg {
		return cancelledMsg{err: session.Cancel(ctx)}
	}
}

func addModCmd(ctx context.Context, session *services.ModSessionService, path string, meta *domain.Meta) tea.Cmd {
	return func() tea.Msg {
		mod, err := session.AddModFromPath(ctx, path, meta)
		return modAddedMsg{mod: mod, err: err}
	}
}

func previewCmd(ctx context.Context, session *services.ModSessionService, hash domain.Hash) tea.Cmd {
	return func() tea.Msg {
		data, err := session.Preview(ctx, hash)
		return previewMsg{data: data, err: err, hash: hash}
	}
}
