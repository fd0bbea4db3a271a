package ui

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/modshell/internal/tasks"
)

const (
	maxErrorLines  = 4
	minErrorWidth  = 10
	minTraceHeight = 3
	truncationMark = "..."
)

// clearErrorMsg is sent after the error clear delay
type clearErrorMsg struct {
	err error
}

// ErrorManager holds the error shown in the error modal. Local errors clear
// after a delay; backend failures stay until dismissed and show their trace.
type ErrorManager struct {
	current    error
	clearDelay time.Duration
	trace      viewport.Model
	traceRows  int // Rows available to the trace
	hasTrace   bool
}

// NewErrorManager creates an ErrorManager with the given auto-clear delay.
// A zero delay keeps errors until dismissed.
func NewErrorManager(clearDelay time.Duration) *ErrorManager {
	trace := viewport.New(0, minTraceHeight)
	trace.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up", "k")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
	}
	return &ErrorManager{clearDelay: clearDelay, trace: trace, traceRows: minTraceHeight}
}

// SetError sets the current error and returns the command that clears it.
// Backend failures get no clear command.
func (em *ErrorManager) SetError(err error) tea.Cmd {
	em.current = err
	em.hasTrace = false

	var taskErr *tasks.Error
	fromBackend := errors.As(err, &taskErr)
	if fromBackend && strings.TrimSpace(taskErr.Trace) != "" {
		em.trace.SetContent(taskErr.Trace)
		em.trace.GotoTop()
		em.hasTrace = true
		em.fitTrace()
	}

	if err == nil || fromBackend || em.clearDelay <= 0 {
		return nil
	}
	return tea.Tick(em.clearDelay, func(time.Time) tea.Msg {
		return clearErrorMsg{err: err}
	})
}

// SetSize fits the trace view into a modal of the given content width and
// the available screen height
func (em *ErrorManager) SetSize(width, height int) {
	em.trace.Width = max(width, minErrorWidth)
	em.traceRows = max(height, minTraceHeight)
	em.fitTrace()
}

// fitTrace shrinks the trace view to short traces
func (em *ErrorManager) fitTrace() {
	em.trace.Height = min(max(em.trace.TotalLineCount(), 1), em.traceRows)
	em.trace.SetYOffset(em.trace.YOffset)
}

// ClearError clears the current error
func (em *ErrorManager) ClearError() {
	em.current = nil
	em.hasTrace = false
}

// handleClear clears the error only if it is still the one msg was scheduled
// for, so a newer error gets its full delay
func (em *ErrorManager) handleClear(msg clearErrorMsg) {
	if em.current == msg.err {
		em.ClearError()
	}
}

// GetError returns the current error
func (em *ErrorManager) GetError() error {
	return em.current
}

// HasError reports whether an error is shown
func (em *ErrorManager) HasError() bool {
	return em.current != nil
}

// HasTrace reports whether the shown error carries a backend trace
func (em *ErrorManager) HasTrace() bool {
	return em.current != nil && em.hasTrace
}

// ScrollTrace scrolls the trace when msg is a scroll key. It reports false
// for any other key.
func (em *ErrorManager) ScrollTrace(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := em.trace.KeyMap
	if !em.HasTrace() || !key.Matches(msg, km.Up, km.Down, km.PageUp, km.PageDown) {
		return nil, false
	}
	var cmd tea.Cmd
	em.trace, cmd = em.trace.Update(msg)
	return cmd, true
}

// TraceView renders the visible part of the trace
func (em *ErrorManager) TraceView() string {
	return em.trace.View()
}

// formatErrorForDisplay word-wraps an error message to width, keeping at
// most maxErrorLines and marking truncation with "..."
func formatErrorForDisplay(err error, width int) string {
	if err == nil {
		return ""
	}
	message := err.Error()
	if message == "" {
		return "unknown error"
	}
	width = max(width, minErrorWidth)

	var lines []string
	var line strings.Builder
	words := strings.Fields(message)
	truncated := false

	for _, word := range words {
		n := utf8.RuneCountInString(line.String())
		if n > 0 && n+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, line.String())
			line.Reset()
			if len(lines) == maxErrorLines {
				truncated = true
				break
			}
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if !truncated && line.Len() > 0 {
		lines = append(lines, line.String())
	}

	if truncated {
		last := []rune(lines[len(lines)-1])
		keep := width - utf8.RuneCountInString(truncationMark)
		if len(last) > keep {
			last = last[:keep]
		}
		lines[len(lines)-1] = string(last) + truncationMark
	}
	return strings.Join(lines, "\n")
}
