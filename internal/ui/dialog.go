package ui

import tea "github.com/charmbracelet/bubbletea"

// Dialog wraps any tea.Model content and prepends the application header
// with a title. Content is reached through Content() for type assertion
// after Update.
type Dialog struct {
	content tea.Model
	devMode bool
	title   string
}

// NewDialog creates a new dialog around content
func NewDialog(title string, content tea.Model, devMode bool) *Dialog {
	return &Dialog{
		content: content,
		devMode: devMode,
		title:   title,
	}
}

// Init delegates to the wrapped content
func (d *Dialog) Init() tea.Cmd {
	return d.content.Init()
}

// Update delegates to the wrapped content and returns the Dialog itself
func (d *Dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updatedContent, cmd := d.content.Update(msg)
	d.content = updatedContent
	return d, cmd
}

// View renders the header followed by the content
func (d *Dialog) View() string {
	return renderHeader(d.devMode, d.title) + d.content.View()
}

// Content returns the wrapped content
func (d *Dialog) Content() tea.Model {
	return d.content
}

// completer is implemented by dialog contents that can finish
type completer interface {
	Done() bool
}

// dialogDone reports whether the dialog's content has finished
func dialogDone(d *Dialog) bool {
	if d == nil {
		return true
	}
	c, ok := d.content.(completer)
	return ok && c.Done()
}
