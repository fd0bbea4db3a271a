package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ports"
	"github.com/renato0307/modshell/internal/services"
	"github.com/renato0307/modshell/internal/theme"
)

type uiState int

const (
	stateList uiState = iota
	stateAddingMod
	stateConflicts
	stateHelp
	stateOptions
)

// Model is the mod list screen and the dialogs opened from it
type Model struct {
	cancel       context.CancelFunc
	ctx          context.Context
	cursor       int
	devMode      bool
	dialog       *Dialog // Open dialog, nil in stateList
	dragMoved    bool    // Pointer moved since the mouse drag began
	errorManager *ErrorManager
	events       chan tea.Msg
	height       int
	help         help.Model
	keys         KeyMap
	lastLog      string
	offset       int // First visible row
	opener       ports.FolderOpener
	previews     map[domain.Hash]string
	session      *services.ModSessionService
	spinner      spinner.Model
	state        uiState
	width        int
}

// NewModel creates the UI for one session
func NewModel(
	session *services.ModSessionService,
	keysConfig config.KeyBindingsConfig,
	errorClearDelay time.Duration,
	devMode bool,
) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.SpinnerStyle

	return &Model{
		cancel:       cancel,
		ctx:          ctx,
		devMode:      devMode,
		errorManager: NewErrorManager(errorClearDelay),
		events:       subscribe(session),
		help:         help.New(),
		keys:         NewKeyMap(keysConfig),
		previews:     make(map[domain.Hash]string),
		session:      session,
		spinner:      s,
		state:        stateList,
	}
}

// SetOpener enables opening mod folders; without one the key reports an error
func (m *Model) SetOpener(opener ports.FolderOpener) {
	m.opener = opener
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		loadCmd(m.ctx, m.session),
		waitForEvent(m.events),
		m.spinner.Tick,
	)
}

// Close cancels backend calls still running for this UI
func (m *Model) Close() {
	m.cancel()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Modal chrome around the trace: title, message, footer and border
		m.errorManager.SetSize(m.errorModalWidth(), msg.Height-14)
		m.clampCursor()
		if m.dialog != nil {
			_, cmd := m.dialog.Update(msg)
			return m, cmd
		}
		return m, nil

	case busyMsg, progressMsg:
		if p, ok := msg.(progressMsg); ok {
			m.lastLog = p.record.Message
		}
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearErrorMsg:
		m.errorManager.handleClear(msg)
		return m, nil

	case loadedMsg:
		m.clampCursor()
		return m, m.report(msg.err)

	case appliedMsg:
		if msg.err == nil {
			logging.Logger.Info("Load order applied from UI")
		}
		m.clampCursor()
		return m, m.report(msg.err)

	case cancelledMsg:
		m.clampCursor()
		return m, m.report(msg.err)

	case modAddedMsg:
		if msg.err == nil {
			m.moveCursorTo(m.indexOf(msg.mod.Hash))
		}
		return m, m.report(msg.err)

	case previewMsg:
		if msg.err != nil {
			m.previews[msg.hash] = "no preview"
		} else {
			m.previews[msg.hash] = describePreview(msg.data)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Application.ForceQuit) {
			return m, m.quit()
		}
		if m.state == stateList && m.errorManager.HasError() {
			if cmd, scrolled := m.errorManager.ScrollTrace(msg); scrolled {
				return m, cmd
			}
			m.errorManager.ClearError()
			m.session.ClearError()
			return m, nil
		}
	}

	if m.state != stateList {
		return m.updateDialog(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateList(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	}
	return m, nil
}

// report shows err in the error modal. Cancellation is not an error.
// Backend failures stay until dismissed.
func (m *Model) report(err error) tea.Cmd {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return m.errorManager.SetError(err)
}

func (m *Model) quit() tea.Cmd {
	m.cancel()
	return tea.Quit
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mods := m.session.Mods()

	if m.session.Dragging() {
		m.updateDragging(msg, len(mods))
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Application.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Application.Help):
		return m, m.openDialog(stateHelp, NewDialog("Keyboard shortcuts", NewHelpScreen(&m.keys), m.devMode))

	case key.Matches(msg, m.keys.Navigation.Up):
		m.moveCursorTo(m.cursor - 1)

	case key.Matches(msg, m.keys.Navigation.Down):
		m.moveCursorTo(m.cursor + 1)

	case key.Matches(msg, m.keys.Navigation.Select):
		m.session.ToggleSelected(m.cursor)

	case key.Matches(msg, m.keys.Navigation.ClearSelection):
		m.session.Select()

	case key.Matches(msg, m.keys.Reorder.Grab):
		if len(m.session.Selection()) == 0 {
			m.session.Select(m.cursor)
		}
		if m.session.BeginDrag(domain.Point{Y: m.cursor}) {
			m.session.DragOver(m.cursor)
		}

	case key.Matches(msg, m.keys.Reorder.MoveUp):
		m.nudge(-1)

	case key.Matches(msg, m.keys.Reorder.MoveDown):
		m.nudge(1)

	case key.Matches(msg, m.keys.Mods.Toggle):
		for _, hash := range m.targets(mods) {
			m.session.ToggleMod(hash)
		}

	case key.Matches(msg, m.keys.Mods.Remove):
		for _, hash := range m.targets(mods) {
			m.session.RemoveMod(hash)
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Mods.Options):
		mod, ok := m.cursorMod(mods)
		if !ok {
			return m, nil
		}
		if len(mod.Meta.OptionGroups) == 0 {
			return m, m.errorManager.SetError(fmt.Errorf("%s has no options", mod.DisplayName()))
		}
		return m, m.openDialog(stateOptions, NewDialog("Options of "+mod.DisplayName(), NewOptionsForm(mod), m.devMode))

	case key.Matches(msg, m.keys.Mods.Conflicts):
		mod, ok := m.cursorMod(mods)
		if !ok {
			return m, nil
		}
		view := NewTextView(conflictReport(m.session, mod), "Press esc or q to close", &m.keys)
		return m, m.openDialog(stateConflicts, NewDialog("Conflicts of "+mod.DisplayName(), view, m.devMode))

	case key.Matches(msg, m.keys.Mods.OpenFolder):
		mod, ok := m.cursorMod(mods)
		if !ok {
			return m, nil
		}
		if m.opener == nil {
			return m, m.errorManager.SetError(errors.New("opening folders is not available in this session"))
		}
		if err := m.opener.Open(mod.Path); err != nil {
			return m, m.errorManager.SetError(fmt.Errorf("failed to open %s: %w", mod.DisplayName(), err))
		}

	case key.Matches(msg, m.keys.Mods.Add):
		return m, m.openDialog(stateAddingMod, NewDialog("Add mod", NewAddModForm(), m.devMode))

	case key.Matches(msg, m.keys.Mods.Apply):
		return m, applyCmd(m.ctx, m.session)

	case key.Matches(msg, m.keys.Mods.CancelChanges):
		return m, cancelCmd(m.ctx, m.session)
	}

	return m, m.requestPreview()
}

// updateDragging handles keys while a grabbed block is being moved
func (m *Model) updateDragging(msg tea.KeyMsg, count int) {
	switch {
	case key.Matches(msg, m.keys.Navigation.Up):
		m.session.DragOver(max(m.session.DragTarget()-1, 0))
	case key.Matches(msg, m.keys.Navigation.Down):
		m.session.DragOver(min(m.session.DragTarget()+1, count))
	case key.Matches(msg, m.keys.Reorder.Drop):
		m.drop(m.session.DragTarget())
	case key.Matches(msg, m.keys.Navigation.ClearSelection):
		m.session.CancelDrag()
	}
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	count := len(m.session.Mods())
	row := msg.Y - listTop + m.offset

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.moveCursorTo(m.cursor - 1)

	case msg.Button == tea.MouseButtonWheelDown:
		m.moveCursorTo(m.cursor + 1)

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if row < 0 || row >= count {
			return m, nil
		}
		m.moveCursorTo(row)
		if msg.Ctrl {
			m.session.ToggleSelected(row)
			return m, nil
		}
		if !slices.Contains(m.session.Selection(), row) {
			m.session.Select(row)
		}
		if m.session.BeginDrag(domain.Point{X: msg.X, Y: msg.Y}) {
			m.session.DragOver(row)
			m.dragMoved = false
		}

	case msg.Action == tea.MouseActionMotion && m.session.Dragging():
		target := max(0, min(row, count))
		if target != m.session.DragTarget() {
			m.dragMoved = true
			m.session.DragOver(target)
		}

	case msg.Action == tea.MouseActionRelease && m.session.Dragging():
		if !m.dragMoved {
			m.session.CancelDrag()
			return m, nil
		}
		m.drop(m.session.DragTarget())
	}

	return m, m.requestPreview()
}

// drop finishes a drag with the block inserted before row
func (m *Model) drop(row int) {
	target := insertionTarget(m.session.Selection(), row)
	if block, ok := m.session.Drop(target); ok && len(block) > 0 {
		m.moveCursorTo(block[0])
	}
}

// insertionTarget converts a row of the full list into a reorder target,
// which counts only rows that are not being moved
func insertionTarget(selected []int, row int) int {
	target := row
	for _, pos := range selected {
		if pos < row {
			target--
		}
	}
	return max(target, 0)
}

// nudge moves the selection, or the cursor mod, one step
func (m *Model) nudge(delta int) {
	positions := m.session.Selection()
	cursorOnly := len(positions) == 0
	if cursorOnly {
		positions = []int{m.cursor}
	}

	target := positions[0] + delta
	if target < 0 {
		return
	}
	block := m.session.ReorderMods(positions, target)
	if len(block) == 0 {
		return
	}
	if cursorOnly {
		m.session.Select()
	}
	m.moveCursorTo(block[0])
}

// targets returns the hashes an action applies to: the selection, or the
// mod under the cursor
func (m *Model) targets(mods []domain.Mod) []domain.Hash {
	var hashes []domain.Hash
	for _, pos := range m.session.Selection() {
		if pos < len(mods) {
			hashes = append(hashes, mods[pos].Hash)
		}
	}
	if len(hashes) == 0 {
		if mod, ok := m.cursorMod(mods); ok {
			hashes = append(hashes, mod.Hash)
		}
	}
	return hashes
}

func (m *Model) cursorMod(mods []domain.Mod) (domain.Mod, bool) {
	if m.cursor < 0 || m.cursor >= len(mods) {
		return domain.Mod{}, false
	}
	return mods[m.cursor], true
}

func (m *Model) indexOf(hash domain.Hash) int {
	for i, mod := range m.session.Mods() {
		if mod.Hash == hash {
			return i
		}
	}
	return m.cursor
}

// requestPreview starts loading the preview of the cursor mod once
func (m *Model) requestPreview() tea.Cmd {
	mod, ok := m.cursorMod(m.session.Mods())
	if !ok {
		return nil
	}
	if _, seen := m.previews[mod.Hash]; seen {
		return nil
	}
	m.previews[mod.Hash] = "loading preview..."
	return previewCmd(m.ctx, m.session, mod.Hash)
}

func (m *Model) moveCursorTo(pos int) {
	m.cursor = pos
	m.clampCursor()
}

// clampCursor keeps the cursor on a mod and scrolls it into view
func (m *Model) clampCursor() {
	count := len(m.session.Mods())
	m.cursor = max(0, min(m.cursor, count-1))

	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = max(0, min(m.offset, count-rows))
}

func (m *Model) openDialog(state uiState, d *Dialog) tea.Cmd {
	m.state = state
	m.dialog = d
	initCmd := d.Init()
	_, sizeCmd := d.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	return tea.Batch(initCmd, sizeCmd)
}

func (m *Model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.dialog.Update(msg)
	if !dialogDone(m.dialog) {
		return m, cmd
	}

	state, d := m.state, m.dialog
	m.state = stateList
	m.dialog = nil

	switch state {
	case stateAddingMod:
		form := d.Content().(*AddModForm)
		result := form.Result()
		if result.Cancelled {
			return m, nil
		}
		return m, addModCmd(m.ctx, m.session, result.Path, result.Meta())

	case stateOptions:
		form := d.Content().(*OptionsForm)
		if form.Cancelled {
			return m, nil
		}
		if err := m.session.SetModOptions(form.Hash(), form.Selected()); err != nil {
			return m, m.errorManager.SetError(err)
		}
	}
	return m, nil
}
