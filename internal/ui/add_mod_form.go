package ui

import (
	"errors"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/domain"
)

// AddModFormResult is what the add mod form collected
type AddModFormResult struct {
	Author    string
	Cancelled bool
	Category  string
	Name      string
	Path      string
	Version   string
}

// Meta returns the metadata to use if the package needs converting, or nil
// when no name was given
func (r AddModFormResult) Meta() *domain.Meta {
	if strings.TrimSpace(r.Name) == "" {
		return nil
	}
	return &domain.Meta{
		Author:   strings.TrimSpace(r.Author),
		Category: strings.TrimSpace(r.Category),
		Name:     strings.TrimSpace(r.Name),
		Version:  strings.TrimSpace(r.Version),
	}
}

// AddModForm asks for a mod package and, for packages that are not native
// mods, the metadata used to convert them
type AddModForm struct {
	completed bool
	form      *huh.Form
	result    AddModFormResult
}

// NewAddModForm creates the add mod form
func NewAddModForm() *AddModForm {
	f := &AddModForm{}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Mod file or folder").
				Description("A mod folder, or a .zip archive").
				Value(&f.result.Path).
				Validate(validateModPath),
		),
		huh.NewGroup(
			huh.NewNote().
				Title("Metadata").
				Description("Only used when the package has no meta.yml.\nLeave the name empty to use rules.txt."),
			huh.NewInput().Title("Name").Value(&f.result.Name),
			huh.NewInput().Title("Version").Value(&f.result.Version),
			huh.NewInput().Title("Author").Value(&f.result.Author),
			huh.NewInput().Title("Category").Value(&f.result.Category),
		),
	)

	return f
}

func validateModPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("path required")
	}
	if _, err := os.Stat(config.ExpandPath(s)); err != nil {
		return errors.New("no such file or folder")
	}
	return nil
}

func (f *AddModForm) Init() tea.Cmd {
	return f.form.Init()
}

func (f *AddModForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" || keyMsg.String() == "ctrl+c" {
			f.result.Cancelled = true
			f.completed = true
			return f, nil
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		f.result.Path = config.ExpandPath(strings.TrimSpace(f.result.Path))
		f.completed = true
		return f, nil
	case huh.StateAborted:
		f.result.Cancelled = true
		f.completed = true
		return f, nil
	}

	return f, cmd
}

func (f *AddModForm) View() string {
	return f.form.View()
}

// Done reports whether the form was submitted or cancelled
func (f *AddModForm) Done() bool {
	return f.completed
}

// Result returns the collected values
func (f *AddModForm) Result() AddModFormResult {
	return f.result
}
