package ui

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/renato0307/modshell/internal/domain"
)

// noOption is the value of the "none" choice of optional exclusive groups
const noOption = ""

// OptionsForm lets the user pick the enabled options of a mod, one field
// per option group
type OptionsForm struct {
	Cancelled bool

	completed bool
	exclusive []*string
	form      *huh.Form
	hash      domain.Hash
	multiple  []*[]string
}

// NewOptionsForm creates the form for mod, preselecting its enabled options
func NewOptionsForm(mod domain.Mod) *OptionsForm {
	f := &OptionsForm{hash: mod.Hash}

	var fields []huh.Field
	for _, group := range mod.Meta.OptionGroups {
		switch group.Kind {
		case domain.OptionGroupExclusive:
			value := new(string)
			var opts []huh.Option[string]
			if !group.Required {
				opts = append(opts, huh.NewOption("None", noOption))
			}
			for _, o := range group.Options {
				opts = append(opts, huh.NewOption(o.Name, o.ID))
				if mod.IsOptionEnabled(o.ID) {
					*value = o.ID
				}
			}
			f.exclusive = append(f.exclusive, value)
			fields = append(fields, huh.NewSelect[string]().
				Title(group.Name).
				Description(group.Description).
				Options(opts...).
				Value(value))

		default:
			value := new([]string)
			var opts []huh.Option[string]
			for _, o := range group.Options {
				opts = append(opts, huh.NewOption(o.Name, o.ID))
				if mod.IsOptionEnabled(o.ID) {
					*value = append(*value, o.ID)
				}
			}
			f.multiple = append(f.multiple, value)
			fields = append(fields, huh.NewMultiSelect[string]().
				Title(group.Name).
				Description(group.Description).
				Options(opts...).
				Value(value))
		}
	}

	f.form = huh.NewForm(huh.NewGroup(fields...))
	return f
}

func (f *OptionsForm) Init() tea.Cmd {
	return f.form.Init()
}

func (f *OptionsForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		f.Cancelled = true
		f.completed = true
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		f.completed = true
		return f, nil
	case huh.StateAborted:
		f.Cancelled = true
		f.completed = true
		return f, nil
	}
	return f, cmd
}

func (f *OptionsForm) View() string {
	return f.form.View()
}

// Done reports whether the form was submitted or cancelled
func (f *OptionsForm) Done() bool {
	return f.completed
}

// Hash returns the mod being edited
func (f *OptionsForm) Hash() domain.Hash {
	return f.hash
}

// Selected returns the chosen option ids, sorted
func (f *OptionsForm) Selected() []string {
	var ids []string
	for _, v := range f.exclusive {
		if *v != noOption {
			ids = append(ids, *v)
		}
	}
	for _, v := range f.multiple {
		ids = append(ids, *v...)
	}
	slices.Sort(ids)
	return ids
}
