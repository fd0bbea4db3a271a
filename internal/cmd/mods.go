package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/services"
)

// output is where commands print; tests swap it
var output io.Writer = os.Stdout

// ModsCmd manages the load order of the current profile
type ModsCmd struct {
	List      ModsListCmd      `cmd:"list" help:"List mods in load order (lowest priority first)" default:"1"`
	Enable    ModsEnableCmd    `cmd:"enable" help:"Enable mods"`
	Disable   ModsDisableCmd   `cmd:"disable" help:"Disable mods"`
	Move      ModsMoveCmd      `cmd:"move" help:"Move mods to a new position"`
	Add       ModsAddCmd       `cmd:"add" help:"Add a mod from a folder or zip archive"`
	Remove    ModsRemoveCmd    `cmd:"remove" help:"Remove mods from the current profile"`
	Conflicts ModsConflictsCmd `cmd:"conflicts" help:"Show files touched by more than one mod"`
	Options   ModsOptionsCmd   `cmd:"options" help:"Show or set the enabled options of a mod"`
}

// openSession creates a session and loads the current profile into it
func openSession(ctx context.Context, cli *CLI) (*services.ModSessionService, error) {
	session := cli.Container.NewSession()
	if err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// applySession sends pending edits to the backend
func applySession(ctx context.Context, session *services.ModSessionService) error {
	if !session.Dirty() {
		fmt.Fprintln(output, "No changes to apply")
		return nil
	}
	if err := session.Apply(ctx); err != nil {
		return err
	}
	fmt.Fprintf(output, "Applied to profile '%s'\n", session.CurrentProfile())
	return nil
}

// resolveMods maps hashes, hash prefixes or names to mods.
// Names are matched case-insensitively and must be unambiguous.
func resolveMods(session *services.ModSessionService, refs []string) ([]domain.Hash, error) {
	mods := session.Mods()
	hashes := make([]domain.Hash, 0, len(refs))

	for _, ref := range refs {
		if m, ok := session.Mod(domain.Hash(ref)); ok {
			hashes = append(hashes, m.Hash)
			continue
		}

		var matches []domain.Mod
		for _, m := range mods {
			if strings.EqualFold(m.Meta.Name, ref) || strings.HasPrefix(string(m.Hash), ref) {
				matches = append(matches, m)
			}
		}

		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("mod '%s' not found", ref)
		case 1:
			hashes = append(hashes, matches[0].Hash)
		default:
			names := make([]string, len(matches))
			for i, m := range matches {
				names[i] = fmt.Sprintf("%s (%s)", m.DisplayName(), shortHash(m.Hash))
			}
			return nil, fmt.Errorf("'%s' matches several mods: %s", ref, strings.Join(names, ", "))
		}
	}
	return hashes, nil
}

func shortHash(h domain.Hash) string {
	if len(h) > 12 {
		return string(h[:12])
	}
	return string(h)
}

// ModsListCmd lists the mods of the current profile
type ModsListCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the list command
func (m *ModsListCmd) Run(cli *CLI) error {
	session, err := openSession(context.Background(), cli)
	if err != nil {
		return err
	}

	mods := session.Mods()
	if m.Format == "json" {
		return printJSON(mods)
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tHASH\tNAME\tVERSION\tENABLED\tFILES\tCONFLICTS")
	for i, mod := range mods {
		enabled := ""
		if mod.Enabled {
			enabled = "✓"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			i,
			shortHash(mod.Hash),
			mod.DisplayName(),
			mod.Meta.Version,
			enabled,
			humanize.Comma(int64(mod.Manifest.Len())),
			len(session.ConflictingWith(mod.Hash)))
	}
	w.Flush()

	fmt.Fprintf(output, "\nProfile: %s, %d mods\n", session.CurrentProfile(), len(mods))
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(output, string(data))
	return nil
}

// ModsEnableCmd enables mods
type ModsEnableCmd struct {
	Mods []string `arg:"" help:"Mod hashes, hash prefixes or names"`
}

// Run executes the enable command
func (m *ModsEnableCmd) Run(cli *CLI) error {
	return setEnabled(cli, m.Mods, true)
}

// ModsDisableCmd disables mods
type ModsDisableCmd struct {
	Mods []string `arg:"" help:"Mod hashes, hash prefixes or names"`
}

// Run executes the disable command
func (m *ModsDisableCmd) Run(cli *CLI) error {
	return setEnabled(cli, m.Mods, false)
}

func setEnabled(cli *CLI, refs []string, enabled bool) error {
	ctx := context.Background()
	session, err := openSession(ctx, cli)
	if err != nil {
		return err
	}

	hashes, err := resolveMods(session, refs)
	if err != nil {
		return err
	}

	for _, h := range hashes {
		session.SetModEnabled(h, enabled)
		logging.Logger.Debug("Mod state set", "hash", h, "enabled", enabled)
	}

	return applySession(ctx, session)
}

// ModsMoveCmd moves a block of mods
type ModsMoveCmd struct {
	Positions []int `arg:"" help:"Positions as shown by 'mods list', moved in the given order"`
	To        int   `help:"Target position of the first moved mod" required:""`
}

// Run executes the move command
func (m *ModsMoveCmd) Run(cli *CLI) error {
	ctx := context.Background()
	session, err := openSession(ctx, cli)
	if err != nil {
		return err
	}

	count := len(session.Mods())
	valid, rejected := domain.NormalizePositions(m.Positions, count)
	if len(rejected) > 0 {
		return fmt.Errorf("invalid or repeated positions %v (list has %d mods)", rejected, count)
	}

	block := session.ReorderMods(valid, m.To)
	logging.Logger.Info("Mods moved", "positions", valid, "to", m.To, "block", block)

	return applySession(ctx, session)
}

// ModsAddCmd adds a mod to the catalog and the current profile
type ModsAddCmd struct {
	Path     string `arg:"" help:"Mod folder or zip archive" type:"path"`
	Author   string `help:"Author, used when the mod has to be converted"`
	Category string `help:"Category, used when the mod has to be converted"`
	Enable   bool   `help:"Enable the mod after adding it"`
	Name     string `help:"Name, used when the mod has to be converted"`
	Version  string `help:"Version, used when the mod has to be converted"`
}

// meta returns the metadata for a conversion, nil to let the reader infer it
func (m *ModsAddCmd) meta() *domain.Meta {
	if m.Name == "" {
		return nil
	}
	return &domain.Meta{
		Author:   m.Author,
		Category: m.Category,
		Name:     m.Name,
		Version:  m.Version,
	}
}

// Run executes the add command
func (m *ModsAddCmd) Run(cli *CLI) error {
	ctx := context.Background()
	session, err := openSession(ctx, cli)
	if err != nil {
		return err
	}

	mod, err := session.AddModFromPath(ctx, m.Path, m.meta())
	if err != nil {
		return err
	}
	if m.Enable {
		session.SetModEnabled(mod.Hash, true)
	}

	fmt.Fprintf(output, "Added '%s' (%s)\n", mod.DisplayName(), shortHash(mod.Hash))
	return applySession(ctx, session)
}

// ModsRemoveCmd removes mods from the current profile.
// They stay in the catalog and can be added again.
type ModsRemoveCmd struct {
	Mods []string `arg:"" help:"Mod hashes, hash prefixes or names"`
}

// Run executes the remove command
func (m *ModsRemoveCmd) Run(cli *CLI) error {
	ctx := context.Background()
	session, err := openSession(ctx, cli)
	if err != nil {
		return err
	}

	hashes, err := resolveMods(session, m.Mods)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		session.RemoveMod(h)
	}

	return applySession(ctx, session)
}

// ModsConflictsCmd lists conflicting files and their owners
type ModsConflictsCmd struct {
	Path   string `arg:"" optional:"" help:"Virtual path to inspect (e.g. 'Base Files/Data/x.bin')"`
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

type conflictEntry struct {
	Owners []string `json:"owners"`
	Path   string   `json:"path"`
	Winner string   `json:"winner,omitempty"`
}

// Run executes the conflicts command
func (m *ModsConflictsCmd) Run(cli *CLI) error {
	session, err := openSession(context.Background(), cli)
	if err != nil {
		return err
	}

	paths := session.Conflicts()
	if m.Path != "" {
		paths = []string{m.Path}
	}

	entries := make([]conflictEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, conflictFor(p, session.OwnersOf(p)))
	}

	if m.Format == "json" {
		return printJSON(entries)
	}

	if len(entries) == 0 || (m.Path != "" && len(entries[0].Owners) == 0) {
		fmt.Fprintln(output, "No conflicts")
		return nil
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tWINNER\tOWNERS")
	for _, e := range entries {
		winner := e.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Path, winner, strings.Join(e.Owners, ", "))
	}
	w.Flush()

	fmt.Fprintf(output, "\nTotal: %d paths\n", len(entries))
	return nil
}

// conflictFor describes one path; owners come lowest priority first
func conflictFor(path string, owners []domain.Mod) conflictEntry {
	entry := conflictEntry{Owners: make([]string, len(owners)), Path: path}
	for i, o := range owners {
		entry.Owners[i] = o.DisplayName()
		if o.Enabled {
			entry.Winner = o.DisplayName()
		}
	}
	return entry
}

// ModsOptionsCmd shows or sets the enabled options of a mod
type ModsOptionsCmd struct {
	Mod   string   `arg:"" help:"Mod hash, hash prefix or name"`
	IDs   []string `arg:"" optional:"" help:"Option ids to enable; omit to list the options"`
	Clear bool     `help:"Disable every option"`
}

// Run executes the options command
func (m *ModsOptionsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	session, err := openSession(ctx, cli)
	if err != nil {
		return err
	}

	hashes, err := resolveMods(session, []string{m.Mod})
	if err != nil {
		return err
	}
	mod, _ := session.Mod(hashes[0])

	if len(m.IDs) == 0 && !m.Clear {
		return printOptions(mod)
	}

	ids := m.IDs
	if m.Clear {
		ids = nil
	}
	if err := session.SetModOptions(mod.Hash, ids); err != nil {
		return err
	}

	return applySession(ctx, session)
}

func printOptions(mod domain.Mod) error {
	if len(mod.Meta.OptionGroups) == 0 {
		fmt.Fprintf(output, "'%s' has no options\n", mod.DisplayName())
		return nil
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tKIND\tID\tNAME\tENABLED")
	for _, group := range mod.Meta.OptionGroups {
		kind := string(group.Kind)
		if group.Required {
			kind += ", required"
		}
		for _, opt := range group.Options {
			enabled := ""
			if mod.IsOptionEnabled(opt.ID) {
				enabled = "✓"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", group.Name, kind, opt.ID, opt.Name, enabled)
		}
	}
	return w.Flush()
}
