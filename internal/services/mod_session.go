package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ports"
	"github.com/renato0307/modshell/internal/tasks"
)

// ModSessionService owns the in-memory load order of one user session and
// bridges local edits to the backend.
//
// Edits (toggle, reorder, options, remove) are local and make the session
// dirty. Apply, Cancel, Load and AddModFromPath go through the runner and are
// refused with domain.ErrBusy while another of them is in flight. The mutex is
// never held across a backend call, so edits may arrive while one is pending.
type ModSessionService struct {
	runner *tasks.Runner

	mu             sync.Mutex
	cleanRevision  uint64
	collection     *domain.ModCollection
	conflicts      *domain.ConflictIndex
	currentProfile string
	drag           domain.DragState
	lastError      error
	log            []domain.LogRecord
	profiles       []string
	selection      domain.Selection

	previewGroup singleflight.Group
	previewMu    sync.Mutex
	previews     map[domain.Hash][]byte
}

// NewModSessionService creates a session over the given runner
func NewModSessionService(runner *tasks.Runner) *ModSessionService {
	s := &ModSessionService{
		collection: domain.NewModCollection(nil),
		conflicts:  domain.BuildConflictIndex(nil),
		previews:   make(map[domain.Hash][]byte),
		runner:     runner,
	}
	s.cleanRevision = s.collection.Revision()
	runner.OnProgress(s.appendLog)
	return s
}

// Load fetches the mod list and profiles from the backend
func (s *ModSessionService) Load(ctx context.Context) error {
	release, ok := s.runner.TryHold()
	if !ok {
		return domain.ErrBusy
	}
	defer release()

	logging.Logger.Info("Loading mods")

	mods, err := tasks.Call[[]domain.Mod](ctx, s.runner, ports.OpMods)
	if err != nil {
		return s.fail("failed to load mods", err)
	}
	profiles, err := tasks.Call[[]string](ctx, s.runner, ports.OpProfiles)
	if err != nil {
		return s.fail("failed to load profiles", err)
	}
	current, err := tasks.Call[string](ctx, s.runner, ports.OpCurrentProfile)
	if err != nil {
		return s.fail("failed to load current profile", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(mods)
	s.profiles = profiles
	s.currentProfile = current

	logging.Logger.Info("Mods loaded", "count", len(mods), "profile", current)
	return nil
}

// Apply sends the current load order to the backend and refreshes from its
// canonical view. Edits made while the apply is in flight are kept and leave
// the session dirty.
func (s *ModSessionService) Apply(ctx context.Context) error {
	release, ok := s.runner.TryHold()
	if !ok {
		return domain.ErrBusy
	}
	defer release()

	s.mu.Lock()
	mods := s.collection.Mods()
	revision := s.collection.Revision()
	s.mu.Unlock()

	payload, err := json.Marshal(mods)
	if err != nil {
		return s.fail("failed to encode load order", err)
	}

	logging.Logger.Info("Applying changes", "mods", len(mods), "revision", revision)

	if _, err := s.runner.Run(ctx, ports.OpApply, json.RawMessage(payload)); err != nil {
		return s.fail("failed to apply changes", err)
	}

	fresh, err := tasks.Call[[]domain.Mod](ctx, s.runner, ports.OpMods)
	if err != nil {
		return s.fail("changes applied but failed to refresh mods", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection.Revision() != revision {
		logging.Logger.Warn("Mods changed while applying, keeping local edits",
			"applied_revision", revision,
			"current_revision", s.collection.Revision())
		return nil
	}

	s.replaceLocked(fresh)
	logging.Logger.Info("Changes applied", "mods", len(fresh))
	return nil
}

// Cancel discards local edits by reloading the backend's mod list
func (s *ModSessionService) Cancel(ctx context.Context) error {
	release, ok := s.runner.TryHold()
	if !ok {
		return domain.ErrBusy
	}
	defer release()

	logging.Logger.Info("Cancelling changes")

	fresh, err := tasks.Call[[]domain.Mod](ctx, s.runner, ports.OpMods)
	if err != nil {
		return s.fail("failed to reload mods", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(fresh)
	return nil
}

// AddModFromPath parses the package at path, converting it once if it is not
// a native mod, registers it with the backend and appends it to the load
// order. meta is only used for the conversion. Nothing changes locally unless
// every step succeeds.
func (s *ModSessionService) AddModFromPath(ctx context.Context, path string, meta *domain.Meta) (domain.Mod, error) {
	release, ok := s.runner.TryHold()
	if !ok {
		return domain.Mod{}, domain.ErrBusy
	}
	defer release()

	logging.Logger.Info("Adding mod", "path", path)

	parsed, err := tasks.Call[domain.Mod](ctx, s.runner, ports.OpParseMod, path)
	if err != nil {
		if !tasks.IsKind(err, tasks.KindMissingMeta) && !tasks.IsKind(err, tasks.KindInvalidArchive) {
			return domain.Mod{}, s.fail("failed to open mod", err)
		}

		logging.Logger.Info("Mod is not in native format, converting", "path", path, "kind", tasks.KindOf(err))
		parsed, err = tasks.Call[domain.Mod](ctx, s.runner, ports.OpConvertMod, path, meta)
		if err != nil {
			return domain.Mod{}, s.fail("failed to convert mod", err)
		}
	}

	added, err := tasks.Call[domain.Mod](ctx, s.runner, ports.OpAddMod, parsed.Path)
	if err != nil {
		return domain.Mod{}, s.fail("failed to add mod", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.collection.Add(added); err != nil {
		return domain.Mod{}, s.failLocked("failed to add mod", err)
	}
	s.conflicts = domain.BuildConflictIndex(s.collection.Mods())

	logging.Logger.Info("Mod added", "hash", added.Hash, "name", added.Meta.Name)
	return added, nil
}

// ToggleMod flips a mod's enabled flag. Unknown hashes are ignored.
func (s *ModSessionService) ToggleMod(hash domain.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.collection.Toggle(hash) {
		logging.Logger.Warn("Ignoring toggle of unknown mod", "hash", hash)
		return false
	}
	return true
}

// SetModEnabled sets a mod's enabled flag. Unknown hashes are ignored.
func (s *ModSessionService) SetModEnabled(hash domain.Hash, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.collection.SetEnabled(hash, enabled) {
		logging.Logger.Warn("Ignoring enable of unknown mod", "hash", hash)
		return false
	}
	return true
}

// SetModOptions replaces the enabled options of a mod
func (s *ModSessionService) SetModOptions(hash domain.Hash, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.collection.SetEnabledOptions(hash, ids); err != nil {
		return fmt.Errorf("failed to set options of %s: %w", hash, err)
	}
	return nil
}

// RemoveMod drops a mod from the load order
func (s *ModSessionService) RemoveMod(hash domain.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.collection.Remove(hash) {
		logging.Logger.Warn("Ignoring removal of unknown mod", "hash", hash)
		return false
	}
	s.conflicts = domain.BuildConflictIndex(s.collection.Mods())
	s.selection.Clamp(s.collection.Count())
	return true
}

// ReorderMods moves the mods at selected so the block starts at target and
// selects the block. Invalid positions are logged and ignored.
func (s *ModSessionService) ReorderMods(selected []int, target int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reorderLocked(selected, target)
}

func (s *ModSessionService) reorderLocked(selected []int, target int) []int {
	valid, rejected := domain.NormalizePositions(selected, s.collection.Count())
	if len(rejected) > 0 {
		logging.Logger.Warn("Ignoring invalid positions in reorder",
			"rejected", rejected,
			"count", s.collection.Count(),
			"error", domain.ErrInvalidPosition)
	}
	if limit := s.collection.Count() - len(valid); target < 0 || target > limit {
		logging.Logger.Warn("Clamping reorder target", "target", target, "limit", limit)
	}

	block := s.collection.Reorder(valid, target)
	s.selection.Set(block)
	return block
}

// Select replaces the selection. Invalid positions are dropped.
func (s *ModSessionService) Select(positions ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Set(positions)
	s.selection.Clamp(s.collection.Count())
}

// ToggleSelected adds or removes one position from the selection
func (s *ModSessionService) ToggleSelected(pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < 0 || pos >= s.collection.Count() {
		return
	}
	s.selection.Toggle(pos)
}

// Selection returns the selected positions in ascending order
func (s *ModSessionService) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Positions()
}

// BeginDrag starts dragging the current selection
func (s *ModSessionService) BeginDrag(origin domain.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Begin(s.selection.Positions(), origin)
}

// DragOver records the row under the pointer
func (s *ModSessionService) DragOver(target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Hover(target)
}

// DragTarget returns the hovered drop target, or -1
func (s *ModSessionService) DragTarget() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Target()
}

// Dragging reports whether a drag is running
func (s *ModSessionService) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Phase() == domain.DragDragging
}

// Drop ends the drag at target and reorders. It returns the new positions of
// the moved block, or false when no drag was running.
func (s *ModSessionService) Drop(target int) ([]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected, ok := s.drag.Drop(target)
	if !ok {
		return nil, false
	}
	block := s.reorderLocked(selected, target)
	s.drag.Reset()
	return block, true
}

// CancelDrag aborts a running drag without reordering
func (s *ModSessionService) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
	s.drag.Reset()
}

// Preview returns a mod's thumbnail. Results are cached per hash and
// concurrent requests share one backend call.
func (s *ModSessionService) Preview(ctx context.Context, hash domain.Hash) ([]byte, error) {
	s.previewMu.Lock()
	data, ok := s.previews[hash]
	s.previewMu.Unlock()
	if ok {
		return data, nil
	}

	v, err, _ := s.previewGroup.Do(string(hash), func() (any, error) {
		data, err := tasks.CallQuiet[[]byte](ctx, s.runner, ports.OpPreview, hash)
		if err != nil {
			return nil, err
		}
		s.previewMu.Lock()
		s.previews[hash] = data
		s.previewMu.Unlock()
		return data, nil
	})
	if err != nil {
		logging.Logger.Warn("Failed to load preview", "hash", hash, "error", err)
		return nil, fmt.Errorf("failed to load preview: %w", err)
	}
	return v.([]byte), nil
}

// Mods returns a snapshot of the load order
func (s *ModSessionService) Mods() []domain.Mod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Mods()
}

// Mod returns the mod with the given hash
func (s *ModSessionService) Mod(hash domain.Hash) (domain.Mod, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Get(hash)
}

// Dirty reports whether there are local edits not yet applied
func (s *ModSessionService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Revision() != s.cleanRevision
}

// Busy reports whether a backend call is in flight
func (s *ModSessionService) Busy() bool {
	return s.runner.Busy()
}

// OnBusyChange registers fn to be called when the busy flag flips.
// fn runs on the goroutine that made the call and must not block.
func (s *ModSessionService) OnBusyChange(fn func(busy bool)) {
	s.runner.OnBusyChange(fn)
}

// OnProgress registers fn for every progress record of this session
func (s *ModSessionService) OnProgress(fn func(record domain.LogRecord)) {
	s.runner.OnProgress(fn)
}

// OwnersOf returns the mods touching a virtual path, with their current state
func (s *ModSessionService) OwnersOf(path string) []domain.Mod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(s.conflicts.OwnerHashes(path))
}

// Conflicts returns the virtual paths touched by more than one mod
func (s *ModSessionService) Conflicts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflicts.Conflicts()
}

// ConflictingWith returns the mods sharing a file with the given one
func (s *ModSessionService) ConflictingWith(hash domain.Hash) []domain.Mod {
	s.mu.Lock()
	defer s.mu.Unlock()

	others := s.conflicts.ConflictingWith(hash)
	hashes := make([]domain.Hash, len(others))
	for i, m := range others {
		hashes[i] = m.Hash
	}
	return s.resolveLocked(hashes)
}

func (s *ModSessionService) resolveLocked(hashes []domain.Hash) []domain.Mod {
	result := make([]domain.Mod, 0, len(hashes))
	for _, h := range hashes {
		if m, ok := s.collection.Get(h); ok {
			result = append(result, m)
		}
	}
	return result
}

// Profiles returns the profile names known to the backend
func (s *ModSessionService) Profiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.profiles)
}

// CurrentProfile returns the active profile
func (s *ModSessionService) CurrentProfile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentProfile
}

// Log returns the session log
func (s *ModSessionService) Log() []domain.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

// LastLog returns the most recent log record
func (s *ModSessionService) LastLog() (domain.LogRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.log) == 0 {
		return domain.LogRecord{}, false
	}
	return s.log[len(s.log)-1], true
}

// LastError returns the last failure surfaced by a backend flow
func (s *ModSessionService) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError dismisses the last failure
func (s *ModSessionService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = nil
}

func (s *ModSessionService) appendLog(record domain.LogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, record)
}

// replaceLocked swaps the whole collection and marks the session clean
func (s *ModSessionService) replaceLocked(mods []domain.Mod) {
	s.collection.ReplaceAll(mods)
	s.conflicts = domain.BuildConflictIndex(s.collection.Mods())
	s.cleanRevision = s.collection.Revision()
	s.selection.Clear()
	s.drag.Reset()
}

func (s *ModSessionService) fail(msg string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(msg, err)
}

func (s *ModSessionService) failLocked(msg string, err error) error {
	wrapped := fmt.Errorf("%s: %w", msg, err)
	s.lastError = wrapped
	logging.Logger.Error("Session operation failed", "operation", msg, "error", err)
	return wrapped
}
