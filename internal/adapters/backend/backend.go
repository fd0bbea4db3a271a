package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ports"
	"github.com/renato0307/modshell/internal/tasks"
)

// ErrUnknownOperation is returned for op names with no registered handler
var ErrUnknownOperation = errors.New("unknown operation")

// Handler serves one backend operation. Returned errors are reported to the
// caller in-band, as a failure payload.
type Handler func(ctx context.Context, progress ports.ProgressFunc, args []json.RawMessage) (any, error)

// LocalBackend implements ports.TaskCaller in process, on top of the SQLite
// store and the mod file reader
type LocalBackend struct {
	applyMu  sync.Mutex
	handlers map[string]Handler
	paths    config.Paths
	reader   ports.ModReader
	store    ports.ModStore
}

// Verify interface compliance at compile time
var _ ports.TaskCaller = (*LocalBackend)(nil)

// NewLocalBackend creates a backend with every operation registered
func NewLocalBackend(store ports.ModStore, reader ports.ModReader, paths config.Paths) *LocalBackend {
	b := &LocalBackend{
		handlers: make(map[string]Handler),
		paths:    paths,
		reader:   reader,
		store:    store,
	}

	b.Register(ports.OpAddMod, b.addMod)
	b.Register(ports.OpApply, b.apply)
	b.Register(ports.OpConvertMod, b.convertMod)
	b.Register(ports.OpCurrentProfile, b.currentProfile)
	b.Register(ports.OpMods, b.mods)
	b.Register(ports.OpParseMod, b.parseMod)
	b.Register(ports.OpPreview, b.preview)
	b.Register(ports.OpProfiles, b.profiles)

	return b
}

// Register adds or replaces the handler of an operation
func (b *LocalBackend) Register(op string, h Handler) {
	b.handlers[op] = h
}

// Call implements ports.TaskCaller.Call. Unknown operations, malformed
// arguments and cancelled contexts are returned as errors; handler failures
// come back as a tasks.Payload.
func (b *LocalBackend) Call(ctx context.Context, op string, progress ports.ProgressFunc, args []json.RawMessage) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, ok := b.handlers[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	if progress == nil {
		progress = func(domain.LogRecord) {}
	}

	result, err := h(ctx, progress, args)
	if err != nil {
		var argErr *argumentError
		if errors.As(err, &argErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		logging.Logger.Warn("Backend operation failed", "op", op, "error", err)
		return json.Marshal(tasks.NewPayload(err))
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", op, err)
	}
	return data, nil
}

type argumentError struct {
	index int
	err   error
}

func (e *argumentError) Error() string {
	return fmt.Sprintf("argument %d: %v", e.index, e.err)
}

func (e *argumentError) Unwrap() error {
	return e.err
}

// arg decodes argument i. Missing optional arguments decode to the zero value.
func arg[T any](args []json.RawMessage, i int, required bool) (T, error) {
	var v T
	if i >= len(args) {
		if required {
			return v, &argumentError{index: i, err: errors.New("missing")}
		}
		return v, nil
	}
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, &argumentError{index: i, err: err}
	}
	return v, nil
}

func (b *LocalBackend) mods(ctx context.Context, _ ports.ProgressFunc, _ []json.RawMessage) (any, error) {
	profile, err := b.store.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}
	mods, err := b.store.LoadProfile(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", profile, err)
	}
	return mods, nil
}

func (b *LocalBackend) profiles(ctx context.Context, _ ports.ProgressFunc, _ []json.RawMessage) (any, error) {
	return b.store.ListProfiles(ctx)
}

func (b *LocalBackend) currentProfile(ctx context.Context, _ ports.ProgressFunc, _ []json.RawMessage) (any, error) {
	return b.store.CurrentProfile(ctx)
}

func (b *LocalBackend) preview(ctx context.Context, _ ports.ProgressFunc, args []json.RawMessage) (any, error) {
	hash, err := arg[domain.Hash](args, 0, true)
	if err != nil {
		return nil, err
	}
	mod, err := b.store.GetMod(ctx, hash)
	if err != nil {
		return nil, err
	}
	return b.reader.Preview(mod.Path)
}

func (b *LocalBackend) parseMod(_ context.Context, progress ports.ProgressFunc, args []json.RawMessage) (any, error) {
	path, err := arg[string](args, 0, true)
	if err != nil {
		return nil, err
	}
	progress(info("Opening " + path))
	return b.reader.Parse(path)
}

func (b *LocalBackend) convertMod(_ context.Context, progress ports.ProgressFunc, args []json.RawMessage) (any, error) {
	path, err := arg[string](args, 0, true)
	if err != nil {
		return nil, err
	}
	meta, err := arg[*domain.Meta](args, 1, false)
	if err != nil {
		return nil, err
	}

	progress(info("Converting " + path))
	staged, err := b.reader.Convert(path, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mod: %w", err)
	}
	mod, err := b.reader.Parse(staged)
	if err != nil {
		b.removeStaged(staged)
		return nil, err
	}
	return mod, nil
}

func (b *LocalBackend) addMod(ctx context.Context, progress ports.ProgressFunc, args []json.RawMessage) (any, error) {
	path, err := arg[string](args, 0, true)
	if err != nil {
		return nil, err
	}
	// Converted mods are staged copies; the installed copy replaces them
	if b.isStaged(path) {
		defer b.removeStaged(path)
	}

	mod, err := b.reader.Parse(path)
	if err != nil {
		return nil, err
	}
	// Already in the catalog: another profile or an earlier add installed it
	if stored, err := b.store.GetMod(ctx, mod.Hash); err == nil {
		stored.Enabled = false
		stored.EnabledOptions = mod.EnabledOptions
		logging.Logger.Info("Mod already installed", "hash", stored.Hash, "path", stored.Path)
		return stored, nil
	} else if !errors.Is(err, domain.ErrModNotFound) {
		return nil, err
	}

	progress(info("Installing " + mod.Meta.Name))
	installed, err := b.reader.Install(*mod, b.paths.Mods())
	if err != nil {
		return nil, err
	}
	mod.Path = installed
	mod.Enabled = false

	if err := b.store.AddMod(ctx, *mod); err != nil {
		return nil, fmt.Errorf("failed to register mod: %w", err)
	}

	logging.Logger.Info("Mod registered", "hash", mod.Hash, "path", installed)
	return mod, nil
}

// isStaged reports whether path lies inside the staging directory
func (b *LocalBackend) isStaged(path string) bool {
	staging, err := filepath.Abs(b.paths.Staging())
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(staging, abs)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (b *LocalBackend) removeStaged(path string) {
	if err := os.RemoveAll(path); err != nil {
		logging.Logger.Warn("Failed to remove staged mod", "path", path, "error", err)
		return
	}
	logging.Logger.Debug("Staged mod removed", "path", path)
}

func (b *LocalBackend) apply(ctx context.Context, progress ports.ProgressFunc, args []json.RawMessage) (any, error) {
	payload, err := arg[[]domain.Mod](args, 0, true)
	if err != nil {
		return nil, err
	}

	b.applyMu.Lock()
	defer b.applyMu.Unlock()

	err = withFileLock(b.paths.Lock(), func() error {
		return b.applyLocked(ctx, progress, payload)
	})
	if err != nil {
		return nil, err
	}
	return true, nil
}

func (b *LocalBackend) applyLocked(ctx context.Context, progress ports.ProgressFunc, payload []domain.Mod) error {
	profile, err := b.store.CurrentProfile(ctx)
	if err != nil {
		return err
	}

	progress(info(fmt.Sprintf("Validating %d mods", len(payload))))

	// Manifests and metadata come from the store; only state comes from the caller
	mods := make([]domain.Mod, 0, len(payload))
	seen := make(map[domain.Hash]bool, len(payload))
	for _, m := range payload {
		if seen[m.Hash] {
			return fmt.Errorf("%w: %s listed twice", domain.ErrDuplicateMod, m.Hash)
		}
		seen[m.Hash] = true

		stored, err := b.store.GetMod(ctx, m.Hash)
		if err != nil {
			return err
		}
		if err := domain.ValidateOptions(stored.Meta, m.EnabledOptions); err != nil {
			return fmt.Errorf("mod %s: %w", stored.Meta.Name, err)
		}
		stored.Enabled = m.Enabled
		stored.EnabledOptions = m.EnabledOptions
		mods = append(mods, *stored)
	}

	previous, err := b.store.LoadProfile(ctx, profile)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}
	removed := 0
	for _, m := range previous {
		if !seen[m.Hash] {
			removed++
		}
	}
	if removed > 0 {
		progress(info(fmt.Sprintf("Removing %d mods from %s", removed, profile)))
	}

	progress(info("Saving load order"))
	if err := b.store.SaveProfile(ctx, profile, mods); err != nil {
		return fmt.Errorf("failed to save load order: %w", err)
	}

	progress(info("Building deploy plan"))
	plan := buildDeployPlan(profile, mods)
	if err := writeDeployPlan(b.paths.Deploy(profile), plan); err != nil {
		return err
	}

	progress(info(fmt.Sprintf("Applied %d mods, %d files deployed", len(mods), len(plan.Files))))
	logging.Logger.Info("Load order applied",
		"profile", profile,
		"mods", len(mods),
		"removed", removed,
		"files", len(plan.Files))
	return nil
}

func info(msg string) domain.LogRecord {
	return domain.LogRecord{Level: domain.LevelInfo, Message: msg, Time: time.Now()}
}
