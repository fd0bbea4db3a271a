package backend

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/modshell/internal/adapters/modfile"
	"github.com/renato0307/modshell/internal/adapters/storage"
	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/ports"
	"github.com/renato0307/modshell/internal/services"
	"github.com/renato0307/modshell/internal/tasks"
)

type testEnv struct {
	backend *LocalBackend
	paths   config.Paths
	runner  *tasks.Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	repo, err := storage.NewSQLiteRepository(paths.DB())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	b := NewLocalBackend(repo, modfile.NewReader(paths.Staging()), paths)
	return &testEnv{backend: b, paths: paths, runner: tasks.NewRunner(b)}
}

// writeMod creates a native mod directory touching the given content files
func writeMod(t *testing.T, name string, content ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	files := map[string]string{"meta.yml": "name: " + name + "\nversion: \"1\"\n"}
	for _, c := range content {
		files["content/"+c] = name
	}
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return dir
}

func (e *testEnv) add(t *testing.T, path string) domain.Mod {
	t.Helper()
	mod, err := tasks.Call[domain.Mod](context.Background(), e.runner, ports.OpAddMod, path)
	require.NoError(t, err)
	return mod
}

func (e *testEnv) apply(t *testing.T, mods ...domain.Mod) error {
	t.Helper()
	_, err := e.runner.Run(context.Background(), ports.OpApply, mods)
	return err
}

func TestCall_UnknownOperationIsTransportFault(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.backend.Call(context.Background(), "explode", nil, nil)

	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestCall_BadArgumentsAreTransportFaults(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.backend.Call(context.Background(), ports.OpParseMod, nil, nil)
	assert.Error(t, err)

	_, err = e.backend.Call(context.Background(), ports.OpParseMod, nil, []json.RawMessage{json.RawMessage(`42`)})
	assert.Error(t, err)
}

func TestCall_CancelledContext(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.backend.Call(ctx, ports.OpMods, nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMod_MissingMetaIsInBand(t *testing.T) {
	e := newTestEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content"), 0755))

	arg, err := json.Marshal(dir)
	require.NoError(t, err)

	raw, err := e.backend.Call(context.Background(), ports.OpParseMod, nil, []json.RawMessage{arg})
	require.NoError(t, err, "handler failures are not transport faults")

	var p tasks.Payload
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, tasks.KindMissingMeta, p.Error)
	assert.NotEmpty(t, p.Msg)
}

func TestConvertMod_ReturnsStagedMod(t *testing.T) {
	e := newTestEnv(t)
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "content"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "content", "a.pack"), []byte("x"), 0644))

	mod, err := tasks.Call[domain.Mod](context.Background(), e.runner, ports.OpConvertMod, src, &domain.Meta{Name: "Loose Files"})

	require.NoError(t, err)
	assert.Equal(t, "Loose Files", mod.Meta.Name)
	assert.Equal(t, e.paths.Staging(), filepath.Dir(mod.Path))
}

func TestAddMod_RemovesStagedCopy(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "content"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "content", "a.pack"), []byte("x"), 0644))
	meta := &domain.Meta{Name: "Loose Files"}

	staged, err := tasks.Call[domain.Mod](ctx, e.runner, ports.OpConvertMod, src, meta)
	require.NoError(t, err)
	mod := e.add(t, staged.Path)

	assert.NoDirExists(t, staged.Path)
	assert.DirExists(t, mod.Path)
	assert.DirExists(t, src, "the user's files are left alone")

	// A second conversion of the same mod hits the catalog
	staged, err = tasks.Call[domain.Mod](ctx, e.runner, ports.OpConvertMod, src, meta)
	require.NoError(t, err)
	again := e.add(t, staged.Path)
	assert.Equal(t, mod.Hash, again.Hash)
	assert.NoDirExists(t, staged.Path)

	// Failed adds clean up too
	broken := filepath.Join(e.paths.Staging(), "broken")
	require.NoError(t, os.MkdirAll(broken, 0755))
	_, err = tasks.Call[domain.Mod](ctx, e.runner, ports.OpAddMod, broken)
	require.Error(t, err)
	assert.NoDirExists(t, broken)

	entries, err := os.ReadDir(e.paths.Staging())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddMod_KeepsSourceOutsideStaging(t *testing.T) {
	e := newTestEnv(t)
	src := writeMod(t, "Grass", "Actor/Grass.pack")

	e.add(t, src)

	assert.DirExists(t, src)
	assert.False(t, e.backend.isStaged(src))
	assert.False(t, e.backend.isStaged(e.paths.Staging()))
	assert.True(t, e.backend.isStaged(filepath.Join(e.paths.Staging(), "x-1")))
}

func TestAddMod_InstallsDisabled(t *testing.T) {
	e := newTestEnv(t)

	mod := e.add(t, writeMod(t, "Grass", "Actor/Grass.pack"))

	assert.False(t, mod.Enabled)
	assert.Equal(t, filepath.Join(e.paths.Mods(), string(mod.Hash)), mod.Path)
	assert.DirExists(t, mod.Path)

	again, err := tasks.Call[domain.Mod](context.Background(), e.runner, ports.OpAddMod, writeMod(t, "Grass", "Actor/Grass.pack"))
	require.NoError(t, err, "same meta means same mod, reused from the catalog")
	assert.Equal(t, mod.Hash, again.Hash)
	assert.Equal(t, mod.Path, again.Path)
	assert.False(t, again.Enabled)
}

func TestApply_PersistsOrderAndWritesDeployPlan(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	low := e.add(t, writeMod(t, "Low", "shared.pack", "low.pack"))
	high := e.add(t, writeMod(t, "High", "shared.pack"))
	low.Enabled, high.Enabled = true, true

	var progress []string
	e.runner.OnProgress(func(r domain.LogRecord) { progress = append(progress, r.Message) })

	require.NoError(t, e.apply(t, low, high))

	mods, err := tasks.Call[[]domain.Mod](ctx, e.runner, ports.OpMods)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, low.Hash, mods[0].Hash)
	assert.True(t, mods[1].Enabled)

	plan, err := ReadDeployPlan(e.paths.Deploy(config.DefaultProfile))
	require.NoError(t, err)
	assert.Equal(t, high.Hash, plan.Files["Base Files/shared.pack"].Hash, "last in load order wins")
	assert.Equal(t, low.Hash, plan.Files["Base Files/low.pack"].Hash)
	assert.Equal(t, filepath.Join(high.Path, "content", "shared.pack"), plan.Files["Base Files/shared.pack"].Source)
	assert.NotEmpty(t, progress)

	// Disabled mods never win
	high.Enabled = false
	require.NoError(t, e.apply(t, low, high))
	plan, err = ReadDeployPlan(e.paths.Deploy(config.DefaultProfile))
	require.NoError(t, err)
	assert.Equal(t, low.Hash, plan.Files["Base Files/shared.pack"].Hash)
	assert.Equal(t, []domain.Hash{low.Hash}, plan.LoadOrder)
}

func TestApply_DropsModsMissingFromPayload(t *testing.T) {
	e := newTestEnv(t)
	a := e.add(t, writeMod(t, "A", "a.pack"))
	b := e.add(t, writeMod(t, "B", "b.pack"))
	require.NoError(t, e.apply(t, a, b))

	require.NoError(t, e.apply(t, b))

	mods, err := tasks.Call[[]domain.Mod](context.Background(), e.runner, ports.OpMods)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, b.Hash, mods[0].Hash)
}

func TestApply_UnknownModFailsInBand(t *testing.T) {
	e := newTestEnv(t)
	a := e.add(t, writeMod(t, "A", "a.pack"))
	require.NoError(t, e.apply(t, a))

	err := e.apply(t, a, domain.Mod{Hash: "ghost"})

	assert.True(t, tasks.IsKind(err, tasks.KindUnknownMod))
	mods, err := tasks.Call[[]domain.Mod](context.Background(), e.runner, ports.OpMods)
	require.NoError(t, err)
	assert.Len(t, mods, 1, "failed apply leaves the stored order alone")
}

func TestApply_InvalidOptions(t *testing.T) {
	e := newTestEnv(t)
	a := e.add(t, writeMod(t, "A", "a.pack"))
	a.EnabledOptions = []string{"options/none"}

	err := e.apply(t, a)

	var taskErr *tasks.Error
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, tasks.KindOther, taskErr.Kind)
	assert.Contains(t, taskErr.Message, "invalid mod options")
}

func TestProfilesAndPreview(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	dir := writeMod(t, "Pic", "a.pack")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thumb.jpg"), []byte("JPEG"), 0644))
	mod := e.add(t, dir)

	profiles, err := tasks.Call[[]string](ctx, e.runner, ports.OpProfiles)
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultProfile}, profiles)

	current, err := tasks.Call[string](ctx, e.runner, ports.OpCurrentProfile)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultProfile, current)

	data, err := tasks.Call[[]byte](ctx, e.runner, ports.OpPreview, mod.Hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("JPEG"), data)
}

func TestSession_EndToEnd(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	session := services.NewModSessionService(e.runner)
	require.NoError(t, session.Load(ctx))
	assert.Empty(t, session.Mods())

	a, err := session.AddModFromPath(ctx, writeMod(t, "A", "shared.pack"), nil)
	require.NoError(t, err)
	loose := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(loose, "content"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(loose, "content", "shared.pack"), []byte("x"), 0644))
	b, err := session.AddModFromPath(ctx, loose, &domain.Meta{Name: "B"})
	require.NoError(t, err)

	session.ToggleMod(a.Hash)
	session.ToggleMod(b.Hash)
	session.ReorderMods([]int{1}, 0)
	require.True(t, session.Dirty())

	require.NoError(t, session.Apply(ctx))
	assert.False(t, session.Dirty())

	// A fresh session sees what was applied
	other := services.NewModSessionService(tasks.NewRunner(e.backend))
	require.NoError(t, other.Load(ctx))
	mods := other.Mods()
	require.Len(t, mods, 2)
	assert.Equal(t, b.Hash, mods[0].Hash)
	assert.Equal(t, a.Hash, mods[1].Hash)
	assert.True(t, mods[0].Enabled)

	owners := other.OwnersOf(domain.BaseFilesRoot + "shared.pack")
	require.Len(t, owners, 2)
	assert.Equal(t, a.Hash, owners[1].Hash)
}
