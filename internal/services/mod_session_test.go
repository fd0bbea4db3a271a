package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/ports"
	portsmocks "github.com/renato0307/modshell/internal/ports/mocks"
	"github.com/renato0307/modshell/internal/tasks"
)

// fakeBackend is an in-memory TaskCaller. It keeps the applied load order
// and can park apply calls until released.
type fakeBackend struct {
	mu          sync.Mutex
	applied     []domain.Mod
	applyErr    *tasks.Payload
	applyGate   chan struct{}
	applyCalled chan struct{}
	calls       map[string]int
}

func newFakeBackend(mods []domain.Mod) *fakeBackend {
	return &fakeBackend{applied: mods, calls: make(map[string]int)}
}

func (b *fakeBackend) Call(ctx context.Context, op string, progress ports.ProgressFunc, args []json.RawMessage) (json.RawMessage, error) {
	b.mu.Lock()
	b.calls[op]++
	b.mu.Unlock()

	switch op {
	case ports.OpMods:
		b.mu.Lock()
		defer b.mu.Unlock()
		return json.Marshal(b.applied)
	case ports.OpProfiles:
		return json.RawMessage(`["Default","Hardcore"]`), nil
	case ports.OpCurrentProfile:
		return json.RawMessage(`"Default"`), nil
	case ports.OpApply:
		if b.applyCalled != nil {
			close(b.applyCalled)
		}
		if b.applyGate != nil {
			<-b.applyGate
		}
		progress(domain.LogRecord{Level: domain.LevelInfo, Message: "Applying load order"})
		if b.applyErr != nil {
			return json.Marshal(b.applyErr)
		}
		var mods []domain.Mod
		if err := json.Unmarshal(args[0], &mods); err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.applied = mods
		b.mu.Unlock()
		return json.RawMessage(`true`), nil
	}
	return nil, assert.AnError
}

func (b *fakeBackend) callCount(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func testMods(names ...string) []domain.Mod {
	mods := make([]domain.Mod, len(names))
	for i, n := range names {
		mods[i] = domain.Mod{
			Hash:     domain.Hash(n),
			Meta:     domain.Meta{Name: n},
			Manifest: domain.Manifest{Content: []string{"shared.pack", n + ".pack"}},
		}
	}
	return mods
}

func hashes(mods []domain.Mod) []domain.Hash {
	result := make([]domain.Hash, len(mods))
	for i, m := range mods {
		result[i] = m.Hash
	}
	return result
}

func loadedSession(t *testing.T, backend ports.TaskCaller) *ModSessionService {
	t.Helper()
	s := NewModSessionService(tasks.NewRunner(backend))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B")))

	assert.Equal(t, []domain.Hash{"A", "B"}, hashes(s.Mods()))
	assert.Equal(t, []string{"Default", "Hardcore"}, s.Profiles())
	assert.Equal(t, "Default", s.CurrentProfile())
	assert.False(t, s.Dirty())
	assert.False(t, s.Busy())
}

func TestLocalEditsMakeSessionDirty(t *testing.T) {
	backend := newFakeBackend(testMods("A", "B", "C"))
	s := loadedSession(t, backend)

	require.True(t, s.ToggleMod("B"))
	assert.True(t, s.Dirty())

	block := s.ReorderMods([]int{2}, 0)
	assert.Equal(t, []int{0}, block)
	assert.Equal(t, []int{0}, s.Selection(), "selection follows the moved block")
	assert.Equal(t, []domain.Hash{"C", "A", "B"}, hashes(s.Mods()))

	assert.Zero(t, backend.callCount(ports.OpApply), "edits never reach the backend")
}

func TestToggleUnknownModIsIgnored(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A")))

	assert.False(t, s.ToggleMod("gone"))
	assert.False(t, s.Dirty())
}

func TestReorderMods_InvalidPositionsAreIgnored(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B", "C")))

	block := s.ReorderMods([]int{9, 1, -2}, 5)

	assert.Equal(t, []int{2}, block)
	assert.Equal(t, []domain.Hash{"A", "C", "B"}, hashes(s.Mods()))
}

func TestApply_SuccessCleansSession(t *testing.T) {
	backend := newFakeBackend(testMods("A", "B"))
	s := loadedSession(t, backend)
	s.ToggleMod("A")
	s.ReorderMods([]int{1}, 0)

	require.NoError(t, s.Apply(context.Background()))

	assert.False(t, s.Dirty())
	assert.Equal(t, []domain.Hash{"B", "A"}, hashes(backend.applied))
	assert.True(t, backend.applied[1].Enabled)
	assert.Equal(t, []domain.Hash{"B", "A"}, hashes(s.Mods()))

	last, ok := s.LastLog()
	require.True(t, ok)
	assert.Equal(t, "Applying load order", last.Message)
}

func TestApply_FailurePreservesCollection(t *testing.T) {
	backend := newFakeBackend(testMods("A", "B", "C"))
	backend.applyErr = &tasks.Payload{Error: tasks.KindUnknownMod, Msg: "mod Z is not installed", Backtrace: "apply\nvalidate"}
	s := loadedSession(t, backend)
	s.ToggleMod("C")
	s.ReorderMods([]int{0, 2}, 1)
	before := s.Mods()

	err := s.Apply(context.Background())

	require.Error(t, err)
	assert.True(t, tasks.IsKind(err, tasks.KindUnknownMod))
	assert.Equal(t, before, s.Mods(), "collection must be untouched")
	assert.True(t, s.Dirty())
	assert.False(t, s.Busy())
	assert.ErrorIs(t, s.LastError(), err)

	s.ClearError()
	assert.NoError(t, s.LastError())
}

func TestApply_RefreshFailureReportsAppliedChanges(t *testing.T) {
	caller := portsmocks.NewMockTaskCaller(t)
	s := loadedMockSession(t, caller, testMods("A", "B"))
	s.ToggleMod("A")

	caller.EXPECT().Call(mock.Anything, ports.OpApply, mock.Anything, mock.Anything).
		Return(json.RawMessage(`true`), nil).Once()
	caller.EXPECT().Call(mock.Anything, ports.OpMods, mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	err := s.Apply(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "changes applied but failed to refresh mods")
	assert.True(t, tasks.IsKind(err, tasks.KindTransport))
	assert.True(t, s.Dirty(), "local view is not reconciled with the backend")
	assert.False(t, s.Busy())
}

func TestApply_EditDuringApplyKeepsSessionDirty(t *testing.T) {
	backend := newFakeBackend(testMods("A", "B"))
	backend.applyGate = make(chan struct{})
	backend.applyCalled = make(chan struct{})
	s := loadedSession(t, backend)
	s.ToggleMod("A")

	done := make(chan error, 1)
	go func() { done <- s.Apply(context.Background()) }()

	<-backend.applyCalled
	assert.True(t, s.Busy())
	require.True(t, s.ToggleMod("B"), "edits are accepted while applying")
	close(backend.applyGate)
	require.NoError(t, <-done)

	assert.True(t, s.Dirty(), "edit made during apply is not applied yet")
	mod, _ := s.Mod("B")
	assert.True(t, mod.Enabled, "local edit survives the refresh")
	assert.False(t, backend.applied[1].Enabled, "in-flight payload was taken before the edit")
}

func TestApply_RefusedWhileBusy(t *testing.T) {
	backend := newFakeBackend(testMods("A"))
	backend.applyGate = make(chan struct{})
	backend.applyCalled = make(chan struct{})
	s := loadedSession(t, backend)

	done := make(chan error, 1)
	go func() { done <- s.Apply(context.Background()) }()
	<-backend.applyCalled

	assert.ErrorIs(t, s.Apply(context.Background()), domain.ErrBusy)
	assert.ErrorIs(t, s.Cancel(context.Background()), domain.ErrBusy)
	_, err := s.AddModFromPath(context.Background(), "/mods/x.zip", nil)
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(backend.applyGate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.callCount(ports.OpApply))
}

func TestCancel_DiscardsLocalEdits(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B")))
	s.ToggleMod("A")
	s.ReorderMods([]int{1}, 0)
	s.Select(0, 1)

	require.NoError(t, s.Cancel(context.Background()))

	assert.False(t, s.Dirty())
	assert.Equal(t, []domain.Hash{"A", "B"}, hashes(s.Mods()))
	assert.Empty(t, s.Selection())
}

func modJSON(t *testing.T, m domain.Mod) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return data
}

func loadedMockSession(t *testing.T, caller *portsmocks.MockTaskCaller, mods []domain.Mod) *ModSessionService {
	t.Helper()
	data, err := json.Marshal(mods)
	require.NoError(t, err)
	caller.EXPECT().Call(mock.Anything, ports.OpMods, mock.Anything, mock.Anything).Return(json.RawMessage(data), nil).Once()
	caller.EXPECT().Call(mock.Anything, ports.OpProfiles, mock.Anything, mock.Anything).Return(json.RawMessage(`["Default"]`), nil).Once()
	caller.EXPECT().Call(mock.Anything, ports.OpCurrentProfile, mock.Anything, mock.Anything).Return(json.RawMessage(`"Default"`), nil).Once()
	return loadedSession(t, caller)
}

func TestAddModFromPath_NativeMod(t *testing.T) {
	caller := portsmocks.NewMockTaskCaller(t)
	s := loadedMockSession(t, caller, testMods("A"))
	mod := domain.Mod{Hash: "N", Path: "/mods/n", Manifest: domain.Manifest{Content: []string{"shared.pack"}}}

	caller.EXPECT().Call(mock.Anything, ports.OpParseMod, mock.Anything, mock.Anything).
		Return(modJSON(t, domain.Mod{Hash: "N", Path: "/downloads/n.zip"}), nil).Once()
	caller.EXPECT().Call(mock.Anything, ports.OpAddMod, mock.Anything, []json.RawMessage{json.RawMessage(`"/downloads/n.zip"`)}).
		Return(modJSON(t, mod), nil).Once()

	added, err := s.AddModFromPath(context.Background(), "/downloads/n.zip", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.Hash("N"), added.Hash)
	assert.Equal(t, []domain.Hash{"A", "N"}, hashes(s.Mods()), "new mod is highest priority")
	assert.True(t, s.Dirty())
	assert.Equal(t, []domain.Hash{"A", "N"}, hashes(s.OwnersOf("Base Files/shared.pack")), "conflict index is rebuilt")
	caller.AssertNotCalled(t, "Call", mock.Anything, ports.OpConvertMod, mock.Anything, mock.Anything)
}

func TestAddModFromPath_ConvertsOnceWhenNotNative(t *testing.T) {
	for _, kind := range []tasks.Kind{tasks.KindMissingMeta, tasks.KindInvalidArchive} {
		t.Run(string(kind), func(t *testing.T) {
			caller := portsmocks.NewMockTaskCaller(t)
			s := loadedMockSession(t, caller, testMods("A"))
			meta := &domain.Meta{Name: "Graphics Pack"}
			payload, _ := json.Marshal(tasks.Payload{Error: kind, Msg: "not a mod"})

			caller.EXPECT().Call(mock.Anything, ports.OpParseMod, mock.Anything, mock.Anything).
				Return(json.RawMessage(payload), nil).Once()
			caller.EXPECT().Call(mock.Anything, ports.OpConvertMod, mock.Anything, mock.Anything).
				RunAndReturn(func(ctx context.Context, op string, progress ports.ProgressFunc, args []json.RawMessage) (json.RawMessage, error) {
					require.Len(t, args, 2)
					assert.JSONEq(t, `"/downloads/gfx"`, string(args[0]))
					var got domain.Meta
					require.NoError(t, json.Unmarshal(args[1], &got))
					assert.Equal(t, "Graphics Pack", got.Name)
					return modJSON(t, domain.Mod{Hash: "G", Path: "/staging/gfx"}), nil
				}).Once()
			caller.EXPECT().Call(mock.Anything, ports.OpAddMod, mock.Anything, []json.RawMessage{json.RawMessage(`"/staging/gfx"`)}).
				Return(modJSON(t, domain.Mod{Hash: "G", Path: "/mods/g"}), nil).Once()

			_, err := s.AddModFromPath(context.Background(), "/downloads/gfx", meta)

			require.NoError(t, err)
			caller.AssertNumberOfCalls(t, "Call", 3+3)
			assert.Equal(t, []domain.Hash{"A", "G"}, hashes(s.Mods()))
		})
	}
}

func TestAddModFromPath_OtherParseErrorsAreNotConverted(t *testing.T) {
	caller := portsmocks.NewMockTaskCaller(t)
	s := loadedMockSession(t, caller, testMods("A"))
	payload, _ := json.Marshal(tasks.Payload{Error: tasks.KindIO, Msg: "permission denied"})

	caller.EXPECT().Call(mock.Anything, ports.OpParseMod, mock.Anything, mock.Anything).
		Return(json.RawMessage(payload), nil).Once()

	_, err := s.AddModFromPath(context.Background(), "/downloads/x.zip", nil)

	require.Error(t, err)
	assert.True(t, tasks.IsKind(err, tasks.KindIO), "original error is surfaced")
	caller.AssertNotCalled(t, "Call", mock.Anything, ports.OpConvertMod, mock.Anything, mock.Anything)
	caller.AssertNotCalled(t, "Call", mock.Anything, ports.OpAddMod, mock.Anything, mock.Anything)
	assert.Equal(t, []domain.Hash{"A"}, hashes(s.Mods()))
	assert.False(t, s.Dirty())
}

func TestAddModFromPath_ConvertFailureSurfacesLastError(t *testing.T) {
	caller := portsmocks.NewMockTaskCaller(t)
	s := loadedMockSession(t, caller, testMods("A"))
	parseFail, _ := json.Marshal(tasks.Payload{Error: tasks.KindMissingMeta, Msg: "no meta"})
	convertFail, _ := json.Marshal(tasks.Payload{Error: tasks.KindMetaRequired, Msg: "name required"})

	caller.EXPECT().Call(mock.Anything, ports.OpParseMod, mock.Anything, mock.Anything).
		Return(json.RawMessage(parseFail), nil).Once()
	caller.EXPECT().Call(mock.Anything, ports.OpConvertMod, mock.Anything, mock.Anything).
		Return(json.RawMessage(convertFail), nil).Once()

	_, err := s.AddModFromPath(context.Background(), "/downloads/x", nil)

	assert.True(t, tasks.IsKind(err, tasks.KindMetaRequired))
	assert.Equal(t, []domain.Hash{"A"}, hashes(s.Mods()))
	assert.False(t, s.Dirty())
}

func TestAddModFromPath_AddFailureLeavesCollection(t *testing.T) {
	caller := portsmocks.NewMockTaskCaller(t)
	s := loadedMockSession(t, caller, testMods("A"))

	caller.EXPECT().Call(mock.Anything, ports.OpParseMod, mock.Anything, mock.Anything).
		Return(modJSON(t, domain.Mod{Hash: "N", Path: "/x"}), nil).Once()
	caller.EXPECT().Call(mock.Anything, ports.OpAddMod, mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	_, err := s.AddModFromPath(context.Background(), "/x", nil)

	assert.True(t, tasks.IsKind(err, tasks.KindTransport))
	assert.Equal(t, 1, len(s.Mods()))
}

func TestPreview_FetchedOnce(t *testing.T) {
	caller := portsmocks.NewMockTaskCaller(t)
	s := loadedMockSession(t, caller, testMods("A"))
	img, _ := json.Marshal([]byte{0xff, 0xd8})

	caller.EXPECT().Call(mock.Anything, ports.OpPreview, mock.Anything, []json.RawMessage{json.RawMessage(`"A"`)}).
		Return(json.RawMessage(img), nil).Once()

	for range 3 {
		data, err := s.Preview(context.Background(), "A")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xd8}, data)
	}
}

func TestDragAndDrop(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B", "C", "D", "E")))
	s.Select(0, 2)

	require.True(t, s.BeginDrag(domain.Point{X: 1, Y: 1}))
	s.DragOver(2)
	assert.Equal(t, 2, s.DragTarget())

	block, ok := s.Drop(2)

	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, block)
	assert.Equal(t, []domain.Hash{"B", "D", "A", "C", "E"}, hashes(s.Mods()))
	assert.False(t, s.Dragging())
}

func TestCancelDragLeavesOrder(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B")))
	s.Select(1)
	require.True(t, s.BeginDrag(domain.Point{}))

	s.CancelDrag()
	_, ok := s.Drop(0)

	assert.False(t, ok)
	assert.Equal(t, []domain.Hash{"A", "B"}, hashes(s.Mods()))
	assert.False(t, s.Dirty())
}

func TestConflictQueriesUseCurrentState(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B", "C")))
	s.ToggleMod("B")

	owners := s.OwnersOf("Base Files/shared.pack")
	require.Len(t, owners, 3)
	assert.True(t, owners[1].Enabled)

	assert.Equal(t, []string{"Base Files/shared.pack"}, s.Conflicts())
	assert.Equal(t, []domain.Hash{"A", "C"}, hashes(s.ConflictingWith("B")))
	assert.Empty(t, s.OwnersOf("Base Files/none.pack"))
}

func TestRemoveMod(t *testing.T) {
	s := loadedSession(t, newFakeBackend(testMods("A", "B")))
	s.Select(1)

	require.True(t, s.RemoveMod("B"))

	assert.Equal(t, []domain.Hash{"A"}, hashes(s.Mods()))
	assert.Empty(t, s.Selection())
	assert.Len(t, s.OwnersOf("Base Files/shared.pack"), 1)
	assert.True(t, s.Dirty())
}
