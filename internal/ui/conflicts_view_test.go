package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renato0307/modshell/internal/domain"
)

type indexLookup struct {
	idx *domain.ConflictIndex
}

func (l indexLookup) ConflictingWith(hash domain.Hash) []domain.Mod {
	return l.idx.ConflictingWith(hash)
}

func (l indexLookup) OwnersOf(path string) []domain.Mod {
	return l.idx.OwnersOf(path)
}

func TestConflictReport(t *testing.T) {
	low := domain.Mod{Hash: "low", Enabled: true, Meta: domain.Meta{Name: "Low"}, Manifest: domain.Manifest{Content: []string{"a.pack", "b.pack"}}}
	mid := domain.Mod{Hash: "mid", Enabled: true, Meta: domain.Meta{Name: "Mid"}, Manifest: domain.Manifest{Content: []string{"a.pack"}}}
	high := domain.Mod{Hash: "high", Meta: domain.Meta{Name: "High"}, Manifest: domain.Manifest{Content: []string{"a.pack"}}}
	lookup := indexLookup{idx: domain.BuildConflictIndex([]domain.Mod{low, mid, high})}

	report := conflictReport(lookup, low)

	assert.Contains(t, report, "Shares files with: Mid, High")
	assert.Contains(t, report, "Base Files/a.pack")
	assert.NotContains(t, report, "b.pack", "files owned by one mod are not conflicts")
	assert.Contains(t, report, "2. Mid  (wins)", "disabled mods never win")
	assert.Contains(t, report, "3. High  (disabled)")
}

func TestConflictReport_NoConflicts(t *testing.T) {
	solo := domain.Mod{Hash: "solo", Meta: domain.Meta{Name: "Solo"}, Manifest: domain.Manifest{Content: []string{"x"}}}
	lookup := indexLookup{idx: domain.BuildConflictIndex([]domain.Mod{solo})}

	assert.Contains(t, conflictReport(lookup, solo), "Solo shares no files")
}
