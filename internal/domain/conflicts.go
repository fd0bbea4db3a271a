package domain

import (
	"slices"
	"sort"
)

// Virtual path roots used as conflict index keys
const (
	BaseFilesRoot = "Base Files/"
	DLCFilesRoot  = "DLC Files/"
)

// ConflictIndex maps virtual file paths to the mods that touch them.
// Owners are kept in the order the mods were given at build time, which for
// a ModCollection snapshot is ascending priority.
type ConflictIndex struct {
	byHash map[Hash]Mod
	order  map[Hash]int
	owners map[string][]Hash
}

// BuildConflictIndex builds the index from mods in priority order.
// It is rebuilt from scratch whenever the set of mods changes.
func BuildConflictIndex(mods []Mod) *ConflictIndex {
	idx := &ConflictIndex{
		byHash: make(map[Hash]Mod, len(mods)),
		order:  make(map[Hash]int, len(mods)),
		owners: make(map[string][]Hash),
	}
	for i, m := range mods {
		idx.byHash[m.Hash] = m
		idx.order[m.Hash] = i
		for _, p := range m.Manifest.Content {
			idx.add(BaseFilesRoot+p, m.Hash)
		}
		for _, p := range m.Manifest.AOC {
			idx.add(DLCFilesRoot+p, m.Hash)
		}
	}
	return idx
}

func (idx *ConflictIndex) add(path string, hash Hash) {
	owners := idx.owners[path]
	// A manifest may list the same file twice
	if len(owners) > 0 && owners[len(owners)-1] == hash {
		return
	}
	idx.owners[path] = append(owners, hash)
}

// OwnersOf returns the mods touching the given virtual path
func (idx *ConflictIndex) OwnersOf(path string) []Mod {
	if idx == nil {
		return []Mod{}
	}
	hashes := idx.owners[path]
	result := make([]Mod, 0, len(hashes))
	for _, h := range hashes {
		result = append(result, idx.byHash[h])
	}
	return result
}

// OwnerHashes returns the hashes of the mods touching the given virtual path
func (idx *ConflictIndex) OwnerHashes(path string) []Hash {
	if idx == nil {
		return []Hash{}
	}
	return slices.Clone(idx.owners[path])
}

// Paths returns every indexed path, sorted
func (idx *ConflictIndex) Paths() []string {
	if idx == nil {
		return nil
	}
	paths := make([]string, 0, len(idx.owners))
	for p := range idx.owners {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Conflicts returns the sorted paths owned by more than one mod
func (idx *ConflictIndex) Conflicts() []string {
	var paths []string
	for _, p := range idx.Paths() {
		if len(idx.owners[p]) > 1 {
			paths = append(paths, p)
		}
	}
	return paths
}

// ConflictingWith returns the other mods sharing at least one path with the
// given mod, in index order
func (idx *ConflictIndex) ConflictingWith(hash Hash) []Mod {
	if idx == nil {
		return nil
	}
	m, ok := idx.byHash[hash]
	if !ok {
		return nil
	}

	seen := make(map[Hash]bool)
	check := func(path string) {
		for _, h := range idx.owners[path] {
			if h != hash {
				seen[h] = true
			}
		}
	}
	for _, p := range m.Manifest.Content {
		check(BaseFilesRoot + p)
	}
	for _, p := range m.Manifest.AOC {
		check(DLCFilesRoot + p)
	}

	var result []Mod
	for h := range seen {
		result = append(result, idx.byHash[h])
	}
	slices.SortFunc(result, func(a, b Mod) int {
		return idx.order[a.Hash] - idx.order[b.Hash]
	})
	return result
}

// Winner returns the highest priority enabled owner of a path
func (idx *ConflictIndex) Winner(path string) (Mod, bool) {
	if idx == nil {
		return Mod{}, false
	}
	hashes := idx.owners[path]
	for i := len(hashes) - 1; i >= 0; i-- {
		if m := idx.byHash[hashes[i]]; m.Enabled {
			return m, true
		}
	}
	return Mod{}, false
}
