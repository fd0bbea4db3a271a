package domain

import (
	"fmt"
	"iter"
	"slices"
)

// ModCollection is the ordered list of mods that makes up a load order.
//
// Position is priority: index 0 is the lowest priority and the last index
// the highest, so a mod appended by Add wins file conflicts by default.
// Hashes are unique. ModCollection is not safe for concurrent use; its owner
// serializes access.
type ModCollection struct {
	byHash   map[Hash]*Mod
	mods     []*Mod
	revision uint64
}

// NewModCollection creates a collection holding copies of the given mods
func NewModCollection(mods []Mod) *ModCollection {
	c := &ModCollection{}
	c.ReplaceAll(mods)
	return c
}

// ReplaceAll swaps the whole content of the collection.
// When the input repeats a hash, the first occurrence wins.
func (c *ModCollection) ReplaceAll(mods []Mod) {
	c.mods = make([]*Mod, 0, len(mods))
	c.byHash = make(map[Hash]*Mod, len(mods))
	for _, m := range mods {
		if _, dup := c.byHash[m.Hash]; dup {
			continue
		}
		mod := m.Clone()
		c.mods = append(c.mods, &mod)
		c.byHash[mod.Hash] = &mod
	}
	c.revision++
}

// Add appends a mod at the end (highest priority)
func (c *ModCollection) Add(mod Mod) error {
	if _, exists := c.byHash[mod.Hash]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMod, mod.Hash)
	}
	if c.byHash == nil {
		c.byHash = make(map[Hash]*Mod)
	}
	m := mod.Clone()
	c.mods = append(c.mods, &m)
	c.byHash[m.Hash] = &m
	c.revision++
	return nil
}

// Remove deletes the mod with the given hash. It returns false if absent.
func (c *ModCollection) Remove(hash Hash) bool {
	target, ok := c.byHash[hash]
	if !ok {
		return false
	}
	c.mods = slices.DeleteFunc(c.mods, func(m *Mod) bool { return m == target })
	delete(c.byHash, hash)
	c.revision++
	return true
}

// Toggle flips the enabled flag of a mod. Stale references are ignored and
// reported by returning false.
func (c *ModCollection) Toggle(hash Hash) bool {
	m, ok := c.byHash[hash]
	if !ok {
		return false
	}
	m.Enabled = !m.Enabled
	c.revision++
	return true
}

// SetEnabled sets the enabled flag of a mod
func (c *ModCollection) SetEnabled(hash Hash, enabled bool) bool {
	m, ok := c.byHash[hash]
	if !ok {
		return false
	}
	if m.Enabled != enabled {
		m.Enabled = enabled
		c.revision++
	}
	return true
}

// SetEnabledOptions replaces the enabled options of a mod after validating
// them against its option groups
func (c *ModCollection) SetEnabledOptions(hash Hash, ids []string) error {
	m, ok := c.byHash[hash]
	if !ok {
		return fmt.Errorf("%w: %s", ErrModNotFound, hash)
	}
	if err := ValidateOptions(m.Meta, ids); err != nil {
		return err
	}
	m.EnabledOptions = slices.Clone(ids)
	c.revision++
	return nil
}

// Reorder moves the mods at the selected positions so that, once they are
// taken out of the list, the block starts at target. The block keeps the
// order in which positions were given. Out of range and repeated positions
// are ignored and target is clamped to the remaining length.
//
// It returns the positions the moved mods occupy afterwards, or nil when
// nothing valid was selected.
func (c *ModCollection) Reorder(selected []int, target int) []int {
	valid, _ := NormalizePositions(selected, len(c.mods))
	if len(valid) == 0 {
		return nil
	}

	// Work on identities: positions go stale as soon as anything is removed.
	moving := make([]*Mod, len(valid))
	for i, pos := range valid {
		moving[i] = c.mods[pos]
	}

	remaining := make([]*Mod, 0, len(c.mods)-len(moving))
	for _, m := range c.mods {
		if !slices.Contains(moving, m) {
			remaining = append(remaining, m)
		}
	}

	target = max(0, min(target, len(remaining)))

	reordered := make([]*Mod, 0, len(c.mods))
	reordered = append(reordered, remaining[:target]...)
	reordered = append(reordered, moving...)
	reordered = append(reordered, remaining[target:]...)

	if !slices.Equal(reordered, c.mods) {
		c.mods = reordered
		c.revision++
	}

	positions := make([]int, len(moving))
	for i := range moving {
		positions[i] = target + i
	}
	return positions
}

// NormalizePositions splits positions into the valid ones (in given order,
// first occurrence kept) and the rejected ones for a list of length n
func NormalizePositions(positions []int, n int) (valid, rejected []int) {
	seen := make(map[int]bool, len(positions))
	for _, pos := range positions {
		if pos < 0 || pos >= n || seen[pos] {
			rejected = append(rejected, pos)
			continue
		}
		seen[pos] = true
		valid = append(valid, pos)
	}
	return valid, rejected
}

// IndexOf returns the position of the mod with the given hash, or -1
func (c *ModCollection) IndexOf(hash Hash) int {
	target, ok := c.byHash[hash]
	if !ok {
		return -1
	}
	return slices.Index(c.mods, target)
}

// Get returns a copy of the mod with the given hash
func (c *ModCollection) Get(hash Hash) (Mod, bool) {
	m, ok := c.byHash[hash]
	if !ok {
		return Mod{}, false
	}
	return m.Clone(), true
}

// At returns a copy of the mod at the given position
func (c *ModCollection) At(pos int) (Mod, bool) {
	if pos < 0 || pos >= len(c.mods) {
		return Mod{}, false
	}
	return c.mods[pos].Clone(), true
}

// Count returns the number of mods
func (c *ModCollection) Count() int {
	return len(c.mods)
}

// All iterates positions and copies of the mods in load order
func (c *ModCollection) All() iter.Seq2[int, Mod] {
	return func(yield func(int, Mod) bool) {
		for i, m := range c.mods {
			if !yield(i, m.Clone()) {
				return
			}
		}
	}
}

// Mods returns a snapshot of the mods in load order
func (c *ModCollection) Mods() []Mod {
	result := make([]Mod, len(c.mods))
	for i, m := range c.mods {
		result[i] = m.Clone()
	}
	return result
}

// Hashes returns the load order as a list of hashes
func (c *ModCollection) Hashes() []Hash {
	result := make([]Hash, len(c.mods))
	for i, m := range c.mods {
		result[i] = m.Hash
	}
	return result
}

// Revision returns a stamp that changes on every effective mutation
func (c *ModCollection) Revision() uint64 {
	return c.revision
}
