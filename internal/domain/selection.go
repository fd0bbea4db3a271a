package domain

import "slices"

// Selection is the set of list positions currently selected in the UI
type Selection struct {
	positions []int
}

// NewSelection creates a selection from positions; duplicates are dropped
func NewSelection(positions ...int) Selection {
	var s Selection
	s.Set(positions)
	return s
}

// Set replaces the selection
func (s *Selection) Set(positions []int) {
	s.positions = slices.Clone(positions)
	slices.Sort(s.positions)
	s.positions = slices.Compact(s.positions)
}

// Toggle adds or removes a position (ctrl+click)
func (s *Selection) Toggle(pos int) {
	if i, found := slices.BinarySearch(s.positions, pos); found {
		s.positions = slices.Delete(s.positions, i, i+1)
	} else {
		s.positions = slices.Insert(s.positions, i, pos)
	}
}

// Contains reports whether pos is selected
func (s Selection) Contains(pos int) bool {
	_, found := slices.BinarySearch(s.positions, pos)
	return found
}

// Positions returns the selected positions in ascending order
func (s Selection) Positions() []int {
	return slices.Clone(s.positions)
}

// Len returns the number of selected positions
func (s Selection) Len() int {
	return len(s.positions)
}

// Clamp drops positions that are not valid for a list of length n
func (s *Selection) Clamp(n int) {
	s.positions = slices.DeleteFunc(s.positions, func(p int) bool { return p < 0 || p >= n })
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.positions = nil
}
