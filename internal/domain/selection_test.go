package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_SetSortsAndDedupes(t *testing.T) {
	s := NewSelection(4, 1, 4, 2)

	assert.Equal(t, []int{1, 2, 4}, s.Positions())
	assert.Equal(t, 3, s.Len())
}

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection(1)

	s.Toggle(3)
	assert.Equal(t, []int{1, 3}, s.Positions())

	s.Toggle(1)
	assert.Equal(t, []int{3}, s.Positions())
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(3))
}

func TestSelection_Clamp(t *testing.T) {
	s := NewSelection(0, 2, 5)

	s.Clamp(3)

	assert.Equal(t, []int{0, 2}, s.Positions())
}

func TestSelection_Clear(t *testing.T) {
	s := NewSelection(0, 1)

	s.Clear()

	assert.Zero(t, s.Len())
}
