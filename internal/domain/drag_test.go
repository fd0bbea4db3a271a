package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragState_DropFlow(t *testing.T) {
	var d DragState
	assert.Equal(t, DragIdle, d.Phase())

	assert.True(t, d.Begin([]int{1, 3}, Point{X: 4, Y: 9}))
	assert.Equal(t, DragDragging, d.Phase())
	assert.Equal(t, Point{X: 4, Y: 9}, d.Origin())
	assert.Equal(t, -1, d.Target())

	d.Hover(2)
	assert.Equal(t, 2, d.Target())

	sel, ok := d.Drop(0)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 3}, sel)
	assert.Equal(t, DragDropped, d.Phase())
	assert.Equal(t, 0, d.Target())
}

func TestDragState_Cancel(t *testing.T) {
	var d DragState
	d.Begin([]int{0}, Point{})

	d.Cancel()

	assert.Equal(t, DragCancelled, d.Phase())
	_, ok := d.Drop(1)
	assert.False(t, ok, "cannot drop a cancelled drag")
}

func TestDragState_BeginGuards(t *testing.T) {
	var d DragState

	assert.False(t, d.Begin(nil, Point{}), "empty selection")
	assert.True(t, d.Begin([]int{0}, Point{}))
	assert.False(t, d.Begin([]int{1}, Point{}), "already dragging")

	d.Cancel()
	assert.True(t, d.Begin([]int{1}, Point{}), "can start again after cancel")
}

func TestDragState_HoverIgnoredWhenIdle(t *testing.T) {
	var d DragState

	d.Hover(3)

	assert.Equal(t, -1, d.Target())
	assert.Equal(t, DragIdle, d.Phase())
}

func TestDragState_Reset(t *testing.T) {
	var d DragState
	d.Begin([]int{0}, Point{})
	d.Drop(1)

	d.Reset()

	assert.Equal(t, DragIdle, d.Phase())
	assert.Empty(t, d.Selection())
}
