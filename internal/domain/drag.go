package domain

// DragPhase is the phase of a drag and drop gesture
type DragPhase string

const (
	DragIdle      DragPhase = "idle"
	DragDragging  DragPhase = "dragging"
	DragDropped   DragPhase = "dropped"
	DragCancelled DragPhase = "cancelled"
)

// Point is a pointer position in whatever units the front end uses
type Point struct {
	X int
	Y int
}

// DragState tracks a reorder gesture independent of rendering:
// Idle -> Dragging(selection, origin) -> Dropped(target) | Cancelled.
// Dropped and Cancelled are terminal until the next Begin.
type DragState struct {
	origin    Point
	phase     DragPhase
	selection []int
	target    int
}

// Phase returns the current phase; the zero value is Idle
func (d *DragState) Phase() DragPhase {
	if d.phase == "" {
		return DragIdle
	}
	return d.phase
}

// Begin starts dragging the selected positions.
// It returns false if a drag is already running or nothing is selected.
func (d *DragState) Begin(selection []int, origin Point) bool {
	if d.Phase() == DragDragging || len(selection) == 0 {
		return false
	}
	d.phase = DragDragging
	d.selection = append([]int(nil), selection...)
	d.origin = origin
	d.target = -1
	return true
}

// Hover records the row currently under the pointer
func (d *DragState) Hover(target int) {
	if d.Phase() == DragDragging {
		d.target = target
	}
}

// Target returns the hovered drop target, or -1 if none
func (d *DragState) Target() int {
	if d.Phase() != DragDragging && d.Phase() != DragDropped {
		return -1
	}
	return d.target
}

// Origin returns the pointer position where the drag started
func (d *DragState) Origin() Point {
	return d.origin
}

// Selection returns the positions being dragged
func (d *DragState) Selection() []int {
	return append([]int(nil), d.selection...)
}

// Drop ends the drag at target and returns the dragged positions.
// It returns false when no drag is running.
func (d *DragState) Drop(target int) ([]int, bool) {
	if d.Phase() != DragDragging {
		return nil, false
	}
	d.phase = DragDropped
	d.target = target
	return d.Selection(), true
}

// Cancel aborts a running drag
func (d *DragState) Cancel() {
	if d.Phase() == DragDragging {
		d.phase = DragCancelled
		d.target = -1
	}
}

// Reset returns to Idle
func (d *DragState) Reset() {
	*d = DragState{}
}
