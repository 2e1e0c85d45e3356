package exercise

import (
	"errors"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

type DragState int

const (
	Idle DragState = iota
	Dragging
	Dropped
	Cancelled
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	ErrDragInProgress = errors.New("another item is already being dragged")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrNoItem         = errors.New("item id required")
)

// Coordinator runs the per-item drag protocol for a single pointer:
// Idle -> Dragging -> (Dropped | Cancelled) -> Idle. Dropped and Cancelled are
// transient; Outcome reports which one the last drag ended in.
//
// Input frameworks only deliver Begin/Hover/End/Cancel. A Coordinator is not
// safe for concurrent use; drive it from one event loop.
type Coordinator struct {
	targets map[string]bool
	sink    func(question.Move)

	state   DragState
	item    string
	hover   string
	outcome DragState
}

// NewCoordinator declares the valid drop targets (one per category). sink
// receives every move intent produced by a drop; it may be nil.
func NewCoordinator(categories []question.Category, sink func(question.Move)) *Coordinator {
	c := &Coordinator{sink: sink, outcome: Idle}
	c.SetTargets(categories)
	return c
}

// SetTargets replaces the declared drop targets. An in-progress drag keeps
// going; a hover over a target that no longer exists is cleared.
func (c *Coordinator) SetTargets(categories []question.Category) {
	c.targets = make(map[string]bool, len(categories))
	for _, cat := range categories {
		c.targets[cat.Name] = true
	}
	if c.hover != "" && !c.targets[c.hover] {
		c.hover = ""
	}
}

func (c *Coordinator) State() DragState { return c.state }

// Outcome is Dropped or Cancelled for the most recent finished drag, Idle if
// none has finished yet.
func (c *Coordinator) Outcome() DragState { return c.outcome }

// Active returns the id of the dragged item, "" when idle.
func (c *Coordinator) Active() string { return c.item }

// Hovered returns the target currently under the pointer, "" for none.
func (c *Coordinator) Hovered() string { return c.hover }

// IsOver is the per-target hover projection.
func (c *Coordinator) IsOver(target string) bool {
	return c.state == Dragging && c.hover != "" && c.hover == target
}

func (c *Coordinator) Begin(itemID string) error {
	if itemID == "" {
		return ErrNoItem
	}
	if c.state == Dragging {
		return ErrDragInProgress
	}
	c.state = Dragging
	c.item = itemID
	c.hover = ""
	return nil
}

// Hover moves the pointer over target. Anything that is not a declared
// target, including "", means the pointer is over no target.
func (c *Coordinator) Hover(target string) {
	if c.state != Dragging {
		return
	}
	if c.targets[target] {
		c.hover = target
		return
	}
	c.hover = ""
}

// End finishes the drag where the pointer is. Over a valid target it emits
// the move intent and returns it with ok=true; otherwise the drag is
// cancelled and nothing is emitted.
func (c *Coordinator) End() (question.Move, bool, error) {
	if c.state != Dragging {
		return question.Move{}, false, ErrNotDragging
	}
	if c.hover == "" || !c.targets[c.hover] {
		c.finish(Cancelled)
		return question.Move{}, false, nil
	}
	mv := question.Move{ItemID: c.item, CategoryName: c.hover}
	c.state = Dropped
	if c.sink != nil {
		c.sink(mv)
	}
	c.finish(Dropped)
	return mv, true, nil
}

// Drop is Hover(target) followed by End, for inputs that name the target
// directly instead of pointing at it.
func (c *Coordinator) Drop(target string) (question.Move, bool, error) {
	c.Hover(target)
	return c.End()
}

// Cancel aborts the drag; the item stays where it was.
func (c *Coordinator) Cancel() {
	if c.state != Dragging {
		return
	}
	c.finish(Cancelled)
}

func (c *Coordinator) finish(outcome DragState) {
	c.outcome = outcome
	c.state = Idle
	c.item = ""
	c.hover = ""
}
