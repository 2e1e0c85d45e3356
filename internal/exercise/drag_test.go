package exercise

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

type recorder struct{ moves []question.Move }

func (r *recorder) sink(mv question.Move) { r.moves = append(r.moves, mv) }

func newTestCoordinator() (*Coordinator, *recorder) {
	rec := &recorder{}
	return NewCoordinator(catOak().Categories, rec.sink), rec
}

func TestCoordinator_DropOverTargetEmitsOnce(t *testing.T) {
	c, rec := newTestCoordinator()

	require.NoError(t, c.Begin("1"))
	require.Equal(t, Dragging, c.State())
	require.Equal(t, "1", c.Active())

	c.Hover("Animal")
	c.Hover("Plant")
	require.True(t, c.IsOver("Plant"))
	require.False(t, c.IsOver("Animal"))

	mv, ok, err := c.End()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, question.Move{ItemID: "1", CategoryName: "Plant"}, mv)
	require.Equal(t, []question.Move{mv}, rec.moves)

	require.Equal(t, Idle, c.State())
	require.Equal(t, Dropped, c.Outcome())
	require.Empty(t, c.Active())
	require.False(t, c.IsOver("Plant"), "hover projection must reset after a drop")
}

func TestCoordinator_DropOutsideCancels(t *testing.T) {
	cases := []struct {
		name  string
		hover []string
	}{
		{"never hovered", nil},
		{"left the target", []string{"Plant", ""}},
		{"over a non-target", []string{"Animal", "Trash"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestCoordinator()
			require.NoError(t, c.Begin("2"))
			for _, h := range tc.hover {
				c.Hover(h)
			}
			_, ok, err := c.End()
			require.NoError(t, err)
			require.False(t, ok)
			require.Empty(t, rec.moves)
			require.Equal(t, Idle, c.State())
			require.Equal(t, Cancelled, c.Outcome())
		})
	}
}

func TestCoordinator_SingleDragAtATime(t *testing.T) {
	c, _ := newTestCoordinator()
	require.NoError(t, c.Begin("1"))
	err := c.Begin("2")
	require.True(t, errors.Is(err, ErrDragInProgress))
	require.Equal(t, "1", c.Active())
}

func TestCoordinator_InvalidTransitions(t *testing.T) {
	c, rec := newTestCoordinator()

	_, _, err := c.End()
	require.ErrorIs(t, err, ErrNotDragging)

	require.ErrorIs(t, c.Begin(""), ErrNoItem)

	c.Hover("Plant") // ignored while idle
	require.Empty(t, c.Hovered())

	c.Cancel() // no-op while idle
	require.Equal(t, Idle, c.Outcome())
	require.Empty(t, rec.moves)
}

func TestCoordinator_CancelKeepsItemInPlace(t *testing.T) {
	c, rec := newTestCoordinator()
	require.NoError(t, c.Begin("1"))
	c.Hover("Plant")
	c.Cancel()
	require.Equal(t, Idle, c.State())
	require.Equal(t, Cancelled, c.Outcome())
	require.Empty(t, rec.moves)

	// a fresh drag works after cancelling
	mv, ok, err := c.Drop("Animal")
	require.ErrorIs(t, err, ErrNotDragging)
	require.False(t, ok)
	require.Zero(t, mv)

	require.NoError(t, c.Begin("1"))
	mv, ok, err = c.Drop("Animal")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Animal", mv.CategoryName)
}

func TestCoordinator_SinkSeesDroppedState(t *testing.T) {
	var seen DragState
	var c *Coordinator
	c = NewCoordinator(catOak().Categories, func(question.Move) { seen = c.State() })
	require.NoError(t, c.Begin("1"))
	_, _, _ = c.Drop("Plant")
	require.Equal(t, Dropped, seen)
}

func TestCoordinator_SetTargetsClearsStaleHover(t *testing.T) {
	c, _ := newTestCoordinator()
	require.NoError(t, c.Begin("1"))
	c.Hover("Plant")
	c.SetTargets([]question.Category{{Name: "Animal"}})
	require.Empty(t, c.Hovered())
	c.Hover("Plant")
	require.Empty(t, c.Hovered())
	require.Equal(t, Dragging, c.State())
}
