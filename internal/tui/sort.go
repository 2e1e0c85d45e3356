package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/exercise"
	"github.com/mind-engage/mindengage-quiz/internal/question"
)

type loadedMsg struct{ err error }

type movedMsg struct {
	mv  question.Move
	err error
}

// SortModel is the categorize screen. The session owns the exercise; the
// model only keeps the cursor and the drag in progress.
type SortModel struct {
	ctx     context.Context
	session *exercise.Session
	drag    *exercise.Coordinator
	log     *zap.Logger

	keys sortKeys
	help help.Model

	cursor int
	hover  int // 0 is "over nothing", i is category i-1
	width  int
}

func NewSort(ctx context.Context, s *exercise.Session, log *zap.Logger) *SortModel {
	if log == nil {
		log = zap.NewNop()
	}
	m := &SortModel{
		ctx:     ctx,
		session: s,
		log:     log,
		keys:    newSortKeys(),
		help:    help.New(),
	}
	m.drag = exercise.NewCoordinator(nil, func(mv question.Move) {
		m.log.Debug("move intent", zap.String("item", mv.ItemID), zap.String("category", mv.CategoryName))
	})
	return m
}

// RunSort blocks until the learner quits.
func RunSort(ctx context.Context, s *exercise.Session, log *zap.Logger) error {
	_, err := tea.NewProgram(NewSort(ctx, s, log), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m *SortModel) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.session.Load(m.ctx)}
	}
}

func (m *SortModel) moveCmd(mv question.Move) tea.Cmd {
	return func() tea.Msg {
		return movedMsg{mv: mv, err: m.session.Move(m.ctx, mv)}
	}
}

// visible lists items the way the columns show them: the unsorted pool first,
// then each category in declared order.
func visible(snap exercise.Snapshot) []question.Item {
	out := append([]question.Item(nil), snap.Layout.Pool(snap.Order)...)
	for _, c := range snap.Layout.Categories {
		out = append(out, snap.Layout.Bucket(c)...)
	}
	return out
}

func (m *SortModel) sync(snap exercise.Snapshot) {
	m.drag.SetTargets(snap.Exercise.Categories)
	if n := len(visible(snap)); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if m.hover > len(snap.Layout.Categories) {
		m.hover = 0
	}
}

func (m *SortModel) setHover(snap exercise.Snapshot, pos int) {
	m.hover = pos
	if pos == 0 {
		m.drag.Hover("")
		return
	}
	m.drag.Hover(snap.Layout.Categories[pos-1])
}

func (m *SortModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.log.Warn("load failed", zap.Error(msg.err))
		}
		m.sync(m.session.Snapshot())
		return m, nil

	case movedMsg:
		if msg.err != nil {
			m.log.Info("move rejected",
				zap.String("item", msg.mv.ItemID),
				zap.String("category", msg.mv.CategoryName),
				zap.Error(msg.err))
		}
		m.sync(m.session.Snapshot())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *SortModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	snap := m.session.Snapshot()
	if snap.Phase != exercise.Ready {
		return m, nil
	}
	n := len(snap.Layout.Categories) + 1

	if m.drag.State() == exercise.Dragging {
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.drag.Cancel()
			m.hover = 0
		case key.Matches(msg, m.keys.right):
			m.setHover(snap, (m.hover+1)%n)
		case key.Matches(msg, m.keys.left):
			m.setHover(snap, (m.hover+n-1)%n)
		case key.Matches(msg, m.keys.drop):
			m.hover = 0
			return m, m.finishDrop(m.drag.End())
		case key.Matches(msg, m.keys.direct):
			pos := int(msg.Runes[0] - '0')
			if pos > len(snap.Layout.Categories) {
				return m, nil
			}
			m.hover = 0
			return m, m.finishDrop(m.drag.Drop(snap.Layout.Categories[pos-1]))
		}
		return m, nil
	}

	items := visible(snap)
	switch {
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.pick):
		if m.cursor < len(items) {
			if err := m.drag.Begin(items[m.cursor].ID); err != nil {
				m.log.Debug("pick ignored", zap.Error(err))
			}
			m.hover = 0
		}
	}
	return m, nil
}

// finishDrop turns a drop result into the move command, nil when the drag
// was cancelled.
func (m *SortModel) finishDrop(mv question.Move, ok bool, err error) tea.Cmd {
	if err != nil || !ok {
		return nil
	}
	return m.moveCmd(mv)
}

func (m *SortModel) View() string {
	snap := m.session.Snapshot()
	switch snap.Phase {
	case exercise.Loading:
		return mutedStyle.Render("Loading exercise…") + "\n"
	case exercise.Failed:
		return errorStyle.Render("Could not load the exercise: "+snap.Message) + "\n\n" +
			mutedStyle.Render("press q to quit") + "\n"
	}

	var b strings.Builder
	if snap.Exercise.Title != "" {
		b.WriteString(titleStyle.Render(snap.Exercise.Title))
		b.WriteString("\n")
	}
	if d := markdown(snap.Exercise.Description, m.width); d != "" {
		b.WriteString(d)
	}

	// the cursor index runs across columns in the same order as visible()
	idx := 0
	line := func(it question.Item) string {
		label := it.Name
		switch {
		case m.drag.Active() == it.ID:
			label = heldStyle.Render("» " + label)
		case idx == m.cursor:
			label = cursorStyle.Render(label)
		}
		idx++
		return label
	}

	pool := snap.Layout.Pool(snap.Order)
	cols := make([]string, 0, len(snap.Layout.Categories)+1)
	cols = append(cols, column("Unsorted", pool, line, columnStyle))
	for i, name := range snap.Layout.Categories {
		style := columnStyle
		if m.drag.IsOver(name) {
			style = overStyle
		}
		title := name
		if i < 9 {
			title = fmt.Sprintf("%d %s", i+1, name)
		}
		cols = append(cols, column(title, snap.Layout.Bucket(name), line, style))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	if snap.Message != "" {
		b.WriteString(errorStyle.Render(snap.Message))
		b.WriteString("\n")
	}
	if snap.Pending > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("saving %d move(s)…", snap.Pending)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(sortHelp{k: m.keys, dragging: m.drag.State() == exercise.Dragging}))
	b.WriteString("\n")
	return b.String()
}

func column(title string, items []question.Item, line func(question.Item) string, style lipgloss.Style) string {
	rows := []string{titleStyle.Render(title)}
	for _, it := range items {
		rows = append(rows, line(it))
	}
	if len(items) == 0 {
		rows = append(rows, mutedStyle.Render("(empty)"))
	}
	return style.Render(strings.Join(rows, "\n"))
}
