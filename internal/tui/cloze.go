package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

// ClozeClient is the part of the HTTP client the cloze screen needs.
type ClozeClient interface {
	FetchCloze(ctx context.Context) (question.Cloze, error)
	SubmitAnswers(ctx context.Context, answers map[string]string) (question.Feedback, error)
}

type clozeLoadedMsg struct {
	cz  question.Cloze
	err error
}

type gradedMsg struct {
	fb  question.Feedback
	err error
}

type ClozeModel struct {
	ctx    context.Context
	client ClozeClient
	log    *zap.Logger

	keys clozeKeys
	help help.Model

	loaded     bool
	submitting bool
	cz         question.Cloze
	inputs     []textinput.Model
	focus      int
	feedback   *question.Feedback
	err        error
	width      int
}

func NewCloze(ctx context.Context, c ClozeClient, log *zap.Logger) *ClozeModel {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClozeModel{
		ctx:    ctx,
		client: c,
		log:    log,
		keys:   newClozeKeys(),
		help:   help.New(),
	}
}

func RunCloze(ctx context.Context, c ClozeClient, log *zap.Logger) error {
	_, err := tea.NewProgram(NewCloze(ctx, c, log), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m *ClozeModel) Init() tea.Cmd {
	return func() tea.Msg {
		cz, err := m.client.FetchCloze(m.ctx)
		return clozeLoadedMsg{cz: cz, err: err}
	}
}

func (m *ClozeModel) answers() map[string]string {
	out := make(map[string]string, len(m.inputs))
	for i, b := range m.cz.Blanks {
		out[b.Name] = strings.TrimSpace(m.inputs[i].Value())
	}
	return out
}

func (m *ClozeModel) setFocus(i int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	m.inputs[m.focus].Blur()
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *ClozeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case clozeLoadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.log.Warn("load failed", zap.Error(msg.err))
			m.err = msg.err
			return m, nil
		}
		m.cz = msg.cz
		m.inputs = make([]textinput.Model, len(msg.cz.Blanks))
		for i, b := range msg.cz.Blanks {
			ti := textinput.New()
			ti.Placeholder = b.Hint
			ti.CharLimit = 200
			ti.Width = 30
			m.inputs[i] = ti
		}
		m.focus = 0
		return m, m.setFocus(0)

	case gradedMsg:
		m.submitting = false
		if msg.err != nil {
			m.log.Info("submit failed", zap.Error(msg.err))
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		fb := msg.fb
		m.feedback = &fb
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case len(m.inputs) == 0:
			return m, nil
		case key.Matches(msg, m.keys.next):
			return m, m.setFocus(m.focus + 1)
		case key.Matches(msg, m.keys.prev):
			return m, m.setFocus(m.focus - 1)
		case key.Matches(msg, m.keys.submit):
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			answers := m.answers()
			return m, func() tea.Msg {
				fb, err := m.client.SubmitAnswers(m.ctx, answers)
				return gradedMsg{fb: fb, err: err}
			}
		}
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// blanked shows {{name}} placeholders as numbered gaps.
func blanked(cz question.Cloze) string {
	text := cz.Text
	for i, b := range cz.Blanks {
		text = strings.ReplaceAll(text, "{{"+b.Name+"}}", fmt.Sprintf("____(%d)", i+1))
	}
	return text
}

func (m *ClozeModel) View() string {
	if !m.loaded {
		return mutedStyle.Render("Loading exercise…") + "\n"
	}
	if len(m.inputs) == 0 && m.err != nil {
		return errorStyle.Render("Could not load the exercise: "+m.err.Error()) + "\n\n" +
			mutedStyle.Render("press esc to quit") + "\n"
	}

	var b strings.Builder
	if m.cz.Title != "" {
		b.WriteString(titleStyle.Render(m.cz.Title))
		b.WriteString("\n")
	}
	if d := markdown(m.cz.Description, m.width); d != "" {
		b.WriteString(d)
	}
	b.WriteString(blanked(m.cz))
	b.WriteString("\n\n")

	for i, bl := range m.cz.Blanks {
		label := fmt.Sprintf("(%d) %s", i+1, bl.Name)
		if i == m.focus {
			label = heldStyle.Render(label)
		}
		b.WriteString(label + "  " + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.submitting:
		b.WriteString(mutedStyle.Render("grading…"))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	case m.feedback != nil:
		b.WriteString(titleStyle.Render(m.feedback.Message))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}
