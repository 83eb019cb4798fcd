// Package tui provides the interactive terminal front end for asking
// questions of the complaint corpus.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/cirag/internal/rag"
	"github.com/mwiater/cirag/internal/util"
)

const (
	// MinK and MaxK bound the retrieval breadth slider.
	MinK = 2
	MaxK = 10
	// DefaultK is the slider's starting position.
	DefaultK = 4

	noSourcesText = "No relevant complaint records found."
)

// Answerer answers one question with k retrieved passages.
type Answerer interface {
	Ask(ctx context.Context, question string, k int) (rag.AnswerResult, error)
}

// AnswerFunc adapts a function to the Answerer interface.
type AnswerFunc func(ctx context.Context, question string, k int) (rag.AnswerResult, error)

// Ask calls f.
func (f AnswerFunc) Ask(ctx context.Context, question string, k int) (rag.AnswerResult, error) {
	return f(ctx, question, k)
}

// Options configures the UI.
type Options struct {
	Remote   bool
	DefaultK int
	Title    string
}

type model struct {
	ctx       context.Context
	answerer  Answerer
	mode      backendMode
	title     string
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	k         int
	isLoading bool
	asked     string
	result    *rag.AnswerResult
	err       error
	width     int
	height    int
	startedAt time.Time
	elapsed   time.Duration
}

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	result  rag.AnswerResult
	elapsed time.Duration
}

// answerErr is sent when the answerer itself fails.
type answerErr struct{ error }

func initialModel(ctx context.Context, answerer Answerer, opts Options) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "e.g. Why are customers unhappy with refunds?"
	ti.Prompt = "Question: "
	ti.CharLimit = 500
	ti.Focus()

	mode := modeLocal
	if opts.Remote {
		mode = modeRemote
	}
	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Customer Intelligence"
	}
	k := opts.DefaultK
	if k == 0 {
		k = DefaultK
	}

	return &model{
		ctx:      ctx,
		answerer: answerer,
		mode:     mode,
		title:    title,
		input:    ti,
		viewport: viewport.New(100, 10),
		spinner:  s,
		k:        util.Clamp(k, MinK, MaxK),
	}
}

// Run starts the UI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, answerer Answerer, opts Options) error {
	p := tea.NewProgram(initialModel(ctx, answerer, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func askCmd(ctx context.Context, answerer Answerer, question string, k int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := answerer.Ask(ctx, question, k)
		if err != nil {
			return answerErr{error: err}
		}
		return answerMsg{result: res, elapsed: time.Since(start)}
	}
}

// Init starts the cursor blink.
func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses, resizes and answer results.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up":
			m.k = util.Clamp(m.k+1, MinK, MaxK)
			return m, nil
		case "down":
			m.k = util.Clamp(m.k-1, MinK, MaxK)
			return m, nil
		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			if m.isLoading {
				return m, nil
			}
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.asked = question
			m.isLoading = true
			m.err = nil
			m.startedAt = time.Now()
			m.input.Reset()
			return m, tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.answerer, question, m.k))
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - len(m.input.Prompt) - 2
		headerHeight := 3
		footerHeight := 4
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.refreshViewport()
		return m, nil

	case answerMsg:
		m.isLoading = false
		res := msg.result
		m.result = &res
		m.elapsed = msg.elapsed
		m.refreshViewport()
		return m, nil

	case answerErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.isLoading {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) refreshViewport() {
	if m.result == nil {
		return
	}
	m.viewport.SetContent(renderResult(*m.result, m.viewport.Width))
	m.viewport.GotoTop()
}

// renderResult lays out an answer followed by its citations.
func renderResult(res rag.AnswerResult, width int) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

	var b strings.Builder
	b.WriteString(heading.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(util.WrapToWidth(res.Answer, width))
	b.WriteString("\n\n")
	b.WriteString(heading.Render("Sources"))
	b.WriteString("\n")
	if len(res.Sources) == 0 {
		b.WriteString(noSourcesText)
	} else {
		b.WriteString(strings.Join(res.Sources, "\n"))
	}
	return b.String()
}

// View renders the header, input line and answer pane.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	kStyle := lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("40")).Padding(0, 1).MarginLeft(1)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render(m.title),
		kStyle.Render(fmt.Sprintf("k: %d (up/down %d-%d)", m.k, MinK, MaxK)),
		renderModeBadge(m.mode),
	)

	var body string
	switch {
	case m.isLoading:
		body = fmt.Sprintf("\n  %s Searching complaints for %q... %.1fs\n", m.spinner.View(), m.asked, time.Since(m.startedAt).Seconds())
	case m.err != nil:
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		body = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.result == nil:
		body = lipgloss.NewStyle().Faint(true).Padding(1).Render("Type a question and press enter.")
	default:
		body = m.viewport.View()
	}

	footer := lipgloss.NewStyle().Faint(true).Render("enter: ask  up/down: k  pgup/pgdown: scroll  esc: quit")
	if m.result != nil && !m.isLoading {
		footer = lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("status: %s  %.1fs  ", m.result.Status, m.elapsed.Seconds())) + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.input.View(), body, footer)
}
