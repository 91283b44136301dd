// Package shell is an interactive front end for the table script language.
package shell

import (
	"fmt"
	"strings"

	"scopecheck/internal/engine/script"
	"scopecheck/internal/engine/symtab"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	scopeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#475569")).
			Padding(0, 1)

	innermostStyle = scopeBoxStyle.
			BorderForeground(lipgloss.Color("#FBBF24"))
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	scopePaneMin  = 28
)

type model struct {
	interp *script.Interpreter
	input  textinput.Model
	output viewport.Model

	transcript []string
	history    []string
	recall     int

	width, height int
	quitting      bool
}

func initialModel(interp *script.Interpreter) model {
	if interp == nil {
		interp = script.New(nil)
	}

	ti := textinput.New()
	ti.Placeholder = "decl x int"
	ti.Prompt = promptStyle.Render("symtab> ")
	ti.CharLimit = 256
	ti.Focus()

	m := model{
		interp: interp,
		input:  ti,
		output: viewport.New(defaultWidth, defaultHeight),
	}
	m.resize(defaultWidth, defaultHeight)
	m.appendLine(statusStyle.Render("type help for commands, quit or ctrl+c to leave"))
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, cmd, handled := handleKeyActions(msg, m); handled {
			return next, cmd
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.resize(msg.Width-h, msg.Height-v)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.output, cmd = m.output.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		if line == "quit" || line == "exit" {
			m.quitting = true
			return m, tea.Quit, true
		}
		m.execute(line)
		return m, nil, true
	case "up":
		if m.recall > 0 {
			m.recall--
			m.input.SetValue(m.history[m.recall])
			m.input.CursorEnd()
		}
		return m, nil, true
	case "down":
		if m.recall < len(m.history)-1 {
			m.recall++
			m.input.SetValue(m.history[m.recall])
			m.input.CursorEnd()
		} else {
			m.recall = len(m.history)
			m.input.SetValue("")
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m *model) execute(line string) {
	if line == "" {
		return
	}
	m.history = append(m.history, line)
	m.recall = len(m.history)
	m.appendLine(promptStyle.Render("> ") + line)

	out, err := m.interp.Exec(line)
	if err != nil {
		m.appendLine(errorStyle.Render("error: ") + err.Error())
		return
	}
	if out = strings.TrimRight(out, "\n"); out != "" {
		m.appendLine(out)
	}
}

func (m *model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.output.SetContent(strings.Join(m.transcript, "\n"))
	m.output.GotoBottom()
}

func (m *model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width, m.height = width, height

	// title, blank line, input, status
	m.output.Width = m.transcriptWidth()
	m.output.Height = max(height-4, 1)
	m.input.Width = max(width-10, 10)
}

func (m model) transcriptWidth() int {
	return max(m.width-m.scopePaneWidth()-1, 20)
}

func (m model) scopePaneWidth() int {
	return max(m.width/3, scopePaneMin)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	table := m.interp.Table()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.output.View(),
		" ",
		renderScopes(table, m.scopePaneWidth()),
	)

	status := fmt.Sprintf("depth %d", table.Depth())
	if table.IsEmpty() {
		status = "no open scopes, use open or reset"
	}

	return docStyle.Render(strings.Join([]string{
		titleStyle("scopecheck shell"),
		body,
		m.input.View(),
		statusStyle.Render(status),
	}, "\n"))
}

// renderScopes draws the scope stack innermost first, one box per scope.
func renderScopes(table *symtab.Table, width int) string {
	views := table.Snapshot()
	if len(views) == 0 {
		return statusStyle.Render("(no scopes)")
	}

	boxes := make([]string, 0, len(views))
	for i, view := range views {
		style := scopeBoxStyle
		if i == 0 {
			style = innermostStyle
		}

		var b strings.Builder
		fmt.Fprintf(&b, "scope %d", view.Index)
		if len(view.Bindings) == 0 {
			b.WriteString("\n" + statusStyle.Render("empty"))
		}
		for _, binding := range view.Bindings {
			fmt.Fprintf(&b, "\n%s %s", binding.Name, binding.Symbol)
		}
		boxes = append(boxes, style.Width(max(width-2, 10)).Render(b.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

// Run starts the shell on the alternate screen and blocks until the user
// quits.
func Run(interp *script.Interpreter) error {
	p := tea.NewProgram(initialModel(interp), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
