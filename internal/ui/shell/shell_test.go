package shell

import (
	"strings"
	"testing"

	"scopecheck/internal/engine/script"

	tea "github.com/charmbracelet/bubbletea"
)

func typeLine(t *testing.T, m model, line string) model {
	t.Helper()
	m.input.SetValue(line)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state, ok := updated.(model)
	if !ok {
		t.Fatalf("expected model type, got %T", updated)
	}
	return state
}

func TestModel_ExecutesCommands(t *testing.T) {
	interp := script.New(nil)
	m := initialModel(interp)

	m = typeLine(t, m, "decl x int")
	m = typeLine(t, m, "open")
	m = typeLine(t, m, "decl y string")
	m = typeLine(t, m, "global x")

	if got := interp.Table().Depth(); got != 2 {
		t.Fatalf("expected depth 2, got %d", got)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared after enter, got %q", m.input.Value())
	}
	if len(m.history) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(m.history))
	}

	transcript := strings.Join(m.transcript, "\n")
	if !strings.Contains(transcript, "int") {
		t.Fatalf("expected lookup output in transcript, got:\n%s", transcript)
	}

	view := m.View()
	for _, want := range []string{"scope 0", "scope 1", "y string", "depth 2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestModel_ShowsErrors(t *testing.T) {
	m := initialModel(script.New(nil))

	m = typeLine(t, m, "decl x int")
	m = typeLine(t, m, "decl x bool")

	last := m.transcript[len(m.transcript)-1]
	if !strings.Contains(last, "error:") {
		t.Fatalf("expected error line for duplicate declaration, got %q", last)
	}

	m = typeLine(t, m, "close")
	m = typeLine(t, m, "decl z int")
	if !strings.Contains(m.transcript[len(m.transcript)-1], "error:") {
		t.Fatalf("expected error declaring into an empty table")
	}
	if !strings.Contains(m.View(), "no open scopes") {
		t.Fatalf("expected empty-table status in view")
	}
}

func TestModel_BlankLineIgnored(t *testing.T) {
	m := initialModel(nil)
	before := len(m.transcript)

	m = typeLine(t, m, "   ")
	if len(m.transcript) != before || len(m.history) != 0 {
		t.Fatalf("expected blank input to be ignored")
	}
}

func TestModel_HistoryRecall(t *testing.T) {
	m := initialModel(nil)
	m = typeLine(t, m, "open")
	m = typeLine(t, m, "depth")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(model)
	if m.input.Value() != "depth" {
		t.Fatalf("expected last command recalled, got %q", m.input.Value())
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(model)
	if m.input.Value() != "open" {
		t.Fatalf("expected first command recalled, got %q", m.input.Value())
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(model)
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared past newest entry, got %q", m.input.Value())
	}
}

func TestModel_Quit(t *testing.T) {
	m := initialModel(nil)
	m.input.SetValue("quit")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state := updated.(model)
	if !state.quitting {
		t.Fatal("expected quitting after quit command")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if state.View() != "" {
		t.Fatal("expected empty view after quitting")
	}

	updated, _ = initialModel(nil).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !updated.(model).quitting {
		t.Fatal("expected quitting after ctrl+c")
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := initialModel(nil)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	state := updated.(model)

	h, v := docStyle.GetFrameSize()
	if state.width != 120-h || state.height != 40-v {
		t.Fatalf("unexpected size %dx%d", state.width, state.height)
	}
	if state.output.Height != state.height-4 {
		t.Fatalf("expected transcript height %d, got %d", state.height-4, state.output.Height)
	}
}
