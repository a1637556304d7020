package display

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aheckler/fastmail2ynab/internal/types"
)

var (
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cdd6f4"))
	checkedMark  = Success.Render("[x]")
	uncheckedBox = Dim.Render("[ ]")
	helpStyle    = Muted
)

// selectModel is the interactive candidate picker: every row starts
// selected, space toggles one, a toggles all, enter confirms, q or
// esc cancels the whole run.
type selectModel struct {
	candidates []types.Candidate
	selected   []bool
	cursor     int
	confirmed  bool
}

func newSelectModel(candidates []types.Candidate) selectModel {
	selected := make([]bool, len(candidates))
	for i := range selected {
		selected[i] = true
	}
	return selectModel{candidates: candidates, selected: selected}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case " ":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "a":
		all := m.allSelected()
		for i := range m.selected {
			m.selected[i] = !all
		}
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(Bold.Render("Select transactions to import") + "\n\n")
	for i, c := range m.candidates {
		box := uncheckedBox
		if m.selected[i] {
			box = checkedMark
		}
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		tag := ""
		if c.Txn.IsScheduled {
			tag = Dim.Render("  (scheduled)")
		}
		fmt.Fprintf(&b, "%s%s  %-10s  %-32s  %12s  %s%s\n",
			cursor, box, c.DisplayDate, Truncate(c.Payee, 32),
			Amount(c.Amount, c.IsInflow), ScoreBadge(c.Score), tag)
	}
	b.WriteString("\n" + helpStyle.Render("space toggle · a all · enter import · q cancel") + "\n")
	return b.String()
}

func (m selectModel) allSelected() bool {
	for _, s := range m.selected {
		if !s {
			return false
		}
	}
	return true
}

// chosen returns the selected subset. ok is false when the picker was
// cancelled rather than confirmed.
func (m selectModel) chosen() ([]types.Candidate, bool) {
	if !m.confirmed {
		return nil, false
	}
	var out []types.Candidate
	for i, c := range m.candidates {
		if m.selected[i] {
			out = append(out, c)
		}
	}
	return out, true
}

// SelectCandidates runs the interactive picker on the terminal.
// Confirming with everything deselected is valid: the run proceeds and
// marks the candidates reviewed without creating anything.
func SelectCandidates(candidates []types.Candidate) ([]types.Candidate, bool) {
	final, err := tea.NewProgram(newSelectModel(candidates)).Run()
	if err != nil {
		ErrorMsg("selection failed: %v", err)
		return nil, false
	}
	return final.(selectModel).chosen()
}
