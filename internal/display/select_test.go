package display

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aheckler/fastmail2ynab/internal/types"
)

func testCandidates() []types.Candidate {
	return []types.Candidate{
		{Txn: types.PendingTransaction{EmailID: "e1"}, DisplayDate: "2024-01-05", Payee: "Amazon", Amount: 42.17, Score: 9},
		{Txn: types.PendingTransaction{EmailID: "e2"}, DisplayDate: "2024-01-06", Payee: "Whole Foods", Amount: 18.50, Score: 7},
		{Txn: types.PendingTransaction{EmailID: "e3", IsScheduled: true}, DisplayDate: "2024-03-01", Payee: "Utility Co", Amount: 120, Score: 8},
	}
}

func press(t *testing.T, m selectModel, keys ...tea.KeyMsg) selectModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(selectModel)
	}
	return m
}

func runes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSelectAllByDefault(t *testing.T) {
	m := newSelectModel(testCandidates())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	chosen, ok := m.chosen()
	if !ok || len(chosen) != 3 {
		t.Fatalf("chosen = %d, ok = %v; want all 3", len(chosen), ok)
	}
}

func TestSelectToggleSingle(t *testing.T) {
	m := newSelectModel(testCandidates())
	m = press(t, m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	chosen, ok := m.chosen()
	if !ok || len(chosen) != 2 {
		t.Fatalf("chosen = %d, ok = %v; want 2", len(chosen), ok)
	}
	for _, c := range chosen {
		if c.Txn.EmailID == "e2" {
			t.Fatal("deselected candidate e2 still chosen")
		}
	}
}

func TestSelectToggleAll(t *testing.T) {
	m := newSelectModel(testCandidates())
	m = press(t, m, runes('a'), tea.KeyMsg{Type: tea.KeyEnter})

	chosen, ok := m.chosen()
	if !ok {
		t.Fatal("confirm with empty selection is still a confirm")
	}
	if len(chosen) != 0 {
		t.Fatalf("chosen = %d, want none", len(chosen))
	}

	// a again re-selects everything.
	m2 := newSelectModel(testCandidates())
	m2 = press(t, m2, runes('a'), runes('a'), tea.KeyMsg{Type: tea.KeyEnter})
	if chosen, _ := m2.chosen(); len(chosen) != 3 {
		t.Fatalf("chosen after double toggle = %d, want 3", len(chosen))
	}
}

func TestSelectCancel(t *testing.T) {
	m := newSelectModel(testCandidates())
	m = press(t, m, runes('q'))

	if _, ok := m.chosen(); ok {
		t.Fatal("q must cancel, not confirm")
	}
}

func TestSelectCursorBounds(t *testing.T) {
	m := newSelectModel(testCandidates())
	m = press(t, m,
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
	)
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want clamped to last row", m.cursor)
	}
}

func TestSelectView(t *testing.T) {
	m := newSelectModel(testCandidates())
	view := m.View()
	for _, want := range []string{"Amazon", "Whole Foods", "Utility Co", "(scheduled)", "space toggle"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !strings.Contains(m.View(), "[ ]") {
		t.Error("view should show the deselected checkbox")
	}
}
