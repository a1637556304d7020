// Package display provides terminal formatting for fm2ynab output.
package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aheckler/fastmail2ynab/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	Inflow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	Outflow = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	Warn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
)

// Amount renders a signed dollar amount, green for inflows and red for
// outflows.
func Amount(amount float64, isInflow bool) string {
	if isInflow {
		return Inflow.Render(fmt.Sprintf("+$%.2f", amount))
	}
	return Outflow.Render(fmt.Sprintf("-$%.2f", amount))
}

// ScoreBadge renders a confidence score with a color keyed to how sure
// the classifier was.
func ScoreBadge(score int) string {
	label := fmt.Sprintf("%2d/10", score)
	switch {
	case score >= 8:
		return Success.Render(label)
	case score >= 6:
		return Warn.Render(label)
	default:
		return Dim.Render(label)
	}
}

// Candidates prints the review table shown before confirmation.
func Candidates(candidates []types.Candidate) {
	fmt.Println(Bold.Render("Transactions to import:"))
	fmt.Println()
	fmt.Printf("  %s  %-10s  %-32s  %12s  %s\n",
		Muted.Render("  #"), "DATE", "PAYEE", "AMOUNT", "SCORE")
	for i, c := range candidates {
		tag := ""
		if c.Txn.IsScheduled {
			tag = Dim.Render("  (scheduled)")
		}
		fmt.Printf("  %s  %-10s  %-32s  %12s  %s%s\n",
			Muted.Render(fmt.Sprintf("%3d", i+1)),
			c.DisplayDate,
			Truncate(c.Payee, 32),
			Amount(c.Amount, c.IsInflow),
			ScoreBadge(c.Score),
			tag)
	}
	fmt.Println()
}

// Summary prints the end-of-run stats line.
func Summary(stats types.RunStats) {
	parts := []string{
		fmt.Sprintf("%d created", stats.Created),
	}
	if stats.Scheduled > 0 {
		parts = append(parts, fmt.Sprintf("%d scheduled", stats.Scheduled))
	}
	if stats.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", stats.Duplicates))
	}
	if stats.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", stats.Skipped))
	}
	if stats.Cached > 0 {
		parts = append(parts, Dim.Render(fmt.Sprintf("%d from cache", stats.Cached)))
	}
	if stats.Errors > 0 {
		parts = append(parts, ErrStyle.Render(fmt.Sprintf("%d errors", stats.Errors)))
	}
	fmt.Println(Bold.Render("Done:") + " " + strings.Join(parts, ", "))
}

// Truncate shortens a string to maxLen, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Success.Render("✓") + " " + msg)
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+msg)
}

// WarnMsg prints an amber warning + message.
func WarnMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Warn.Render("!") + " " + msg)
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}
