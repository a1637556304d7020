package classifier

import (
	"strings"
	"testing"

	"github.com/aheckler/fastmail2ynab/internal/types"
)

func TestParseDirectJSON(t *testing.T) {
	text := `{
		"score": 9,
		"direction": "outflow",
		"merchant": "Amazon",
		"matched_payee": "Amazon.com",
		"account_name": "Chase",
		"amount": 42.17,
		"currency": "USD",
		"date": "2024-01-05",
		"date_confidence": "certain",
		"description": "Order shipped",
		"reasoning": "Clear receipt"
	}`
	c := Parse(text)
	if c.Score != 9 || c.IsInflow || c.Merchant != "Amazon" {
		t.Fatalf("c = %+v", c)
	}
	if !c.HasAmount || c.Amount != 42.17 {
		t.Fatalf("amount = %v (has=%v)", c.Amount, c.HasAmount)
	}
	if c.Date != "2024-01-05" || c.DateConfidence != types.DateCertain {
		t.Fatalf("date = %q conf = %q", c.Date, c.DateConfidence)
	}
}

func TestParseWrappedInMarkdown(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"score\": 7, \"direction\": \"inflow\", \"amount\": 12.5}\n```\nDone."
	c := Parse(text)
	if c.Score != 7 || !c.IsInflow || !c.HasAmount || c.Amount != 12.5 {
		t.Fatalf("c = %+v", c)
	}
}

func TestParseNoJSONIsSentinel(t *testing.T) {
	c := Parse("I could not determine anything about this email.")
	if c.Score != 0 {
		t.Fatalf("score = %d, want 0", c.Score)
	}
	if c.Reasoning == "" {
		t.Fatal("sentinel should record the failure")
	}
}

func TestParseMalformedBlockIsSentinel(t *testing.T) {
	c := Parse("result: {score: not json}")
	if c.Score != 0 {
		t.Fatalf("score = %d, want 0", c.Score)
	}
}

func TestParseDegradedFields(t *testing.T) {
	// Non-numeric score and null amount degrade instead of failing.
	c := Parse(`{"score": "high", "amount": null, "merchant": "Store"}`)
	if c.Score != 0 {
		t.Fatalf("score = %d, want 0", c.Score)
	}
	if c.HasAmount {
		t.Fatal("null amount should be absent")
	}
	if c.Merchant != "Store" {
		t.Fatalf("merchant = %q", c.Merchant)
	}
}

func TestParseStringNumbers(t *testing.T) {
	c := Parse(`{"score": "8", "amount": "29.99", "direction": "outflow"}`)
	if c.Score != 8 {
		t.Fatalf("score = %d, want 8", c.Score)
	}
	if !c.HasAmount || c.Amount != 29.99 {
		t.Fatalf("amount = %v", c.Amount)
	}
}

func TestParseDefaults(t *testing.T) {
	c := Parse(`{"score": 6}`)
	if c.IsInflow {
		t.Fatal("direction should default to outflow")
	}
	if c.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", c.Currency)
	}
}

func TestParseNegativeAmountIgnored(t *testing.T) {
	c := Parse(`{"score": 8, "amount": -5.0}`)
	if c.HasAmount {
		t.Fatal("negative amount should be treated as absent")
	}
}

func TestBuildPromptBounds(t *testing.T) {
	email := types.Email{
		ID:      "e1",
		From:    "store@example.com",
		Subject: "Receipt",
		Body:    strings.Repeat("x", bodyBudget+500),
	}
	payees := make([]string, maxPayees+10)
	for i := range payees {
		payees[i] = strings.Repeat("p", 5)
	}
	accounts := []types.Account{
		{Name: "Chase", Default: true, Notes: "everyday card\nmost purchases"},
		{Name: "Apple Card"},
	}

	prompt := BuildPrompt(email, payees, accounts)
	if strings.Count(prompt, "x") > bodyBudget {
		t.Fatal("body not truncated")
	}
	if !strings.Contains(prompt, "- Chase (DEFAULT)") {
		t.Fatal("default account marker missing")
	}
	if !strings.Contains(prompt, "  everyday card") {
		t.Fatal("account notes missing")
	}
	if !strings.Contains(prompt, "- Apple Card\n") {
		t.Fatal("second account missing")
	}
}

func TestBuildPromptDeterministicPayees(t *testing.T) {
	email := types.Email{From: "a@b.c", Subject: "s", Body: "b"}
	p1 := BuildPrompt(email, []string{"Zeta", "Alpha"}, nil)
	p2 := BuildPrompt(email, []string{"Alpha", "Zeta"}, nil)
	if p1 != p2 {
		t.Fatal("prompt should not depend on payee order")
	}
	if strings.Index(p1, "Alpha") > strings.Index(p1, "Zeta") {
		t.Fatal("payees should be sorted")
	}
}
