package txn

import (
	"strings"
	"testing"

	"github.com/aheckler/fastmail2ynab/internal/dates"
	"github.com/aheckler/fastmail2ynab/internal/types"
)

func TestGenerateImportIDDeterministic(t *testing.T) {
	a := GenerateImportID("email-1", "2024-01-05", false)
	b := GenerateImportID("email-1", "2024-01-05", false)
	if a != b {
		t.Fatalf("same inputs produced %q and %q", a, b)
	}
	if !strings.HasPrefix(a, "YNAB:2024-01-05:") {
		t.Fatalf("id = %q, want date prefix", a)
	}
	if len(a) > 36 {
		t.Fatalf("id length %d exceeds YNAB limit", len(a))
	}
}

func TestGenerateImportIDDistinctEmails(t *testing.T) {
	a := GenerateImportID("email-1", "2024-01-05", false)
	b := GenerateImportID("email-2", "2024-01-05", false)
	if a == b {
		t.Fatal("different emails should produce different ids")
	}
}

func TestGenerateImportIDForce(t *testing.T) {
	a := GenerateImportID("email-1", "2024-01-05", true)
	b := GenerateImportID("email-1", "2024-01-05", true)
	if a == b {
		t.Fatal("force mode should produce unique ids on repeated calls")
	}
}

func TestMilliunits(t *testing.T) {
	cases := []struct {
		amount   float64
		isInflow bool
		want     int64
	}{
		{29.99, false, -29990},
		{29.99, true, 29990},
		{42.17, false, -42170},
		{0.005, false, -5},
		{10.0049, true, 10005},
	}
	for _, tc := range cases {
		if got := Milliunits(tc.amount, tc.isInflow); got != tc.want {
			t.Errorf("Milliunits(%v, %v) = %d, want %d", tc.amount, tc.isInflow, got, tc.want)
		}
	}
}

var account = types.Account{Name: "Chase", YNABID: "chase-1"}

func TestBuildRegular(t *testing.T) {
	c := &types.Classification{Amount: 42.17, HasAmount: true}
	got, clamped := Build("e1", c, account, "2024-01-05", false, "Amazon", "memo", false)
	if clamped {
		t.Fatal("past date should not clamp")
	}
	if got.IsScheduled || got.ImportID == "" {
		t.Fatalf("got = %+v, want regular txn with import id", got)
	}
	if got.Date != "2024-01-05" || got.Amount != 42.17 || got.AccountID != "chase-1" {
		t.Fatalf("got = %+v", got)
	}
}

func TestBuildScheduledForCertainFuture(t *testing.T) {
	c := &types.Classification{Amount: 120, HasAmount: true, DateConfidence: types.DateCertain}
	got, clamped := Build("e1", c, account, "2099-01-01", true, "Utility Co", "memo", false)
	if clamped {
		t.Fatal("certain future dates keep their date")
	}
	if !got.IsScheduled {
		t.Fatal("certain future date should be scheduled")
	}
	if got.ImportID != "" {
		t.Fatal("scheduled transactions carry no import id")
	}
	if got.Date != "2099-01-01" {
		t.Fatalf("date = %q", got.Date)
	}
}

func TestBuildClampsUncertainFuture(t *testing.T) {
	c := &types.Classification{Amount: 120, HasAmount: true, DateConfidence: types.DateLikely}
	got, clamped := Build("e1", c, account, "2099-01-01", true, "Utility Co", "memo", false)
	if !clamped {
		t.Fatal("uncertain future date should clamp")
	}
	if got.IsScheduled {
		t.Fatal("clamped transaction is regular, not scheduled")
	}
	if got.Date != dates.Today() {
		t.Fatalf("date = %q, want today", got.Date)
	}
	if got.ImportID == "" {
		t.Fatal("regular transaction needs an import id")
	}
}

func TestBuildTruncatesPayee(t *testing.T) {
	c := &types.Classification{Amount: 5, HasAmount: true}
	long := strings.Repeat("A Very Long Payee ", 10)
	got, _ := Build("e1", c, account, "2024-01-05", false, long, "", false)
	if len(got.PayeeName) != 50 {
		t.Fatalf("payee length = %d, want 50", len(got.PayeeName))
	}
}
