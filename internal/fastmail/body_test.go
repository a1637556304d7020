package fastmail

import (
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Hello <b>world</b></p>")
	if got != "Hello world" {
		t.Fatalf("got %q, want %q", got, "Hello world")
	}
}

func TestStripHTMLSkipsScriptAndStyle(t *testing.T) {
	raw := `<html><head><style>body { color: red }</style></head>
<body><script>var x = 1;</script><p>Total: $42.17</p></body></html>`
	got := StripHTML(raw)
	if strings.Contains(got, "color") || strings.Contains(got, "var x") {
		t.Fatalf("script/style leaked into %q", got)
	}
	if !strings.Contains(got, "Total: $42.17") {
		t.Fatalf("missing visible text in %q", got)
	}
}

func TestIsStubBody(t *testing.T) {
	if !isStubBody("Please enable HTML to view this email.") {
		t.Fatal("stub body not detected")
	}
	if isStubBody("Your Amazon order of $42.17 shipped Jan 5") {
		t.Fatal("real body flagged as stub")
	}
	// Long bodies mentioning the phrase are not stubs.
	long := "enable html " + strings.Repeat("receipt line item\n", 200)
	if isStubBody(long) {
		t.Fatal("long body flagged as stub")
	}
}

func TestExtractBodyPrefersText(t *testing.T) {
	e := emailData{
		TextBody:   []bodyPart{{PartID: "1", Type: "text/plain"}},
		HTMLBody:   []bodyPart{{PartID: "2", Type: "text/html"}},
		BodyValues: map[string]bodyValue{"1": {Value: "plain receipt"}, "2": {Value: "<p>html receipt</p>"}},
		Preview:    "preview",
	}
	if got := extractBody(e); got != "plain receipt" {
		t.Fatalf("got %q, want plain text body", got)
	}
}

func TestExtractBodyStubPrefersHTML(t *testing.T) {
	e := emailData{
		TextBody: []bodyPart{{PartID: "1", Type: "text/plain"}},
		HTMLBody: []bodyPart{{PartID: "2", Type: "text/html"}},
		BodyValues: map[string]bodyValue{
			"1": {Value: "Please enable HTML to view this email"},
			"2": {Value: "<p>Order total $10.00</p>"},
		},
	}
	if got := extractBody(e); got != "Order total $10.00" {
		t.Fatalf("got %q, want stripped HTML body", got)
	}
}

func TestExtractBodyHTMLTypedTextPart(t *testing.T) {
	e := emailData{
		TextBody:   []bodyPart{{PartID: "1", Type: "text/html; charset=utf-8"}},
		BodyValues: map[string]bodyValue{"1": {Value: "<b>Charged</b> $5"}},
	}
	if got := extractBody(e); got != "Charged $5" {
		t.Fatalf("got %q, want stripped text", got)
	}
}

func TestExtractBodyFallsBackToPreview(t *testing.T) {
	e := emailData{Preview: "short preview"}
	if got := extractBody(e); got != "short preview" {
		t.Fatalf("got %q, want preview", got)
	}
}
