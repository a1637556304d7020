package fastmail

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// stubPhrases mark text bodies that only tell the reader to switch to
// the HTML version. Such stubs are short; real receipts quoting one of
// these phrases are almost always longer.
var stubPhrases = []string{
	"enable html",
	"view this email",
	"html version",
	"html-enabled",
}

const stubMaxLen = 2000

// isStubBody reports whether a text body is a "please enable HTML"
// placeholder rather than real content.
func isStubBody(text string) bool {
	if len(text) >= stubMaxLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range stubPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup and returns the visible text, skipping
// script and style content. Malformed input falls back to regex tag
// removal.
func StripHTML(raw string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var parts []string
	skip := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if len(parts) == 0 {
				// Tokenizer yielded nothing useful; strip tags directly.
				return strings.Join(strings.Fields(tagPattern.ReplaceAllString(raw, " ")), " ")
			}
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip = true
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip = false
			}
		case html.TextToken:
			if skip {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}
