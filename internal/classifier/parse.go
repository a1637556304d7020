package classifier

import (
	"encoding/json"
	"strings"

	"github.com/aheckler/fastmail2ynab/internal/types"
)

// Parse converts the model's free-text response into a Classification.
//
// The prompt asks for bare JSON, but the model may wrap it in markdown
// or commentary, so parsing is defensive: try the whole text, then the
// first-{ to last-} block, and fall back to the score-0 sentinel when
// neither yields JSON. Malformed individual fields degrade to zero
// values rather than failing the parse.
func Parse(text string) *types.Classification {
	raw, ok := decode(strings.TrimSpace(text))
	if !ok {
		return &types.Classification{Score: 0, Reasoning: "failed to parse classifier response"}
	}

	direction := strings.ToLower(asString(raw["direction"]))
	if direction == "" {
		direction = "outflow"
	}

	c := &types.Classification{
		Score:          asInt(raw["score"]),
		IsInflow:       direction == "inflow",
		Merchant:       asString(raw["merchant"]),
		MatchedPayee:   asString(raw["matched_payee"]),
		Currency:       asString(raw["currency"]),
		Date:           asString(raw["date"]),
		DateConfidence: asString(raw["date_confidence"]),
		Description:    asString(raw["description"]),
		Reasoning:      asString(raw["reasoning"]),
		AccountName:    asString(raw["account_name"]),
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if amount, ok := asFloat(raw["amount"]); ok && amount > 0 {
		c.Amount = amount
		c.HasAmount = true
	}
	return c
}

func decode(text string) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		return raw, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, false
	}
	return raw, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var parsed float64
		if err := json.Unmarshal([]byte(n), &parsed); err == nil {
			return int(parsed)
		}
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		var parsed float64
		if err := json.Unmarshal([]byte(n), &parsed); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
